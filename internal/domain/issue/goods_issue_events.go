package issue

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeGoodsIssue = "GoodsIssue"

// Event type constants
const (
	EventTypeGoodsIssueCreated       = "GoodsIssueCreated"
	EventTypeGoodsIssueStatusChanged = "GoodsIssueStatusChanged"
	EventTypeGoodsIssueLinePicked    = "GoodsIssueLinePicked"
)

// GoodsIssueCreatedEvent is raised when a new goods issue draft is created
type GoodsIssueCreatedEvent struct {
	shared.BaseDomainEvent
	IssueNumber   string `json:"issue_number"`
	IssueType     string `json:"issue_type"`
	FromWarehouse string `json:"from_warehouse"`
	LineCount     int    `json:"line_count"`
	CreatedBy     string `json:"created_by"`
}

// NewGoodsIssueCreatedEvent creates a new GoodsIssueCreatedEvent
func NewGoodsIssueCreatedEvent(doc *GoodsIssue) *GoodsIssueCreatedEvent {
	return &GoodsIssueCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsIssueCreated, AggregateTypeGoodsIssue, doc.ID),
		IssueNumber:     doc.IssueNumber,
		IssueType:       doc.IssueType,
		FromWarehouse:   doc.FromWarehouse,
		LineCount:       len(doc.Lines),
		CreatedBy:       doc.CreatedBy,
	}
}

// EventType returns the event type name
func (e *GoodsIssueCreatedEvent) EventType() string {
	return EventTypeGoodsIssueCreated
}

// GoodsIssueStatusChangedEvent is raised on every successful status transition
type GoodsIssueStatusChangedEvent struct {
	shared.BaseDomainEvent
	IssueNumber string      `json:"issue_number"`
	FromStatus  IssueStatus `json:"from_status"`
	ToStatus    IssueStatus `json:"to_status"`
	ChangedBy   string      `json:"changed_by"`
	Note        string      `json:"note,omitempty"`
}

// NewGoodsIssueStatusChangedEvent creates a new GoodsIssueStatusChangedEvent
func NewGoodsIssueStatusChangedEvent(doc *GoodsIssue, from, to IssueStatus, actor, note string) *GoodsIssueStatusChangedEvent {
	return &GoodsIssueStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsIssueStatusChanged, AggregateTypeGoodsIssue, doc.ID),
		IssueNumber:     doc.IssueNumber,
		FromStatus:      from,
		ToStatus:        to,
		ChangedBy:       actor,
		Note:            note,
	}
}

// EventType returns the event type name
func (e *GoodsIssueStatusChangedEvent) EventType() string {
	return EventTypeGoodsIssueStatusChanged
}

// GoodsIssueLinePickedEvent is raised whenever a line's picking progress changes
type GoodsIssueLinePickedEvent struct {
	shared.BaseDomainEvent
	IssueNumber  string          `json:"issue_number"`
	LineID       uuid.UUID       `json:"line_id"`
	SKU          string          `json:"sku"`
	TrackingType TrackingType    `json:"tracking_type"`
	PickedQty    decimal.Decimal `json:"picked_qty"`
	PlannedQty   decimal.Decimal `json:"planned_qty"`
}

// NewGoodsIssueLinePickedEvent creates a new GoodsIssueLinePickedEvent
func NewGoodsIssueLinePickedEvent(doc *GoodsIssue, line *GoodsIssueLine) *GoodsIssueLinePickedEvent {
	return &GoodsIssueLinePickedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGoodsIssueLinePicked, AggregateTypeGoodsIssue, doc.ID),
		IssueNumber:     doc.IssueNumber,
		LineID:          line.ID,
		SKU:             line.SKU,
		TrackingType:    line.TrackingType,
		PickedQty:       line.PickedQty,
		PlannedQty:      line.PlannedQty,
	}
}

// EventType returns the event type name
func (e *GoodsIssueLinePickedEvent) EventType() string {
	return EventTypeGoodsIssueLinePicked
}
