package issue

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wms/backend/internal/domain/issue"
)

// ==================== Request DTOs ====================

// CreateGoodsIssueRequest represents a request to create a goods issue draft
type CreateGoodsIssueRequest struct {
	IssueType     string                `json:"issue_type" binding:"required,min=1,max=50"`
	PartnerName   string                `json:"partner_name" binding:"omitempty,max=200"`
	FromWarehouse string                `json:"from_warehouse" binding:"required,min=1,max=100"`
	ToWarehouse   string                `json:"to_warehouse" binding:"omitempty,max=100"`
	ExpectedDate  time.Time             `json:"expected_date" binding:"required"`
	Lines         []GoodsIssueLineInput `json:"lines" binding:"required,min=1,dive"`
	CreatedBy     string                `json:"created_by" binding:"omitempty,max=100"`
}

// GoodsIssueLineInput represents a line in create/update requests
type GoodsIssueLineInput struct {
	SKU          string          `json:"sku" binding:"required,min=1,max=100"`
	ProductName  string          `json:"product_name" binding:"required,min=1,max=200"`
	UOM          string          `json:"uom" binding:"required,min=1,max=20"`
	PlannedQty   decimal.Decimal `json:"planned_qty" binding:"required"`
	TrackingType string          `json:"tracking_type" binding:"required,oneof=NONE SERIAL LOT"`
}

// UpdateGoodsIssueRequest replaces the header and line list of a draft
type UpdateGoodsIssueRequest struct {
	IssueType     string                `json:"issue_type" binding:"required,min=1,max=50"`
	PartnerName   string                `json:"partner_name" binding:"omitempty,max=200"`
	FromWarehouse string                `json:"from_warehouse" binding:"required,min=1,max=100"`
	ToWarehouse   string                `json:"to_warehouse" binding:"omitempty,max=100"`
	ExpectedDate  time.Time             `json:"expected_date" binding:"required"`
	Lines         []GoodsIssueLineInput `json:"lines" binding:"required,min=1,dive"`
}

// TransitionRequest represents a status transition request
type TransitionRequest struct {
	TargetStatus string `json:"target_status" binding:"required"`
	Actor        string `json:"actor" binding:"omitempty,max=100"`
	Note         string `json:"note" binding:"omitempty,max=500"`
}

// AddSerialRequest captures one serial number on a line
type AddSerialRequest struct {
	Serial string `json:"serial" binding:"required,min=1,max=100"`
}

// UpsertLotAllocationRequest creates or replaces one lot allocation
type UpsertLotAllocationRequest struct {
	Quantity     decimal.Decimal  `json:"quantity" binding:"required"`
	AvailableQty *decimal.Decimal `json:"available_qty"`
}

// SetPickedQuantityRequest sets the picked quantity of an untracked line
type SetPickedQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// GoodsIssueListFilter represents filter options for the issue list
type GoodsIssueListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT PICKING ADJUSTMENT_REQUESTED SUBMITTED APPROVED COMPLETED CANCELLED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at updated_at issue_number expected_date"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ==================== Response DTOs ====================

// GoodsIssueResponse represents a goods issue in API responses
type GoodsIssueResponse struct {
	ID            uuid.UUID                `json:"id"`
	IssueNumber   string                   `json:"issue_number"`
	IssueType     string                   `json:"issue_type"`
	PartnerName   string                   `json:"partner_name,omitempty"`
	FromWarehouse string                   `json:"from_warehouse"`
	ToWarehouse   string                   `json:"to_warehouse,omitempty"`
	ExpectedDate  time.Time                `json:"expected_date"`
	Status        string                   `json:"status"`
	CreatedBy     string                   `json:"created_by"`
	Lines         []GoodsIssueLineResponse `json:"lines"`
	StatusHistory []StatusChangeResponse   `json:"status_history"`
	TotalPlanned  decimal.Decimal          `json:"total_planned_qty"`
	TotalPicked   decimal.Decimal          `json:"total_picked_qty"`
	FullyPicked   bool                     `json:"fully_picked"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
	Version       int                      `json:"version"`
}

// GoodsIssueLineResponse represents an issue line in API responses
type GoodsIssueLineResponse struct {
	ID           uuid.UUID               `json:"id"`
	SKU          string                  `json:"sku"`
	ProductName  string                  `json:"product_name"`
	UOM          string                  `json:"uom"`
	PlannedQty   decimal.Decimal         `json:"planned_qty"`
	PickedQty    decimal.Decimal         `json:"picked_qty"`
	RemainingQty decimal.Decimal         `json:"remaining_qty"`
	TrackingType string                  `json:"tracking_type"`
	Serials      []string                `json:"serials,omitempty"`
	Allocations  []LotAllocationResponse `json:"allocations,omitempty"`
	Fulfilled    bool                    `json:"fulfilled"`
}

// LotAllocationResponse represents a lot allocation in API responses
type LotAllocationResponse struct {
	LotNumber    string           `json:"lot_number"`
	Quantity     decimal.Decimal  `json:"quantity"`
	AvailableQty *decimal.Decimal `json:"available_qty,omitempty"`
}

// StatusChangeResponse represents one status history entry
type StatusChangeResponse struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
	ChangedBy string    `json:"changed_by"`
	Note      string    `json:"note,omitempty"`
}

// GoodsIssueListItemResponse represents a goods issue in list responses
type GoodsIssueListItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	IssueNumber   string          `json:"issue_number"`
	IssueType     string          `json:"issue_type"`
	PartnerName   string          `json:"partner_name,omitempty"`
	FromWarehouse string          `json:"from_warehouse"`
	Status        string          `json:"status"`
	LineCount     int             `json:"line_count"`
	TotalPlanned  decimal.Decimal `json:"total_planned_qty"`
	TotalPicked   decimal.Decimal `json:"total_picked_qty"`
	ExpectedDate  time.Time       `json:"expected_date"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IssueStatusSummary represents issue counts grouped by status
type IssueStatusSummary struct {
	Draft               int64 `json:"draft"`
	Picking             int64 `json:"picking"`
	AdjustmentRequested int64 `json:"adjustment_requested"`
	Submitted           int64 `json:"submitted"`
	Approved            int64 `json:"approved"`
	Completed           int64 `json:"completed"`
	Cancelled           int64 `json:"cancelled"`
	Total               int64 `json:"total"`
}

// ==================== Converters ====================

// ToGoodsIssueResponse converts a domain goods issue to a response DTO
func ToGoodsIssueResponse(doc *issue.GoodsIssue) GoodsIssueResponse {
	lines := make([]GoodsIssueLineResponse, 0, len(doc.Lines))
	for idx := range doc.Lines {
		lines = append(lines, toLineResponse(&doc.Lines[idx]))
	}

	history := make([]StatusChangeResponse, 0, len(doc.StatusHistory))
	for _, change := range doc.StatusHistory {
		history = append(history, StatusChangeResponse{
			Status:    change.Status.String(),
			ChangedAt: change.ChangedAt,
			ChangedBy: change.ChangedBy,
			Note:      change.Note,
		})
	}

	return GoodsIssueResponse{
		ID:            doc.ID,
		IssueNumber:   doc.IssueNumber,
		IssueType:     doc.IssueType,
		PartnerName:   doc.PartnerName,
		FromWarehouse: doc.FromWarehouse,
		ToWarehouse:   doc.ToWarehouse,
		ExpectedDate:  doc.ExpectedDate,
		Status:        doc.Status.String(),
		CreatedBy:     doc.CreatedBy,
		Lines:         lines,
		StatusHistory: history,
		TotalPlanned:  doc.TotalPlannedQty(),
		TotalPicked:   doc.TotalPickedQty(),
		FullyPicked:   doc.IsFullyPicked(),
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
		Version:       doc.Version,
	}
}

func toLineResponse(line *issue.GoodsIssueLine) GoodsIssueLineResponse {
	allocations := make([]LotAllocationResponse, 0, len(line.Allocations))
	for _, a := range line.Allocations {
		allocations = append(allocations, LotAllocationResponse{
			LotNumber:    a.LotNumber,
			Quantity:     a.Quantity,
			AvailableQty: a.AvailableQty,
		})
	}

	return GoodsIssueLineResponse{
		ID:           line.ID,
		SKU:          line.SKU,
		ProductName:  line.ProductName,
		UOM:          line.UOM,
		PlannedQty:   line.PlannedQty,
		PickedQty:    line.PickedQty,
		RemainingQty: line.RemainingQty(),
		TrackingType: line.TrackingType.String(),
		Serials:      line.Serials,
		Allocations:  allocations,
		Fulfilled:    line.IsFulfilled(),
	}
}

// ToGoodsIssueListItemResponses converts domain goods issues to list DTOs
func ToGoodsIssueListItemResponses(docs []issue.GoodsIssue) []GoodsIssueListItemResponse {
	items := make([]GoodsIssueListItemResponse, 0, len(docs))
	for idx := range docs {
		doc := &docs[idx]
		items = append(items, GoodsIssueListItemResponse{
			ID:            doc.ID,
			IssueNumber:   doc.IssueNumber,
			IssueType:     doc.IssueType,
			PartnerName:   doc.PartnerName,
			FromWarehouse: doc.FromWarehouse,
			Status:        doc.Status.String(),
			LineCount:     doc.LineCount(),
			TotalPlanned:  doc.TotalPlannedQty(),
			TotalPicked:   doc.TotalPickedQty(),
			ExpectedDate:  doc.ExpectedDate,
			CreatedAt:     doc.CreatedAt,
			UpdatedAt:     doc.UpdatedAt,
		})
	}
	return items
}

func toHeaderInput(issueType, partnerName, fromWarehouse, toWarehouse string, expectedDate time.Time) issue.HeaderInput {
	return issue.HeaderInput{
		IssueType:     issueType,
		PartnerName:   partnerName,
		FromWarehouse: fromWarehouse,
		ToWarehouse:   toWarehouse,
		ExpectedDate:  expectedDate,
	}
}

func toLineInputs(inputs []GoodsIssueLineInput) []issue.LineInput {
	lines := make([]issue.LineInput, 0, len(inputs))
	for _, input := range inputs {
		lines = append(lines, issue.LineInput{
			SKU:          input.SKU,
			ProductName:  input.ProductName,
			UOM:          input.UOM,
			PlannedQty:   input.PlannedQty,
			TrackingType: issue.TrackingType(input.TrackingType),
		})
	}
	return lines
}
