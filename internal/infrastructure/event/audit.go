package event

import (
	"context"

	"github.com/wms/backend/internal/domain/issue"
	"github.com/wms/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes an audit log line for every goods issue event.
// It is the default subscriber wired at startup.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new audit log handler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns the goods issue event types this handler consumes
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		issue.EventTypeGoodsIssueCreated,
		issue.EventTypeGoodsIssueStatusChanged,
		issue.EventTypeGoodsIssueLinePicked,
	}
}

// Handle logs the event with type-specific fields
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *issue.GoodsIssueCreatedEvent:
		h.logger.Info("goods issue created",
			zap.String("issue_number", e.IssueNumber),
			zap.String("issue_type", e.IssueType),
			zap.String("from_warehouse", e.FromWarehouse),
			zap.Int("line_count", e.LineCount),
			zap.String("created_by", e.CreatedBy),
		)
	case *issue.GoodsIssueStatusChangedEvent:
		h.logger.Info("goods issue status changed",
			zap.String("issue_number", e.IssueNumber),
			zap.String("from_status", e.FromStatus.String()),
			zap.String("to_status", e.ToStatus.String()),
			zap.String("changed_by", e.ChangedBy),
		)
	case *issue.GoodsIssueLinePickedEvent:
		h.logger.Info("goods issue line picked",
			zap.String("issue_number", e.IssueNumber),
			zap.String("line_id", e.LineID.String()),
			zap.String("sku", e.SKU),
			zap.String("tracking_type", e.TrackingType.String()),
			zap.String("picked_qty", e.PickedQty.String()),
			zap.String("planned_qty", e.PlannedQty.String()),
		)
	default:
		h.logger.Debug("unrecognized event",
			zap.String("event_type", event.EventType()),
			zap.String("aggregate_id", event.AggregateID().String()),
		)
	}
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
