package issue

import (
	"context"

	"github.com/wms/backend/internal/domain/shared"
)

// GoodsIssueRepository defines the persistence interface for goods issues.
// Implementations must hand out snapshots: a document returned from a read
// is the caller's to mutate, and only Save publishes it back.
type GoodsIssueRepository interface {
	// FindByNumber retrieves a goods issue by its issue number
	FindByNumber(ctx context.Context, issueNumber string) (*GoodsIssue, error)
	// FindAll retrieves goods issues with filtering and pagination,
	// ordered by creation time descending by default
	FindAll(ctx context.Context, filter shared.Filter) ([]GoodsIssue, error)
	// Count returns the number of goods issues matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// CountByStatus returns the number of goods issues in a status
	CountByStatus(ctx context.Context, status IssueStatus) (int64, error)
	// Save publishes a document snapshot, replacing any previous version
	Save(ctx context.Context, doc *GoodsIssue) error
	// NextIssueNumber generates the next sequential issue number
	NextIssueNumber(ctx context.Context) (string, error)
}
