package issue

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/domain/issue"
	"github.com/wms/backend/internal/domain/shared"
	"github.com/wms/backend/internal/infrastructure/cache"
)

// GoodsIssueService handles goods issue business operations.
// Mutations are serialized with a mutex: the repository hands out snapshots,
// so concurrent read-modify-save cycles would otherwise lose updates.
type GoodsIssueService struct {
	repo           issue.GoodsIssueRepository
	eventPublisher shared.EventPublisher
	publishTimeout time.Duration
	uiState        cache.UIStateStore
	uiStateTTL     time.Duration
	defaultActor   string
	logger         *zap.Logger
	mu             sync.Mutex
}

// NewGoodsIssueService creates a new GoodsIssueService
func NewGoodsIssueService(repo issue.GoodsIssueRepository, logger *zap.Logger) *GoodsIssueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoodsIssueService{
		repo:   repo,
		logger: logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration.
// A positive timeout bounds each post-save publish cycle.
func (s *GoodsIssueService) SetEventPublisher(publisher shared.EventPublisher, timeout time.Duration) {
	s.eventPublisher = publisher
	s.publishTimeout = timeout
}

// SetDefaultActor sets the actor attributed to requests that name none
func (s *GoodsIssueService) SetDefaultActor(actor string) {
	s.defaultActor = actor
}

// SetUIStateStore sets the store used for client-visible document snapshots
func (s *GoodsIssueService) SetUIStateStore(store cache.UIStateStore, ttl time.Duration) {
	s.uiState = store
	s.uiStateTTL = ttl
}

// CreateDraft creates a new goods issue draft with a generated issue number
func (s *GoodsIssueService) CreateDraft(ctx context.Context, req CreateGoodsIssueRequest) (*GoodsIssueResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issueNumber, err := s.repo.NextIssueNumber(ctx)
	if err != nil {
		return nil, err
	}

	header := toHeaderInput(req.IssueType, req.PartnerName, req.FromWarehouse, req.ToWarehouse, req.ExpectedDate)
	doc, err := issue.NewGoodsIssue(issueNumber, header, toLineInputs(req.Lines), s.actorOrDefault(req.CreatedBy))
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, doc)
	s.snapshot(ctx, doc)

	response := ToGoodsIssueResponse(doc)
	return &response, nil
}

// Update replaces the header and lines of a draft goods issue
func (s *GoodsIssueService) Update(ctx context.Context, issueNumber string, req UpdateGoodsIssueRequest) (*GoodsIssueResponse, error) {
	return s.mutate(ctx, issueNumber, func(doc *issue.GoodsIssue) error {
		header := toHeaderInput(req.IssueType, req.PartnerName, req.FromWarehouse, req.ToWarehouse, req.ExpectedDate)
		return doc.UpdateDraft(header, toLineInputs(req.Lines))
	})
}

// Transition moves a goods issue to the target status
func (s *GoodsIssueService) Transition(ctx context.Context, issueNumber string, req TransitionRequest) (*GoodsIssueResponse, error) {
	return s.mutate(ctx, issueNumber, func(doc *issue.GoodsIssue) error {
		return doc.TransitionTo(issue.IssueStatus(req.TargetStatus), s.actorOrDefault(req.Actor), req.Note)
	})
}

// AddSerial captures a serial number on a SERIAL line
func (s *GoodsIssueService) AddSerial(ctx context.Context, issueNumber string, lineID uuid.UUID, req AddSerialRequest) (*GoodsIssueResponse, error) {
	return s.mutate(ctx, issueNumber, func(doc *issue.GoodsIssue) error {
		return doc.AddSerial(lineID, req.Serial)
	})
}

// RemoveSerial removes a captured serial from a SERIAL line
func (s *GoodsIssueService) RemoveSerial(ctx context.Context, issueNumber string, lineID uuid.UUID, serial string) (*GoodsIssueResponse, error) {
	return s.mutate(ctx, issueNumber, func(doc *issue.GoodsIssue) error {
		return doc.RemoveSerial(lineID, serial)
	})
}

// UpsertLotAllocation creates or replaces a lot allocation on a LOT line
func (s *GoodsIssueService) UpsertLotAllocation(ctx context.Context, issueNumber string, lineID uuid.UUID, lotNumber string, req UpsertLotAllocationRequest) (*GoodsIssueResponse, error) {
	return s.mutate(ctx, issueNumber, func(doc *issue.GoodsIssue) error {
		return doc.UpsertLotAllocation(lineID, lotNumber, req.Quantity, req.AvailableQty)
	})
}

// RemoveLotAllocation removes a lot allocation from a LOT line
func (s *GoodsIssueService) RemoveLotAllocation(ctx context.Context, issueNumber string, lineID uuid.UUID, lotNumber string) (*GoodsIssueResponse, error) {
	return s.mutate(ctx, issueNumber, func(doc *issue.GoodsIssue) error {
		return doc.RemoveLotAllocation(lineID, lotNumber)
	})
}

// SetLinePickedQuantity sets the picked quantity of an untracked line
func (s *GoodsIssueService) SetLinePickedQuantity(ctx context.Context, issueNumber string, lineID uuid.UUID, req SetPickedQuantityRequest) (*GoodsIssueResponse, error) {
	return s.mutate(ctx, issueNumber, func(doc *issue.GoodsIssue) error {
		return doc.SetLinePickedQuantity(lineID, req.Quantity)
	})
}

// GetByNumber retrieves a goods issue by issue number
func (s *GoodsIssueService) GetByNumber(ctx context.Context, issueNumber string) (*GoodsIssueResponse, error) {
	doc, err := s.repo.FindByNumber(ctx, issueNumber)
	if err != nil {
		return nil, err
	}
	response := ToGoodsIssueResponse(doc)
	return &response, nil
}

// List retrieves goods issues with filtering and pagination
func (s *GoodsIssueService) List(ctx context.Context, filter GoodsIssueListFilter) ([]GoodsIssueListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	docs, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToGoodsIssueListItemResponses(docs), total, nil
}

// GetStatusSummary retrieves issue counts grouped by status
func (s *GoodsIssueService) GetStatusSummary(ctx context.Context) (*IssueStatusSummary, error) {
	counts := make(map[issue.IssueStatus]int64, len(issue.AllStatuses))
	var total int64
	for _, status := range issue.AllStatuses {
		count, err := s.repo.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		counts[status] = count
		total += count
	}

	return &IssueStatusSummary{
		Draft:               counts[issue.StatusDraft],
		Picking:             counts[issue.StatusPicking],
		AdjustmentRequested: counts[issue.StatusAdjustmentRequested],
		Submitted:           counts[issue.StatusSubmitted],
		Approved:            counts[issue.StatusApproved],
		Completed:           counts[issue.StatusCompleted],
		Cancelled:           counts[issue.StatusCancelled],
		Total:               total,
	}, nil
}

// mutate runs a single serialized read-modify-save cycle against one document
func (s *GoodsIssueService) mutate(ctx context.Context, issueNumber string, apply func(*issue.GoodsIssue) error) (*GoodsIssueResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.repo.FindByNumber(ctx, issueNumber)
	if err != nil {
		return nil, err
	}

	if err := apply(doc); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, doc)
	s.snapshot(ctx, doc)

	response := ToGoodsIssueResponse(doc)
	return &response, nil
}

// actorOrDefault substitutes the configured default actor for a blank one.
// The domain applies its own last-resort fallback when no default is set.
func (s *GoodsIssueService) actorOrDefault(actor string) string {
	if strings.TrimSpace(actor) == "" {
		return s.defaultActor
	}
	return actor
}

// publishEvents delivers pending domain events best-effort; the save has
// already succeeded and is not rolled back on publish failure
func (s *GoodsIssueService) publishEvents(ctx context.Context, doc *issue.GoodsIssue) {
	if s.eventPublisher == nil {
		return
	}
	if s.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.publishTimeout)
		defer cancel()
	}
	for _, event := range doc.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.String("issue_number", doc.IssueNumber),
				zap.Error(err),
			)
		}
	}
	doc.ClearDomainEvents()
}

// issueSnapshot is the client-visible state written through to the UI
// state store after every mutation
type issueSnapshot struct {
	IssueNumber string          `json:"issue_number"`
	Status      string          `json:"status"`
	TotalPicked decimal.Decimal `json:"total_picked_qty"`
	FullyPicked bool            `json:"fully_picked"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (s *GoodsIssueService) snapshot(ctx context.Context, doc *issue.GoodsIssue) {
	if s.uiState == nil {
		return
	}

	data, err := json.Marshal(issueSnapshot{
		IssueNumber: doc.IssueNumber,
		Status:      doc.Status.String(),
		TotalPicked: doc.TotalPickedQty(),
		FullyPicked: doc.IsFullyPicked(),
		UpdatedAt:   doc.UpdatedAt,
	})
	if err != nil {
		return
	}

	if err := s.uiState.Set(ctx, "issue:"+doc.IssueNumber, string(data), s.uiStateTTL); err != nil {
		s.logger.Warn("failed to write ui state snapshot",
			zap.String("issue_number", doc.IssueNumber),
			zap.Error(err),
		)
	}
}

// GetSnapshot returns the stored client-visible snapshot for an issue,
// or ("", nil) when none exists
func (s *GoodsIssueService) GetSnapshot(ctx context.Context, issueNumber string) (string, error) {
	if s.uiState == nil {
		return "", nil
	}
	return s.uiState.Get(ctx, "issue:"+issueNumber)
}
