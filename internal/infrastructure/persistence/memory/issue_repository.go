package memory

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wms/backend/internal/domain/issue"
	"github.com/wms/backend/internal/domain/shared"
)

// GoodsIssueRepository is an in-memory, copy-on-write implementation of
// issue.GoodsIssueRepository. Every read hands out a deep clone and Save
// stores a deep clone, so no caller ever holds a reference into the
// repository's own state.
type GoodsIssueRepository struct {
	mu     sync.RWMutex
	issues map[string]*issue.GoodsIssue // keyed by issue number
	prefix string
}

// NewGoodsIssueRepository creates an empty in-memory repository.
// The prefix is used when generating issue numbers, e.g. "GI".
func NewGoodsIssueRepository(prefix string) *GoodsIssueRepository {
	if prefix == "" {
		prefix = "GI"
	}
	return &GoodsIssueRepository{
		issues: make(map[string]*issue.GoodsIssue),
		prefix: prefix,
	}
}

// FindByNumber retrieves a goods issue by its issue number
func (r *GoodsIssueRepository) FindByNumber(ctx context.Context, issueNumber string) (*issue.GoodsIssue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.issues[issueNumber]
	if !exists {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("goods issue %s not found", issueNumber))
	}

	return doc.Clone(), nil
}

// FindAll retrieves goods issues matching the filter, ordered by creation
// time descending unless the filter says otherwise
func (r *GoodsIssueRepository) FindAll(ctx context.Context, filter shared.Filter) ([]issue.GoodsIssue, error) {
	r.mu.RLock()
	matched := r.match(filter)
	r.mu.RUnlock()

	sortIssues(matched, filter.OrderBy, filter.OrderDir)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start >= len(matched) {
		return []issue.GoodsIssue{}, nil
	}
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	result := make([]issue.GoodsIssue, 0, end-start)
	for _, doc := range matched[start:end] {
		result = append(result, *doc)
	}
	return result, nil
}

// Count returns the number of goods issues matching the filter
func (r *GoodsIssueRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.match(filter))), nil
}

// CountByStatus returns the number of goods issues in a status
func (r *GoodsIssueRepository) CountByStatus(ctx context.Context, status issue.IssueStatus) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, doc := range r.issues {
		if doc.Status == status {
			count++
		}
	}
	return count, nil
}

// Save publishes a document snapshot, replacing any previous version.
// The caller's copy stays untouched apart from the version bump.
func (r *GoodsIssueRepository) Save(ctx context.Context, doc *issue.GoodsIssue) error {
	if doc == nil {
		return shared.NewDomainError("INVALID_INPUT", "goods issue is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.issues[doc.IssueNumber]; exists && existing.ID != doc.ID {
		return shared.NewDomainError("ALREADY_EXISTS",
			fmt.Sprintf("issue number %s is taken by another document", doc.IssueNumber))
	}

	doc.IncrementVersion()
	doc.Touch()
	r.issues[doc.IssueNumber] = doc.Clone()

	return nil
}

// NextIssueNumber generates the next sequential issue number in the form
// <prefix>-<year>-<seq>, scanning existing numbers for the highest sequence
func (r *GoodsIssueRepository) NextIssueNumber(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	year := time.Now().Year()
	yearPrefix := fmt.Sprintf("%s-%d-", r.prefix, year)
	seqPattern := regexp.MustCompile(`(\d+)$`)

	maxSeq := 0
	for number := range r.issues {
		if !strings.HasPrefix(number, yearPrefix) {
			continue
		}
		m := seqPattern.FindString(number[len(yearPrefix):])
		if m == "" {
			continue
		}
		if seq, err := strconv.Atoi(m); err == nil && seq > maxSeq {
			maxSeq = seq
		}
	}

	return fmt.Sprintf("%s%03d", yearPrefix, maxSeq+1), nil
}

// match returns clones of all documents matching the filter.
// Callers must hold at least the read lock.
func (r *GoodsIssueRepository) match(filter shared.Filter) []*issue.GoodsIssue {
	var statusFilter issue.IssueStatus
	if raw, ok := filter.Filters["status"]; ok {
		if s, ok := raw.(string); ok && s != "" {
			statusFilter = issue.IssueStatus(s)
		}
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	matched := make([]*issue.GoodsIssue, 0, len(r.issues))
	for _, doc := range r.issues {
		if statusFilter != "" && doc.Status != statusFilter {
			continue
		}
		if search != "" && !matchesSearch(doc, search) {
			continue
		}
		matched = append(matched, doc.Clone())
	}
	return matched
}

func matchesSearch(doc *issue.GoodsIssue, search string) bool {
	if strings.Contains(strings.ToLower(doc.IssueNumber), search) {
		return true
	}
	if strings.Contains(strings.ToLower(doc.PartnerName), search) {
		return true
	}
	if strings.Contains(strings.ToLower(doc.FromWarehouse), search) {
		return true
	}
	for _, line := range doc.Lines {
		if strings.Contains(strings.ToLower(line.SKU), search) {
			return true
		}
	}
	return false
}

func sortIssues(docs []*issue.GoodsIssue, orderBy, orderDir string) {
	asc := strings.EqualFold(orderDir, "asc")

	less := func(a, b *issue.GoodsIssue) bool {
		switch orderBy {
		case "issue_number":
			return a.IssueNumber < b.IssueNumber
		case "updated_at":
			return a.UpdatedAt.Before(b.UpdatedAt)
		case "expected_date":
			return a.ExpectedDate.Before(b.ExpectedDate)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if asc {
			return less(docs[i], docs[j])
		}
		return less(docs[j], docs[i])
	})
}

// Ensure GoodsIssueRepository implements the domain interface
var _ issue.GoodsIssueRepository = (*GoodsIssueRepository)(nil)
