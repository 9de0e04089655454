package issue

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wms/backend/internal/domain/shared"
)

// StatusChange is a single entry in a document's append-only status history
type StatusChange struct {
	Status    IssueStatus
	ChangedAt time.Time
	ChangedBy string
	Note      string
}

// LotAllocation assigns a quantity from a specific lot to an issue line
type LotAllocation struct {
	LotNumber string
	Quantity  decimal.Decimal
	// AvailableQty is the lot's known available stock at allocation time,
	// when the caller supplied it. Nil means no availability check was made.
	AvailableQty *decimal.Decimal
}

// LineInput carries the fields needed to build a new issue line
type LineInput struct {
	SKU          string
	ProductName  string
	UOM          string
	PlannedQty   decimal.Decimal
	TrackingType TrackingType
}

// GoodsIssueLine represents a single line in a goods issue document.
// PickedQty is derived: serial count for SERIAL lines, allocation sum for
// LOT lines, the last explicitly set value for NONE lines. Every mutation
// recomputes it.
type GoodsIssueLine struct {
	shared.BaseEntity
	SKU          string
	ProductName  string
	UOM          string
	PlannedQty   decimal.Decimal
	TrackingType TrackingType
	PickedQty    decimal.Decimal
	Serials      []string
	Allocations  []LotAllocation
}

// NewGoodsIssueLine creates a new issue line with zero picked progress
func NewGoodsIssueLine(input LineInput) (*GoodsIssueLine, error) {
	if strings.TrimSpace(input.SKU) == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "Line SKU cannot be empty")
	}
	if strings.TrimSpace(input.ProductName) == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Line product name cannot be empty")
	}
	if strings.TrimSpace(input.UOM) == "" {
		return nil, shared.NewDomainError("INVALID_UOM", "Line unit of measure cannot be empty")
	}
	if input.PlannedQty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Planned quantity must be positive")
	}
	if !input.TrackingType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRACKING_TYPE",
			fmt.Sprintf("Unknown tracking type %q", string(input.TrackingType)))
	}

	return &GoodsIssueLine{
		BaseEntity:   shared.NewBaseEntity(),
		SKU:          input.SKU,
		ProductName:  input.ProductName,
		UOM:          input.UOM,
		PlannedQty:   input.PlannedQty,
		TrackingType: input.TrackingType,
		PickedQty:    decimal.Zero,
		Serials:      make([]string, 0),
		Allocations:  make([]LotAllocation, 0),
	}, nil
}

// HasSerial returns true if the serial is already captured on this line
func (l *GoodsIssueLine) HasSerial(serial string) bool {
	for _, s := range l.Serials {
		if s == serial {
			return true
		}
	}
	return false
}

// AllocationFor returns the allocation for a lot number, or nil
func (l *GoodsIssueLine) AllocationFor(lotNumber string) *LotAllocation {
	for idx := range l.Allocations {
		if l.Allocations[idx].LotNumber == lotNumber {
			return &l.Allocations[idx]
		}
	}
	return nil
}

// AllocatedQty returns the sum of all lot allocation quantities
func (l *GoodsIssueLine) AllocatedQty() decimal.Decimal {
	total := decimal.Zero
	for _, a := range l.Allocations {
		total = total.Add(a.Quantity)
	}
	return total
}

// RemainingQty returns planned minus picked quantity
func (l *GoodsIssueLine) RemainingQty() decimal.Decimal {
	return l.PlannedQty.Sub(l.PickedQty)
}

// IsFulfilled returns true once picked quantity has reached the plan
func (l *GoodsIssueLine) IsFulfilled() bool {
	return l.PickedQty.GreaterThanOrEqual(l.PlannedQty)
}

func (l *GoodsIssueLine) addSerial(serial string) error {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return shared.NewDomainError("INVALID_SERIAL", "Serial number cannot be blank")
	}
	if l.HasSerial(serial) {
		return shared.NewDomainError("DUPLICATE_SERIAL",
			fmt.Sprintf("Serial %q is already captured on this line", serial))
	}
	next := decimal.NewFromInt(int64(len(l.Serials) + 1))
	if next.GreaterThan(l.PlannedQty) {
		return shared.NewDomainError("PICK_LIMIT_EXCEEDED",
			fmt.Sprintf("Cannot capture serial %q: planned quantity %s already reached", serial, l.PlannedQty.String()))
	}

	l.Serials = append(l.Serials, serial)
	l.recomputePicked()
	return nil
}

func (l *GoodsIssueLine) removeSerial(serial string) {
	serial = strings.TrimSpace(serial)
	for idx, s := range l.Serials {
		if s == serial {
			l.Serials = append(l.Serials[:idx], l.Serials[idx+1:]...)
			break
		}
	}
	l.recomputePicked()
}

func (l *GoodsIssueLine) upsertAllocation(lotNumber string, quantity decimal.Decimal, availableQty *decimal.Decimal) error {
	lotNumber = strings.TrimSpace(lotNumber)
	if lotNumber == "" {
		return shared.NewDomainError("INVALID_LOT", "Lot number cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Allocation quantity must be positive")
	}
	if availableQty != nil && quantity.GreaterThan(*availableQty) {
		return shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Allocation %s exceeds available stock %s for lot %q",
				quantity.String(), availableQty.String(), lotNumber))
	}

	// Sum of all other lots plus the new quantity must stay within plan
	others := decimal.Zero
	for _, a := range l.Allocations {
		if a.LotNumber != lotNumber {
			others = others.Add(a.Quantity)
		}
	}
	if others.Add(quantity).GreaterThan(l.PlannedQty) {
		return shared.NewDomainError("PICK_LIMIT_EXCEEDED",
			fmt.Sprintf("Allocating %s from lot %q would exceed planned quantity %s",
				quantity.String(), lotNumber, l.PlannedQty.String()))
	}

	if existing := l.AllocationFor(lotNumber); existing != nil {
		existing.Quantity = quantity
		existing.AvailableQty = availableQty
	} else {
		l.Allocations = append(l.Allocations, LotAllocation{
			LotNumber:    lotNumber,
			Quantity:     quantity,
			AvailableQty: availableQty,
		})
	}
	l.recomputePicked()
	return nil
}

func (l *GoodsIssueLine) removeAllocation(lotNumber string) {
	lotNumber = strings.TrimSpace(lotNumber)
	for idx, a := range l.Allocations {
		if a.LotNumber == lotNumber {
			l.Allocations = append(l.Allocations[:idx], l.Allocations[idx+1:]...)
			break
		}
	}
	l.recomputePicked()
}

func (l *GoodsIssueLine) setPickedQty(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Picked quantity cannot be negative")
	}
	if quantity.GreaterThan(l.PlannedQty) {
		return shared.NewDomainError("PICK_LIMIT_EXCEEDED",
			fmt.Sprintf("Picked quantity %s exceeds planned quantity %s",
				quantity.String(), l.PlannedQty.String()))
	}
	l.PickedQty = quantity
	l.Touch()
	return nil
}

// recomputePicked rederives PickedQty for tracked lines so the cached value
// can never drift from the serials/allocations it is derived from
func (l *GoodsIssueLine) recomputePicked() {
	switch l.TrackingType {
	case TrackingSerial:
		l.PickedQty = decimal.NewFromInt(int64(len(l.Serials)))
	case TrackingLot:
		l.PickedQty = l.AllocatedQty()
	}
	l.Touch()
}

func (l *GoodsIssueLine) clone() GoodsIssueLine {
	cp := *l
	cp.Serials = append(make([]string, 0, len(l.Serials)), l.Serials...)
	cp.Allocations = make([]LotAllocation, len(l.Allocations))
	for idx, a := range l.Allocations {
		cp.Allocations[idx] = a
		if a.AvailableQty != nil {
			avail := *a.AvailableQty
			cp.Allocations[idx].AvailableQty = &avail
		}
	}
	return cp
}

// HeaderInput carries the mutable header fields of a goods issue document
type HeaderInput struct {
	IssueType     string
	PartnerName   string
	FromWarehouse string
	ToWarehouse   string
	ExpectedDate  time.Time
}

// GoodsIssue represents a goods issue document aggregate root.
// It owns the status workflow, the append-only status history, and all
// line-level picking reconciliation.
type GoodsIssue struct {
	shared.BaseAggregateRoot
	IssueNumber   string
	IssueType     string
	PartnerName   string
	FromWarehouse string
	ToWarehouse   string
	ExpectedDate  time.Time
	Status        IssueStatus
	CreatedBy     string
	StatusHistory []StatusChange
	Lines         []GoodsIssueLine
}

// NewGoodsIssue creates a new goods issue document in DRAFT status.
// The issue number is assigned by the caller (repository-generated) and is
// immutable afterwards. The status history is seeded with one DRAFT entry.
func NewGoodsIssue(issueNumber string, header HeaderInput, lines []LineInput, createdBy string) (*GoodsIssue, error) {
	if issueNumber == "" {
		return nil, shared.NewDomainError("INVALID_ISSUE_NUMBER", "Issue number cannot be empty")
	}
	if err := validateHeader(header); err != nil {
		return nil, err
	}
	built, err := buildLines(lines)
	if err != nil {
		return nil, err
	}
	if createdBy == "" {
		createdBy = DefaultActor
	}

	doc := &GoodsIssue{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		IssueNumber:       issueNumber,
		IssueType:         header.IssueType,
		PartnerName:       header.PartnerName,
		FromWarehouse:     header.FromWarehouse,
		ToWarehouse:       header.ToWarehouse,
		ExpectedDate:      header.ExpectedDate,
		Status:            StatusDraft,
		CreatedBy:         createdBy,
		Lines:             built,
	}
	doc.StatusHistory = []StatusChange{{
		Status:    StatusDraft,
		ChangedAt: doc.CreatedAt,
		ChangedBy: createdBy,
	}}

	doc.AddDomainEvent(NewGoodsIssueCreatedEvent(doc))

	return doc, nil
}

// DefaultActor is attributed when a caller does not name one
const DefaultActor = "System User"

func validateHeader(header HeaderInput) error {
	if strings.TrimSpace(header.IssueType) == "" {
		return shared.NewDomainError("INVALID_ISSUE_TYPE", "Issue type cannot be empty")
	}
	if strings.TrimSpace(header.FromWarehouse) == "" {
		return shared.NewDomainError("INVALID_WAREHOUSE", "Source warehouse cannot be empty")
	}
	if header.ExpectedDate.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Expected date is required")
	}
	return nil
}

func buildLines(inputs []LineInput) ([]GoodsIssueLine, error) {
	if len(inputs) == 0 {
		return nil, shared.NewDomainError("NO_LINES", "A goods issue requires at least one line")
	}
	lines := make([]GoodsIssueLine, 0, len(inputs))
	for _, input := range inputs {
		line, err := NewGoodsIssueLine(input)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *line)
	}
	return lines, nil
}

// CanModify returns true if header and lines can be edited (DRAFT only)
func (g *GoodsIssue) CanModify() bool {
	return g.Status == StatusDraft
}

// UpdateDraft replaces the header fields and the entire line list.
// All picking progress is reset. Issue number, creation metadata, and
// status history are untouched. Legal only in DRAFT status.
func (g *GoodsIssue) UpdateDraft(header HeaderInput, lines []LineInput) error {
	if !g.CanModify() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot edit a goods issue in %s status", g.Status))
	}
	if err := validateHeader(header); err != nil {
		return err
	}
	built, err := buildLines(lines)
	if err != nil {
		return err
	}

	g.IssueType = header.IssueType
	g.PartnerName = header.PartnerName
	g.FromWarehouse = header.FromWarehouse
	g.ToWarehouse = header.ToWarehouse
	g.ExpectedDate = header.ExpectedDate
	g.Lines = built
	g.Touch()

	return nil
}

// TransitionTo moves the document to the target status.
// Transitioning to the current status is a no-op success and appends no
// history. Every actual transition appends exactly one history entry.
func (g *GoodsIssue) TransitionTo(target IssueStatus, actor, note string) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Unknown status %q", string(target)))
	}
	if target == g.Status {
		return nil
	}
	if !g.Status.CanTransitionTo(target) {
		return shared.NewDomainError("ILLEGAL_TRANSITION",
			fmt.Sprintf("Cannot transition a goods issue from %s to %s", g.Status, target))
	}
	if actor == "" {
		actor = DefaultActor
	}

	from := g.Status
	now := time.Now()
	g.Status = target
	g.UpdatedAt = now
	g.StatusHistory = append(g.StatusHistory, StatusChange{
		Status:    target,
		ChangedAt: now,
		ChangedBy: actor,
		Note:      note,
	})

	g.AddDomainEvent(NewGoodsIssueStatusChangedEvent(g, from, target, actor, note))

	return nil
}

// AddSerial captures a serial on a SERIAL line.
// Legal only while the document is in a picking status.
func (g *GoodsIssue) AddSerial(lineID uuid.UUID, serial string) error {
	line, err := g.lineForPicking(lineID, TrackingSerial)
	if err != nil {
		return err
	}
	if err := line.addSerial(serial); err != nil {
		return err
	}
	g.touchLine(line)
	return nil
}

// RemoveSerial removes a captured serial from a SERIAL line.
// Removal is cleanup and stays legal in any document status; removing a
// serial that is not present succeeds without effect.
func (g *GoodsIssue) RemoveSerial(lineID uuid.UUID, serial string) error {
	line, err := g.lineWithTracking(lineID, TrackingSerial)
	if err != nil {
		return err
	}
	line.removeSerial(serial)
	g.touchLine(line)
	return nil
}

// UpsertLotAllocation creates or overwrites the allocation for a lot on a
// LOT line. Legal only while the document is in a picking status.
func (g *GoodsIssue) UpsertLotAllocation(lineID uuid.UUID, lotNumber string, quantity decimal.Decimal, availableQty *decimal.Decimal) error {
	line, err := g.lineForPicking(lineID, TrackingLot)
	if err != nil {
		return err
	}
	if err := line.upsertAllocation(lotNumber, quantity, availableQty); err != nil {
		return err
	}
	g.touchLine(line)
	return nil
}

// RemoveLotAllocation removes the allocation for a lot from a LOT line.
// Like RemoveSerial it stays legal in any document status.
func (g *GoodsIssue) RemoveLotAllocation(lineID uuid.UUID, lotNumber string) error {
	line, err := g.lineWithTracking(lineID, TrackingLot)
	if err != nil {
		return err
	}
	line.removeAllocation(lotNumber)
	g.touchLine(line)
	return nil
}

// SetLinePickedQuantity sets the picked quantity of an untracked line.
// Legal only while the document is in a picking status.
func (g *GoodsIssue) SetLinePickedQuantity(lineID uuid.UUID, quantity decimal.Decimal) error {
	line, err := g.lineForPicking(lineID, TrackingNone)
	if err != nil {
		return err
	}
	if err := line.setPickedQty(quantity); err != nil {
		return err
	}
	g.touchLine(line)
	return nil
}

// GetLine returns a line by its ID, or nil
func (g *GoodsIssue) GetLine(lineID uuid.UUID) *GoodsIssueLine {
	for idx := range g.Lines {
		if g.Lines[idx].ID == lineID {
			return &g.Lines[idx]
		}
	}
	return nil
}

// LineCount returns the number of lines in the document
func (g *GoodsIssue) LineCount() int {
	return len(g.Lines)
}

// TotalPlannedQty returns the sum of all planned quantities
func (g *GoodsIssue) TotalPlannedQty() decimal.Decimal {
	total := decimal.Zero
	for _, line := range g.Lines {
		total = total.Add(line.PlannedQty)
	}
	return total
}

// TotalPickedQty returns the sum of all picked quantities
func (g *GoodsIssue) TotalPickedQty() decimal.Decimal {
	total := decimal.Zero
	for _, line := range g.Lines {
		total = total.Add(line.PickedQty)
	}
	return total
}

// IsFullyPicked returns true if every line has reached its plan
func (g *GoodsIssue) IsFullyPicked() bool {
	for _, line := range g.Lines {
		if !line.IsFulfilled() {
			return false
		}
	}
	return true
}

// IsTerminal returns true if the document is completed or cancelled
func (g *GoodsIssue) IsTerminal() bool {
	return g.Status.IsTerminal()
}

// Clone returns a deep copy of the document. Pending domain events are not
// carried over; the clone starts with an empty event list.
func (g *GoodsIssue) Clone() *GoodsIssue {
	cp := &GoodsIssue{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: g.BaseEntity,
			Version:    g.Version,
		},
		IssueNumber:   g.IssueNumber,
		IssueType:     g.IssueType,
		PartnerName:   g.PartnerName,
		FromWarehouse: g.FromWarehouse,
		ToWarehouse:   g.ToWarehouse,
		ExpectedDate:  g.ExpectedDate,
		Status:        g.Status,
		CreatedBy:     g.CreatedBy,
	}
	cp.StatusHistory = append(make([]StatusChange, 0, len(g.StatusHistory)), g.StatusHistory...)
	cp.Lines = make([]GoodsIssueLine, len(g.Lines))
	for idx := range g.Lines {
		cp.Lines[idx] = g.Lines[idx].clone()
	}
	return cp
}

func (g *GoodsIssue) lineForPicking(lineID uuid.UUID, tracking TrackingType) (*GoodsIssueLine, error) {
	if !g.Status.AllowsPicking() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Picking operations are not allowed in %s status", g.Status))
	}
	return g.lineWithTracking(lineID, tracking)
}

func (g *GoodsIssue) lineWithTracking(lineID uuid.UUID, tracking TrackingType) (*GoodsIssueLine, error) {
	line := g.GetLine(lineID)
	if line == nil {
		return nil, shared.NewDomainError("LINE_NOT_FOUND", "Issue line not found")
	}
	if line.TrackingType != tracking {
		return nil, shared.NewDomainError("TRACKING_MISMATCH",
			fmt.Sprintf("Line is tracked as %s, not %s", line.TrackingType, tracking))
	}
	return line, nil
}

func (g *GoodsIssue) touchLine(line *GoodsIssueLine) {
	now := time.Now()
	line.UpdatedAt = now
	g.UpdatedAt = now
	g.AddDomainEvent(NewGoodsIssueLinePickedEvent(g, line))
}
