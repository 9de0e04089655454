package issue

// IssueStatus represents the status of a goods issue document
type IssueStatus string

const (
	StatusDraft               IssueStatus = "DRAFT"
	StatusPicking             IssueStatus = "PICKING"
	StatusAdjustmentRequested IssueStatus = "ADJUSTMENT_REQUESTED"
	StatusSubmitted           IssueStatus = "SUBMITTED"
	StatusApproved            IssueStatus = "APPROVED"
	StatusCompleted           IssueStatus = "COMPLETED"
	StatusCancelled           IssueStatus = "CANCELLED"
)

// AllStatuses lists every valid issue status
var AllStatuses = []IssueStatus{
	StatusDraft,
	StatusPicking,
	StatusAdjustmentRequested,
	StatusSubmitted,
	StatusApproved,
	StatusCompleted,
	StatusCancelled,
}

// IsValid checks if the status is a valid IssueStatus
func (s IssueStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPicking, StatusAdjustmentRequested,
		StatusSubmitted, StatusApproved, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of IssueStatus
func (s IssueStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s IssueStatus) CanTransitionTo(target IssueStatus) bool {
	switch s {
	case StatusDraft:
		return target == StatusPicking || target == StatusCancelled
	case StatusPicking:
		return target == StatusAdjustmentRequested || target == StatusSubmitted || target == StatusCancelled
	case StatusAdjustmentRequested:
		return target == StatusPicking || target == StatusCancelled
	case StatusSubmitted:
		return target == StatusApproved || target == StatusAdjustmentRequested || target == StatusCancelled
	case StatusApproved:
		return target == StatusCompleted || target == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s IssueStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// AllowsPicking returns true if line picking operations are legal in this status
func (s IssueStatus) AllowsPicking() bool {
	return s == StatusPicking || s == StatusAdjustmentRequested
}

// TrackingType represents the reconciliation discipline for an issue line
type TrackingType string

const (
	TrackingNone   TrackingType = "NONE"
	TrackingSerial TrackingType = "SERIAL"
	TrackingLot    TrackingType = "LOT"
)

// IsValid checks if the tracking type is valid
func (t TrackingType) IsValid() bool {
	switch t {
	case TrackingNone, TrackingSerial, TrackingLot:
		return true
	}
	return false
}

// String returns the string representation of TrackingType
func (t TrackingType) String() string {
	return string(t)
}
