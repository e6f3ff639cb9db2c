package models

// Status is the externally visible expense status.
type Status string

// Expense statuses.
const (
	StatusDraft          Status = "draft"
	StatusPending        Status = "pending"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusPaymentProceed Status = "payment_proceed"
	StatusDeclined       Status = "declined"
)

// AllStatuses lists every status in workflow order.
var AllStatuses = []Status{
	StatusDraft,
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusPaymentProceed,
	StatusDeclined,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further approver action is accepted.
// Approved is terminal except for the admin payment edge.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusPaymentProceed, StatusDeclined:
		return true
	}
	return false
}

// ApprovalPhase distinguishes the states the status string conflates.
type ApprovalPhase string

// Approval phases.
const (
	PhaseDraft            ApprovalPhase = "draft"
	PhaseAwaitingApprover ApprovalPhase = "awaiting_approver"
	PhaseStepApproved     ApprovalPhase = "step_approved"
	PhaseFullyApproved    ApprovalPhase = "fully_approved"
	PhaseRejected         ApprovalPhase = "rejected"
	PhasePaymentProceed   ApprovalPhase = "payment_proceed"
	PhaseDeclined         ApprovalPhase = "declined"
)

// ApprovalState is the tagged workflow state derived from status and cursor.
// NextIndex is meaningful for PhaseAwaitingApprover and PhaseStepApproved.
type ApprovalState struct {
	Phase     ApprovalPhase `json:"phase"`
	NextIndex int           `json:"nextIndex"`
}

// AwaitsApprover reports whether some approver still has to act.
func (s ApprovalState) AwaitsApprover() bool {
	return s.Phase == PhaseAwaitingApprover || s.Phase == PhaseStepApproved
}

// ApprovalState derives the workflow state of the expense.
// An approved expense whose cursor has not reached the end of the sequence
// is an intermediate step approval, not a final one.
func (e *Expense) ApprovalState() ApprovalState {
	switch e.Status {
	case StatusDraft:
		return ApprovalState{Phase: PhaseDraft}
	case StatusPending:
		return ApprovalState{Phase: PhaseAwaitingApprover, NextIndex: e.CurrentApprovalStep}
	case StatusApproved:
		if e.CurrentApprovalStep < len(e.ApprovalSequence) {
			return ApprovalState{Phase: PhaseStepApproved, NextIndex: e.CurrentApprovalStep}
		}
		return ApprovalState{Phase: PhaseFullyApproved, NextIndex: len(e.ApprovalSequence)}
	case StatusRejected:
		return ApprovalState{Phase: PhaseRejected, NextIndex: e.CurrentApprovalStep}
	case StatusPaymentProceed:
		return ApprovalState{Phase: PhasePaymentProceed, NextIndex: e.CurrentApprovalStep}
	case StatusDeclined:
		return ApprovalState{Phase: PhaseDeclined, NextIndex: e.CurrentApprovalStep}
	}
	return ApprovalState{Phase: ApprovalPhase(e.Status)}
}
