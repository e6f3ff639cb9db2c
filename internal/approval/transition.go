package approval

import (
	"slices"

	"github.com/google/uuid"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
	"gitlab.com/yelinaung/expense-approval/internal/models"
)

// Actor is the authenticated user requesting a transition.
type Actor struct {
	ID        uuid.UUID
	CompanyID uuid.UUID
	Role      models.Role
}

// Grant records which authorization rule admitted an actor.
type Grant string

// Authorization rules in priority order.
const (
	GrantCurrentApprover Grant = "current_approver"
	GrantManager         Grant = "employee_manager"
	GrantAdmin           Grant = "admin"
)

// Outcome is the result of applying an approver action.
type Outcome struct {
	Expense  models.Expense
	Grant    Grant
	Repaired bool
}

// ParseAction validates a requested approver action.
func ParseAction(requested string) (models.Status, error) {
	switch s := models.Status(requested); s {
	case models.StatusApproved, models.StatusRejected, models.StatusPaymentProceed, models.StatusDeclined:
		return s, nil
	}
	return "", apperror.New(apperror.ValidationError, "Invalid status action")
}

// ApplySubmission moves a draft onto the given sequence. An empty sequence
// approves the expense outright.
func ApplySubmission(e models.Expense, sequence []uuid.UUID) (models.Expense, error) {
	if e.Status != models.StatusDraft {
		return e, apperror.New(apperror.InvalidTransition, "Only draft expenses can be submitted")
	}

	e.ApprovalSequence = Dedupe(sequence)
	e.CurrentApprovalStep = 0
	if len(e.ApprovalSequence) == 0 {
		e.Status = models.StatusApproved
	} else {
		e.Status = models.StatusPending
	}
	return e, nil
}

// ApplyAction authorizes actor and applies an approver action to e.
// managerID is the submitting employee's direct manager, if any.
// The input is not modified.
func ApplyAction(e models.Expense, actor Actor, action models.Status, managerID *uuid.UUID) (Outcome, error) {
	if err := checkSource(&e, action); err != nil {
		return Outcome{}, err
	}

	e.ApprovalSequence = slices.Clone(e.ApprovalSequence)
	grant, repaired, ok := authorize(&e, actor, action, managerID)
	if !ok {
		return Outcome{}, apperror.New(apperror.Unauthorized, "You are not the current approver")
	}

	seqLen := len(e.ApprovalSequence)
	switch action {
	case models.StatusRejected, models.StatusDeclined:
		e.Status = action
	case models.StatusPaymentProceed:
		e.Status = models.StatusPaymentProceed
		e.CurrentApprovalStep = min(e.CurrentApprovalStep+1, seqLen)
	case models.StatusApproved:
		e.Status = models.StatusApproved
		if e.CurrentApprovalStep >= seqLen-1 {
			e.CurrentApprovalStep = seqLen
		} else {
			e.CurrentApprovalStep++
		}
	}

	return Outcome{Expense: e, Grant: grant, Repaired: repaired}, nil
}

// checkSource rejects actions that are not legal from the current state.
func checkSource(e *models.Expense, action models.Status) error {
	state := e.ApprovalState()
	switch action {
	case models.StatusApproved, models.StatusRejected:
		if !state.AwaitsApprover() {
			return apperror.Newf(apperror.InvalidTransition, "Expense is %s and awaits no approver", e.Status)
		}
	case models.StatusPaymentProceed:
		if e.Status != models.StatusApproved {
			return apperror.New(apperror.InvalidTransition, "Only approved expenses can proceed to payment")
		}
	case models.StatusDeclined:
		if e.Status != models.StatusPending && e.Status != models.StatusApproved {
			return apperror.Newf(apperror.InvalidTransition, "Expense is %s and cannot be declined", e.Status)
		}
	}
	return nil
}

// authorize resolves the first matching rule. The manager rule repairs an
// empty sequence in place so later steps see a consistent chain.
func authorize(e *models.Expense, actor Actor, action models.Status, managerID *uuid.UUID) (Grant, bool, bool) {
	adminOnly := action == models.StatusPaymentProceed || action == models.StatusDeclined
	if adminOnly && actor.Role != models.RoleAdmin {
		return "", false, false
	}

	if current, ok := e.CurrentApprover(); ok && current == actor.ID {
		return GrantCurrentApprover, false, true
	}

	if managerID != nil && *managerID != uuid.Nil && *managerID == actor.ID &&
		(len(e.ApprovalSequence) == 0 || e.CurrentApprovalStep == 0) {
		repaired := false
		if len(e.ApprovalSequence) == 0 {
			e.ApprovalSequence = []uuid.UUID{*managerID}
			e.CurrentApprovalStep = 0
			repaired = true
		}
		return GrantManager, repaired, true
	}

	if adminOnly {
		return GrantAdmin, false, true
	}
	return "", false, false
}
