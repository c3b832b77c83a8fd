// Package workflow decides which complaint mutations an actor may perform.
package workflow

import (
	"fmt"

	"clean-street/internal/apperr"
	"clean-street/internal/models"
)

var (
	ErrInvalidStatus   = apperr.Validation("Invalid status")
	ErrInvalidPriority = apperr.Validation("Invalid priority")
	ErrInvalidAssignee = apperr.Validation("Invalid assignee")
	ErrNoFields        = apperr.Validation("No valid fields to update")
	ErrNotOwner        = apperr.Forbidden("You can only modify your own complaints")
	ErrLocked          = apperr.Forbidden("Complaint can no longer be edited")
	ErrNotPrivileged   = apperr.Forbidden("Only volunteers and admins can manage complaints")
)

// transitions lists the statuses reachable from each status. Privileged
// actors may re-open, close or reject from anywhere, and setting the
// current status again is a no-op rather than an error.
var transitions = map[models.ComplaintStatus][]models.ComplaintStatus{
	models.StatusReceived: {models.StatusReceived, models.StatusInReview, models.StatusResolved, models.StatusRejected},
	models.StatusInReview: {models.StatusReceived, models.StatusInReview, models.StatusResolved, models.StatusRejected},
	models.StatusResolved: {models.StatusReceived, models.StatusInReview, models.StatusResolved, models.StatusRejected},
	models.StatusRejected: {models.StatusReceived, models.StatusInReview, models.StatusResolved, models.StatusRejected},
}

func CanTransition(from, to models.ComplaintStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Plan filters patch down to what actor may change on complaint and
// validates it. The returned patch is safe to persist once any assignee
// it names has been checked to exist.
func Plan(actor *models.User, complaint *models.Complaint, patch models.ComplaintPatch) (models.ComplaintPatch, error) {
	if actor.Role.IsPrivileged() {
		return planPrivileged(complaint, patch.WorkflowOnly())
	}
	return planOwner(actor, complaint, patch.ContentOnly())
}

func planPrivileged(complaint *models.Complaint, patch models.ComplaintPatch) (models.ComplaintPatch, error) {
	if patch.IsEmpty() {
		return patch, ErrNoFields
	}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return patch, ErrInvalidStatus
		}
		if !CanTransition(complaint.Status, *patch.Status) {
			return patch, apperr.Validation(fmt.Sprintf("Cannot move complaint from %s to %s", complaint.Status, *patch.Status))
		}
	}
	return patch, nil
}

func planOwner(actor *models.User, complaint *models.Complaint, patch models.ComplaintPatch) (models.ComplaintPatch, error) {
	if !complaint.IsOwnedBy(actor.ID) {
		return patch, ErrNotOwner
	}
	if patch.IsEmpty() {
		return patch, ErrNoFields
	}
	if !complaint.IsEditable() {
		return patch, ErrLocked
	}
	if patch.Priority != nil && !patch.Priority.IsValid() {
		return patch, ErrInvalidPriority
	}
	return patch, nil
}

// Claim builds the patch that assigns complaint to actor. A freshly
// received complaint moves into review; other statuses are kept.
func Claim(actor *models.User, complaint *models.Complaint) (models.ComplaintPatch, error) {
	if !actor.Role.IsPrivileged() {
		return models.ComplaintPatch{}, ErrNotPrivileged
	}

	assignee := actor.ID
	patch := models.ComplaintPatch{AssignedTo: &assignee}
	if complaint.Status == models.StatusReceived {
		next := models.StatusInReview
		patch.Status = &next
	}
	return planPrivileged(complaint, patch)
}

// NeedsAudit reports whether applying patch must append an admin log entry:
// only admins changing the status to a different value are audited.
func NeedsAudit(actor *models.User, complaint *models.Complaint, patch models.ComplaintPatch) bool {
	return actor.Role == models.RoleAdmin &&
		patch.Status != nil &&
		*patch.Status != complaint.Status
}

func StatusChangeMessage(complaint *models.Complaint, to models.ComplaintStatus) string {
	return fmt.Sprintf("Updated complaint (%s) status from %s to %s", complaint.Title, complaint.Status, to)
}
