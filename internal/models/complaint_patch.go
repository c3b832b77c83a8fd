package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ComplaintPatch is a partial update. Nil fields are left untouched.
type ComplaintPatch struct {
	Title       *string
	Type        *string
	Priority    *Priority
	Address     *string
	Landmark    *string
	Description *string

	Status     *ComplaintStatus
	AssignedTo *primitive.ObjectID
}

func (p ComplaintPatch) IsEmpty() bool {
	return !p.HasContent() && p.Status == nil && p.AssignedTo == nil
}

// HasContent reports whether any owner-editable field is set.
func (p ComplaintPatch) HasContent() bool {
	return p.Title != nil || p.Type != nil || p.Priority != nil ||
		p.Address != nil || p.Landmark != nil || p.Description != nil
}

// ContentOnly keeps the fields an owner may edit.
func (p ComplaintPatch) ContentOnly() ComplaintPatch {
	p.Status = nil
	p.AssignedTo = nil
	return p
}

// WorkflowOnly keeps the fields volunteers and admins may edit.
func (p ComplaintPatch) WorkflowOnly() ComplaintPatch {
	return ComplaintPatch{Status: p.Status, AssignedTo: p.AssignedTo}
}

// Fields returns the document fields set by the patch, keyed by bson name.
func (p ComplaintPatch) Fields(now time.Time) map[string]interface{} {
	fields := map[string]interface{}{"updated_at": now}
	if p.Title != nil {
		fields["title"] = *p.Title
	}
	if p.Type != nil {
		fields["type"] = *p.Type
	}
	if p.Priority != nil {
		fields["priority"] = *p.Priority
	}
	if p.Address != nil {
		fields["address"] = *p.Address
	}
	if p.Landmark != nil {
		fields["landmark"] = *p.Landmark
	}
	if p.Description != nil {
		fields["description"] = *p.Description
	}
	if p.Status != nil {
		fields["status"] = *p.Status
	}
	if p.AssignedTo != nil {
		fields["assigned_to"] = *p.AssignedTo
	}
	return fields
}

// Apply merges the patch into c.
func (p ComplaintPatch) Apply(c *Complaint, now time.Time) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Priority != nil {
		c.Priority = *p.Priority
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.Landmark != nil {
		c.Landmark = *p.Landmark
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.AssignedTo != nil {
		id := *p.AssignedTo
		c.AssignedTo = &id
	}
	c.UpdatedAt = now
}
