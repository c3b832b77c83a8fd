package models_test

import (
	"testing"
	"time"

	"clean-street/internal/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewGeoPoint_StoresLongitudeFirst(t *testing.T) {
	p := models.NewGeoPoint(12.9, 77.6)

	assert.Equal(t, "Point", p.Type)
	assert.Equal(t, []float64{77.6, 12.9}, p.Coordinates)
	assert.Equal(t, 12.9, p.Latitude())
	assert.Equal(t, 77.6, p.Longitude())
}

func TestGeoPoint_EmptyCoordinates(t *testing.T) {
	var p models.GeoPoint

	assert.Zero(t, p.Latitude())
	assert.Zero(t, p.Longitude())
}

func TestComplaintStatus_IsValid(t *testing.T) {
	for _, s := range models.AllStatuses() {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, models.ComplaintStatus("closed").IsValid())
	assert.False(t, models.ComplaintStatus("").IsValid())
	assert.True(t, models.StatusInReview.IsOpen())
	assert.False(t, models.StatusResolved.IsOpen())
}

func TestPriority_IsValid(t *testing.T) {
	assert.True(t, models.PriorityHigh.IsValid())
	assert.False(t, models.Priority("high").IsValid())
}

func TestComplaint_VoteToggling(t *testing.T) {
	user := primitive.NewObjectID()
	other := primitive.NewObjectID()
	c := &models.Complaint{Upvotes: []primitive.ObjectID{other}}

	next := c.VoteOf(user).Toggle(models.VoteUp)
	c.ApplyVote(user, next)
	assert.Equal(t, models.VoteUp, c.VoteOf(user))
	assert.Len(t, c.Upvotes, 2)

	// switching sides removes the upvote
	next = c.VoteOf(user).Toggle(models.VoteDown)
	c.ApplyVote(user, next)
	assert.Equal(t, models.VoteDown, c.VoteOf(user))
	assert.Equal(t, []primitive.ObjectID{other}, c.Upvotes)
	assert.Equal(t, []primitive.ObjectID{user}, c.Downvotes)

	// pressing the same button again clears it
	next = c.VoteOf(user).Toggle(models.VoteDown)
	c.ApplyVote(user, next)
	assert.Equal(t, models.VoteNone, c.VoteOf(user))
	assert.Empty(t, c.Downvotes)
}

func TestComment_Reactions(t *testing.T) {
	user := primitive.NewObjectID()
	cm := &models.Comment{}

	cm.ApplyReaction(user, cm.ReactionOf(user).Toggle(models.VoteDown))
	assert.Equal(t, []primitive.ObjectID{user}, cm.Dislikes)

	cm.ApplyReaction(user, cm.ReactionOf(user).Toggle(models.VoteUp))
	assert.Equal(t, []primitive.ObjectID{user}, cm.Likes)
	assert.Empty(t, cm.Dislikes)
}

func TestComplaintPatch_Filters(t *testing.T) {
	title := "New title"
	status := models.StatusResolved
	assignee := primitive.NewObjectID()
	p := models.ComplaintPatch{Title: &title, Status: &status, AssignedTo: &assignee}

	content := p.ContentOnly()
	assert.True(t, content.HasContent())
	assert.Nil(t, content.Status)
	assert.Nil(t, content.AssignedTo)

	workflow := p.WorkflowOnly()
	assert.False(t, workflow.HasContent())
	assert.Equal(t, &status, workflow.Status)
	assert.False(t, workflow.IsEmpty())

	assert.True(t, models.ComplaintPatch{}.IsEmpty())
}

func TestComplaintPatch_ApplyAndFields(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	desc := "Bigger hole now"
	priority := models.PriorityHigh
	p := models.ComplaintPatch{Description: &desc, Priority: &priority}
	c := &models.Complaint{Title: "Pothole", Description: "hole", Priority: models.PriorityLow}

	p.Apply(c, now)

	assert.Equal(t, "Pothole", c.Title)
	assert.Equal(t, desc, c.Description)
	assert.Equal(t, models.PriorityHigh, c.Priority)
	assert.Equal(t, now, c.UpdatedAt)

	fields := p.Fields(now)
	assert.Equal(t, map[string]interface{}{
		"description": desc,
		"priority":    models.PriorityHigh,
		"updated_at":  now,
	}, fields)
}
