// internal/models/complaint.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ComplaintStatus string

const (
	StatusReceived ComplaintStatus = "received"
	StatusInReview ComplaintStatus = "in_review"
	StatusResolved ComplaintStatus = "resolved"
	StatusRejected ComplaintStatus = "rejected"
)

func (s ComplaintStatus) IsValid() bool {
	switch s {
	case StatusReceived, StatusInReview, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// IsOpen reports whether the complaint still needs work.
func (s ComplaintStatus) IsOpen() bool {
	return s == StatusReceived || s == StatusInReview
}

func AllStatuses() []ComplaintStatus {
	return []ComplaintStatus{StatusReceived, StatusInReview, StatusResolved, StatusRejected}
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// NewGeoPoint takes the human order (latitude first) and stores GeoJSON order.
func NewGeoPoint(latitude, longitude float64) GeoPoint {
	return GeoPoint{
		Type:        "Point",
		Coordinates: []float64{longitude, latitude},
	}
}

func (p GeoPoint) Longitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[0]
}

func (p GeoPoint) Latitude() float64 {
	if len(p.Coordinates) < 2 {
		return 0
	}
	return p.Coordinates[1]
}

type Complaint struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Type        string             `bson:"type" json:"type"`
	Priority    Priority           `bson:"priority" json:"priority"`
	Address     string             `bson:"address" json:"address"`
	Landmark    string             `bson:"landmark,omitempty" json:"landmark,omitempty"`
	Description string             `bson:"description" json:"description"`
	Location    GeoPoint           `bson:"location_coords" json:"location_coords"`
	Photo       string             `bson:"photo,omitempty" json:"photo,omitempty"`

	// Ownership and workflow
	UserID     primitive.ObjectID  `bson:"user_id" json:"user_id"`
	AssignedTo *primitive.ObjectID `bson:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	Status     ComplaintStatus     `bson:"status" json:"status"`

	Upvotes   []primitive.ObjectID `bson:"upvotes" json:"upvotes"`
	Downvotes []primitive.ObjectID `bson:"downvotes" json:"downvotes"`
	Comments  []Comment            `bson:"comments" json:"comments"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type Comment struct {
	ID          primitive.ObjectID   `bson:"id" json:"id"`
	ComplaintID primitive.ObjectID   `bson:"complaint_id" json:"complaint_id"`
	UserID      primitive.ObjectID   `bson:"user_id" json:"user_id"`
	Text        string               `bson:"text" json:"text"`
	Image       string               `bson:"image,omitempty" json:"image,omitempty"`
	Likes       []primitive.ObjectID `bson:"likes" json:"likes"`
	Dislikes    []primitive.ObjectID `bson:"dislikes" json:"dislikes"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
}

func (c *Complaint) IsOwnedBy(userID primitive.ObjectID) bool {
	return c.UserID == userID
}

// IsEditable reports whether the owner may still change the content.
func (c *Complaint) IsEditable() bool {
	return c.Status == StatusReceived
}

func (c *Complaint) IsAssignedTo(userID primitive.ObjectID) bool {
	return c.AssignedTo != nil && *c.AssignedTo == userID
}

func (c *Complaint) FindComment(commentID primitive.ObjectID) *Comment {
	for i := range c.Comments {
		if c.Comments[i].ID == commentID {
			return &c.Comments[i]
		}
	}
	return nil
}

// Vote is a user's stance on a complaint (up/down) or a comment (like/dislike).
type Vote int

const (
	VoteNone Vote = iota
	VoteUp
	VoteDown
)

// Toggle returns the stance after the user presses requested while holding v.
// Pressing the same button twice clears it.
func (v Vote) Toggle(requested Vote) Vote {
	if v == requested {
		return VoteNone
	}
	return requested
}

func (c *Complaint) VoteOf(userID primitive.ObjectID) Vote {
	return voteOf(userID, c.Upvotes, c.Downvotes)
}

func (c *Complaint) ApplyVote(userID primitive.ObjectID, v Vote) {
	c.Upvotes, c.Downvotes = applyVote(userID, v, c.Upvotes, c.Downvotes)
}

func (c *Comment) ReactionOf(userID primitive.ObjectID) Vote {
	return voteOf(userID, c.Likes, c.Dislikes)
}

func (c *Comment) ApplyReaction(userID primitive.ObjectID, v Vote) {
	c.Likes, c.Dislikes = applyVote(userID, v, c.Likes, c.Dislikes)
}

func voteOf(userID primitive.ObjectID, up, down []primitive.ObjectID) Vote {
	if containsID(up, userID) {
		return VoteUp
	}
	if containsID(down, userID) {
		return VoteDown
	}
	return VoteNone
}

func applyVote(userID primitive.ObjectID, v Vote, up, down []primitive.ObjectID) ([]primitive.ObjectID, []primitive.ObjectID) {
	up = removeID(up, userID)
	down = removeID(down, userID)
	switch v {
	case VoteUp:
		up = append(up, userID)
	case VoteDown:
		down = append(down, userID)
	}
	return up, down
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
