package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminLog is an append-only audit record of a privileged action.
type AdminLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Action    string             `bson:"action" json:"action"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// RoleChangeAction is the audit line written when an account's role changes.
func RoleChangeAction(name string, from, to UserRole) string {
	return fmt.Sprintf("Updated role of %s from %s to %s", name, from, to)
}

func NewAdminLog(userID primitive.ObjectID, action string) *AdminLog {
	return &AdminLog{
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now(),
	}
}
