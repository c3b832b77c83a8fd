package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	Role         UserRole           `bson:"role" json:"role"`

	// Free text, e.g. the neighbourhood the user reports from
	Location     string `bson:"location" json:"location"`
	ProfilePhoto string `bson:"profile_photo,omitempty" json:"profile_photo,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Sanitized returns a copy without credentials.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
