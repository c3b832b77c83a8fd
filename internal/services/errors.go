package services

import (
	"errors"
	"strings"

	"clean-street/internal/apperr"
	"clean-street/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// storeError maps a store failure onto the client facing taxonomy.
func storeError(err error, resource string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(resource)
	}
	return apperr.Internal(err)
}

func parseID(hex, resource string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid " + strings.ToLower(resource) + " ID")
	}
	return id, nil
}
