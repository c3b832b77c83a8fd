package database

import (
	"context"
	"testing"

	"clean-street/internal/logger"

	"github.com/stretchr/testify/assert"
)

func TestNewRedis_InvalidURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not a url", logger.Discard())
	assert.ErrorContains(t, err, "parse redis URL")
}
