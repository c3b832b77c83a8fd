package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_EXPIRATION", "")
	t.Setenv("MONGO_TRANSACTIONS", "")
	t.Setenv("UPLOAD_PROVIDER", "")
	t.Setenv("ALLOW_ADMIN_SIGNUP", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 1, cfg.JWTExpiration)
	assert.Equal(t, time.Hour, cfg.TokenTTL())
	assert.True(t, cfg.MongoTransactions)
	assert.Empty(t, cfg.UploadProvider)
	assert.True(t, cfg.AllowAdminSignup)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("JWT_EXPIRATION", "3")
	t.Setenv("MONGO_TRANSACTIONS", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("UPLOAD_PROVIDER", "S3")
	t.Setenv("ALLOW_ADMIN_SIGNUP", "false")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 3*time.Hour, cfg.TokenTTL())
	assert.False(t, cfg.MongoTransactions)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, "s3", cfg.UploadProvider)
	assert.False(t, cfg.AllowAdminSignup)
}

func TestGetEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	t.Setenv("SOME_BOOL", "maybe")
	t.Setenv("SOME_DURATION", "soon")
	t.Setenv("SOME_SLICE", " , ")

	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
	assert.True(t, getEnvAsBool("SOME_BOOL", true))
	assert.Equal(t, time.Second, getEnvAsDuration("SOME_DURATION", time.Second))
	assert.Equal(t, []string{"x"}, getEnvAsSlice("SOME_SLICE", []string{"x"}))
}
