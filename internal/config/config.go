package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port           string
	Host           string
	Env            string
	AllowedOrigins []string

	// MongoDB
	MongoURI          string
	DatabaseName      string
	MongoTimeout      int
	MongoTransactions bool

	// JWT
	JWTSecret        string
	JWTAdminSecret   string
	JWTExpiration    int // hours
	BcryptCost       int
	AllowAdminSignup bool

	// Logging
	LogLevel string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RedisURL          string

	// Uploads
	UploadProvider      string // cloudinary, s3 or empty
	UploadFolder        string
	MaxUploadSize       int64
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	S3Bucket            string
	S3Region            string
	S3Endpoint          string
	S3AccessKeyID       string
	S3SecretAccessKey   string
	S3PublicURL         string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	return &Config{
		Port:           getEnv("PORT", "8080"),
		Host:           getEnv("HOST", "0.0.0.0"),
		Env:            getEnv("ENV", "development"),
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName:      getEnv("DATABASE_NAME", "clean_street"),
		MongoTimeout:      getEnvAsInt("MONGO_TIMEOUT", 10),
		MongoTransactions: getEnvAsBool("MONGO_TRANSACTIONS", true),

		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key"),
		JWTAdminSecret:   getEnv("JWT_ADMIN_SECRET", ""),
		JWTExpiration:    getEnvAsInt("JWT_EXPIRATION", 1),
		BcryptCost:       getEnvAsInt("BCRYPT_COST", 10),
		AllowAdminSignup: getEnvAsBool("ALLOW_ADMIN_SIGNUP", true),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		RateLimitEnabled:  getEnvAsBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		RedisURL:          getEnv("REDIS_URL", ""),

		UploadProvider:      strings.ToLower(getEnv("UPLOAD_PROVIDER", "")),
		UploadFolder:        getEnv("UPLOAD_FOLDER", "clean-street"),
		MaxUploadSize:       int64(getEnvAsInt("MAX_UPLOAD_SIZE", 5<<20)),
		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		S3Bucket:            getEnv("S3_BUCKET", ""),
		S3Region:            getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:          getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:       getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:   getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3PublicURL:         getEnv("S3_PUBLIC_URL", ""),
	}
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TokenTTL is the lifetime of issued access tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiration) * time.Hour
}

// QueryTimeout bounds every database round trip.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.MongoTimeout) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
