package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Join policies for sessions. Open lets any authenticated non-host join;
// closed rejects every join attempt.
const (
	JoinPolicyOpen   = "open"
	JoinPolicyClosed = "closed"
)

type Config struct {
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	HTTPPort      string

	IdentityJWTSecret string
	WebhookSecret     string

	VideoAPIURL     string
	ChatAPIURL      string
	StreamAPIKey    string
	StreamAPISecret string

	SessionJoinPolicy string

	ReconcileInterval time.Duration
	ReconcileStaleAge time.Duration
}

func Load() *Config {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	return &Config{
		MongoURI:          getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:     getEnv("MONGO_DB", "moduo"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:          getEnv("PORT", "8080"),
		IdentityJWTSecret: getEnv("IDENTITY_JWT_SECRET", "dev-secret-change-me"),
		WebhookSecret:     getEnv("IDENTITY_WEBHOOK_SECRET", ""),
		VideoAPIURL:       getEnv("STREAM_VIDEO_URL", "https://video.stream-io-api.com"),
		ChatAPIURL:        getEnv("STREAM_CHAT_URL", "https://chat.stream-io-api.com"),
		StreamAPIKey:      getEnv("STREAM_ACCESS_KEY", ""),
		StreamAPISecret:   getEnv("STREAM_ACCESS_SECRET", ""),
		SessionJoinPolicy: getEnv("SESSION_JOIN_POLICY", JoinPolicyOpen),
		ReconcileInterval: getDuration("RECONCILE_INTERVAL", time.Minute),
		ReconcileStaleAge: getDuration("RECONCILE_STALE_AGE", 2*time.Minute),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
