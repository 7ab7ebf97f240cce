// File: /config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Like policies accepted in LIKE_POLICY.
const (
	LikePolicyObserved = "observed"
	LikePolicyAtomic   = "atomic"
	LikePolicyUnique   = "unique"
)

// Comment author modes accepted in COMMENT_AUTHOR.
const (
	CommentAuthorPlaceholder = "placeholder"
	CommentAuthorProfile     = "profile"
)

type Config struct {
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	JWTSecret      string
	PublicBaseURL  string

	// Blob storage
	BlobBackend    string
	BlobDir        string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	// Behaviour switches
	LikePolicy          string
	CommentAuthor       string
	OrphanAuditInterval time.Duration
	RateLimitPerMinute  int

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

func Load() *Config {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "2525"))
	rateLimit, _ := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "60"))
	minioSSL, _ := strconv.ParseBool(getEnv("MINIO_USE_SSL", "false"))
	auditInterval, err := time.ParseDuration(getEnv("ORPHAN_AUDIT_INTERVAL", "0"))
	if err != nil {
		log.Printf("Warning: invalid ORPHAN_AUDIT_INTERVAL, audit disabled: %v", err)
		auditInterval = 0
	}

	port := getEnv("PORT", "8080")
	return &Config{
		Port:           port,
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:    getEnv("DATABASE_URL", "minisocial.db"),
		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key"),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),

		BlobBackend:    strings.ToLower(getEnv("BLOB_BACKEND", "local")),
		BlobDir:        getEnv("BLOB_DIR", "media"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnv("MINIO_BUCKET", "minisocial"),
		MinioUseSSL:    minioSSL,
		MinioPublicURL: getEnv("MINIO_PUBLIC_URL", ""),

		LikePolicy:          normalize(getEnv("LIKE_POLICY", LikePolicyObserved), LikePolicyObserved, LikePolicyAtomic, LikePolicyUnique),
		CommentAuthor:       normalize(getEnv("COMMENT_AUTHOR", CommentAuthorPlaceholder), CommentAuthorPlaceholder, CommentAuthorProfile),
		OrphanAuditInterval: auditInterval,
		RateLimitPerMinute:  rateLimit,

		// Email settings. An empty host disables outgoing mail.
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@minisocial.local"),
		FromName:     getEnv("FROM_NAME", "Mini Social"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// normalize returns value when it is one of allowed, otherwise the first allowed entry.
func normalize(value string, allowed ...string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if value == a {
			return value
		}
	}
	log.Printf("Warning: unknown setting %q, using %q", value, allowed[0])
	return allowed[0]
}
