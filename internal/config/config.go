package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables
	S3BucketName string
	SNSTopicARN  string // account lifecycle events; empty disables publishing

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	RememberExpiry    time.Duration // refresh-token lifetime when remember=true
	SessionExpiry     time.Duration // refresh-token lifetime otherwise

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	// AllowedEmailDomains restricts which mail providers may receive
	// verification codes and register accounts.
	AllowedEmailDomains []string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Accounts          string
	AccountUniques    string
	VerificationCodes string
	Sessions          string
	Blogs             string
	BlogCategories    string
	BlogComments      string
	Files             string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			Accounts:          getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
			AccountUniques:    getEnv("DYNAMO_TABLE_ACCOUNT_UNIQUES", "account_uniques"),
			VerificationCodes: getEnv("DYNAMO_TABLE_VERIFICATION_CODES", "verification_codes"),
			Sessions:          getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Blogs:             getEnv("DYNAMO_TABLE_BLOGS", "blogs"),
			BlogCategories:    getEnv("DYNAMO_TABLE_BLOG_CATEGORIES", "blog_categories"),
			BlogComments:      getEnv("DYNAMO_TABLE_BLOG_COMMENTS", "blog_comments"),
			Files:             getEnv("DYNAMO_TABLE_FILES", "files"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "blblog-files"),
		SNSTopicARN:  getEnv("SNS_ACCOUNT_EVENTS_TOPIC_ARN", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_MINUTES", 60)) * time.Minute,
		RememberExpiry:    time.Duration(getEnvInt("REMEMBER_EXPIRY_DAYS", 7)) * 24 * time.Hour,
		SessionExpiry:     time.Duration(getEnvInt("SESSION_EXPIRY_HOURS", 12)) * time.Hour,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@blblog.example"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		AllowedEmailDomains: strings.Split(getEnv("ALLOWED_EMAIL_DOMAINS", "qq.com"), ","),
		AllowedOrigins:      strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
