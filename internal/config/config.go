package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/njprem/Session_Auth_BackEnd/internal/util"
)

type Config struct {
	Port         string
	Debug        bool
	DatabaseURL  string
	AllowOrigins []string

	SecretKey            string
	JWTAlgorithm         string
	AccessTokenLifetime  time.Duration
	RefreshTokenLifetime time.Duration
	SessionClaim         string
	UserClaim            string
	RefreshTokenHeader   string
	AccessTokenHeader    string
	SessionLookupTimeout time.Duration

	LogLevel        string
	LogFormat       string
	LogstashTCPAddr string

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	LoginMaxAttempts   int
	LoginAttemptWindow time.Duration
	LoginLockout       time.Duration

	MinIOEndpoint    string
	MinIOAccessKey   string
	MinIOSecretKey   string
	MinIOUseSSL      bool
	MinIOBucketMedia string
	MinIOPublicURL   string
	MediaMaxBytes    int64
	MediaMaxDim      int
	FFMPEGPath       string

	SMTPHost         string
	SMTPPort         string
	SMTPUsername     string
	SMTPPassword     string
	SMTPFrom         string
	SMTPUseTLS       bool
	AppName          string
	PasswordResetTTL time.Duration
	PasswordResetOTP int

	GoogleAudience string

	OTELEndpoint    string
	OTELInsecure    bool
	OTELServiceName string
	Environment     string

	PaginationLimit int
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.Warnf(".env file not found: %v", err)
	}
}

// LoadDatabaseURL reads only DATABASE_URL, for commands that need nothing
// else.
func LoadDatabaseURL() string {
	loadDotEnv()
	return must("DATABASE_URL")
}

func Load() Config {
	loadDotEnv()

	return Config{
		Port:         getenv("PORT", "8080"),
		Debug:        getenv("DEBUG", "false") == "true",
		DatabaseURL:  must("DATABASE_URL"),
		AllowOrigins: splitAndTrim(getenv("ALLOW_ORIGINS", "*")),

		SecretKey:            must("SECRET_KEY"),
		JWTAlgorithm:         getenv("JWT_ALGORITHM", "HS256"),
		AccessTokenLifetime:  time.Duration(getInt("JWT_ACCESS_TOKEN_LIFETIME", 5)) * time.Minute,
		RefreshTokenLifetime: time.Duration(getInt("JWT_REFRESH_TOKEN_LIFETIME", 3)) * 24 * time.Hour,
		SessionClaim:         getenv("JWT_SESSION_CLAIM", "session_id"),
		UserClaim:            getenv("JWT_USER_CLAIM", "user_id"),
		RefreshTokenHeader:   getenv("REFRESH_TOKEN_HEADER", "x-refresh"),
		AccessTokenHeader:    getenv("ACCESS_TOKEN_HEADER", "x-access"),
		SessionLookupTimeout: getDuration("SESSION_LOOKUP_TIMEOUT", 3*time.Second),

		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "json"),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		RedisAddr:          getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getenv("REDIS_PASSWORD", ""),
		RedisDB:            getInt("REDIS_DB", 0),
		LoginMaxAttempts:   getInt("LOGIN_MAX_ATTEMPTS", 5),
		LoginAttemptWindow: getDuration("LOGIN_ATTEMPT_WINDOW", 15*time.Minute),
		LoginLockout:       getDuration("LOGIN_LOCKOUT", 15*time.Minute),

		MinIOEndpoint:    must("MINIO_ENDPOINT"),
		MinIOAccessKey:   must("MINIO_ACCESS_KEY"),
		MinIOSecretKey:   must("MINIO_SECRET_KEY"),
		MinIOUseSSL:      getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketMedia: getenv("MINIO_BUCKET_MEDIA", "media"),
		MinIOPublicURL:   getenv("MINIO_PUBLIC_URL", ""),
		MediaMaxBytes:    int64(getInt("MEDIA_MAX_BYTES", 10*1024*1024)),
		MediaMaxDim:      getInt("MEDIA_MAX_DIMENSION", 2048),
		FFMPEGPath:       getenv("FFMPEG_PATH", "ffmpeg"),

		SMTPHost:         getenv("SMTP_HOST", ""),
		SMTPPort:         getenv("SMTP_PORT", ""),
		SMTPUsername:     getenv("SMTP_USERNAME", ""),
		SMTPPassword:     getenv("SMTP_PASSWORD", ""),
		SMTPFrom:         getenv("SMTP_FROM", ""),
		SMTPUseTLS:       getenv("SMTP_USE_TLS", "false") == "true",
		AppName:          getenv("APP_NAME", "Session Auth"),
		PasswordResetTTL: getDuration("PASSWORD_RESET_TTL", 15*time.Minute),
		PasswordResetOTP: getInt("PASSWORD_RESET_OTP_LENGTH", 6),

		GoogleAudience: getenv("GOOGLE_AUDIENCE", ""),

		OTELEndpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELInsecure:    getenv("OTEL_EXPORTER_OTLP_INSECURE", "true") == "true",
		OTELServiceName: getenv("OTEL_SERVICE_NAME", "session-auth-api"),
		Environment:     getenv("APP_ENV", "development"),

		PaginationLimit: getInt("PAGINATION_LIMIT", util.DefaultPageSize),
	}
}

// TokenConfig validates the JWT settings and freezes them.
func (c Config) TokenConfig() (util.TokenConfig, error) {
	return util.NewTokenConfig(util.TokenSettings{
		Algorithm:    c.JWTAlgorithm,
		SigningKey:   c.SecretKey,
		AccessTTL:    c.AccessTokenLifetime,
		RefreshTTL:   c.RefreshTokenLifetime,
		SessionClaim: c.SessionClaim,
		UserClaim:    c.UserClaim,
	})
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getInt(k string, d int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k))); err == nil && v > 0 {
		return v
	}
	return d
}

func getDuration(k string, d time.Duration) time.Duration {
	if v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k))); err == nil && v > 0 {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
