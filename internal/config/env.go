package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultIdentitySessionURL = "https://demobackend.emergentagent.com/auth/v1/env/oauth/session-data"
	defaultDBName             = "hockey_shop"
	defaultPort               = "8001"
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have .env file
	}

	mongoURL := os.Getenv("MONGO_URL")
	if mongoURL == "" {
		return nil, fmt.Errorf("MONGO_URL environment variable is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		jwtSecret = os.Getenv("JWT_SECRET")
	}

	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is required")
	}

	cfg := &Config{
		Environment: envStr("ENVIRONMENT", "development"),
		Port:        envStr("PORT", defaultPort),

		MongoURL: mongoURL,
		DBName:   envStr("DB_NAME", defaultDBName),

		JWTSecret: jwtSecret,
		RedisURL:  os.Getenv("REDIS_URL"),

		SessionCookieName: envStr("SESSION_COOKIE_NAME", "session_token"),

		IdentitySessionURL: envStr("IDENTITY_SESSION_URL", defaultIdentitySessionURL),

		SessionSecret:      os.Getenv("SESSION_SECRET"),
		BaseURL:            envStr("BASE_URL", "http://localhost:"+defaultPort),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),

		MailProvider:        os.Getenv("MAIL_PROVIDER"),
		SendgridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		PostmarkServerToken: os.Getenv("POSTMARK_API_TOKEN"),
		EmailSender:         envStr("EMAIL_SENDER", "noreply@avk-sport.ru"),
		FrontendURL:         strings.TrimRight(envStr("FRONTEND_URL", "http://localhost:3000"), "/"),

		CORSOrigins:    splitList(envStr("CORS_ORIGINS", "http://localhost:3000")),
		LoginRateLimit: envStr("LOGIN_RATE_LIMIT", "10-M"),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
	}

	// provider is inferred from whichever credential is present
	if cfg.MailProvider == "" {
		switch {
		case cfg.SendgridAPIKey != "":
			cfg.MailProvider = "sendgrid"
		case cfg.PostmarkServerToken != "":
			cfg.MailProvider = "postmark"
		}
	}

	var err error

	if cfg.AccessTokenTTL, err = envDuration("ACCESS_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.ResetTokenTTL, err = envDuration("RESET_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}

	if cfg.SessionTTL, err = envDuration("SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.SessionCleanupInterval, err = envDuration("SESSION_CLEANUP_INTERVAL", 0); err != nil {
		return nil, err
	}

	if cfg.IdentityTimeout, err = envDuration("IDENTITY_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	if cfg.IdentityRateLimit, err = envFloat("IDENTITY_RATE_LIMIT", 20); err != nil {
		return nil, err
	}

	if cfg.IdentityRateBurst, err = envInt("IDENTITY_RATE_BURST", 40); err != nil {
		return nil, err
	}

	if cfg.TokenDenyList, err = envBool("TOKEN_DENYLIST", false); err != nil {
		return nil, err
	}

	if cfg.OAuthLinkByEmail, err = envBool("OAUTH_LINK_BY_EMAIL", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}

	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
	}

	return d, nil
}

func envBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid bool %q: %w", key, v, err)
	}

	return b, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q: %w", key, v, err)
	}

	return f, nil
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}

	return n, nil
}

func splitList(s string) []string {
	var out []string

	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
