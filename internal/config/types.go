package config

import "time"

type Config struct {
	Environment string
	Port        string

	MongoURL string
	DBName   string

	JWTSecret      string
	AccessTokenTTL time.Duration
	ResetTokenTTL  time.Duration
	TokenDenyList  bool
	RedisURL       string

	SessionCookieName      string
	SessionTTL             time.Duration
	SessionCleanupInterval time.Duration

	IdentitySessionURL string
	IdentityTimeout    time.Duration
	OAuthLinkByEmail   bool

	SessionSecret      string
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string

	MailProvider        string
	SendgridAPIKey      string
	PostmarkServerToken string
	EmailSender         string
	FrontendURL         string

	CORSOrigins    []string
	LoginRateLimit string
	// proxies whose X-Forwarded-For is believed; none by default
	TrustedProxies []string

	IdentityRateLimit float64
	IdentityRateBurst int
}

// reports whether cookies should carry the Secure flag
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// reports whether goth redirect login can be enabled
func (c *Config) GoogleLoginEnabled() bool {
	return c.SessionSecret != "" && c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

type Flags struct {
	Email    string
	Password string
	Name     string
	Role     string
	Limit    int
	Offset   int
}
