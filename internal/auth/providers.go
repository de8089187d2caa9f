package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

// ProviderGoogle is the goth provider name and the identity provider tag stored on users
const ProviderGoogle = "google"

// settings for the optional redirect login
type ProviderConfig struct {
	SessionSecret      string
	BaseURL            string
	GoogleClientID     string
	GoogleClientSecret string
}

// sets up the google provider and gothic's state cookie store
func InitializeProviders(cfg ProviderConfig) error {
	if cfg.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must be set")
	}

	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set")
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8001"
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))

	// state cookie only lives for the redirect round trip
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   strings.HasPrefix(baseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	}

	gothic.Store = store

	goth.UseProviders(
		google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			baseURL+"/api/auth/google/callback",
			"email", "profile",
		),
	)

	return nil
}
