package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"codeberg.org/avksport/server/avk/sessions"
	"codeberg.org/avksport/server/avk/users"
	"codeberg.org/avksport/server/internal/accounts"
	"codeberg.org/avksport/server/internal/auth"
	"codeberg.org/avksport/server/internal/config"
	"codeberg.org/avksport/server/internal/identity"
	"codeberg.org/avksport/server/internal/logger"
	"codeberg.org/avksport/server/internal/mailer"
	"codeberg.org/avksport/server/internal/metrics"
	"codeberg.org/avksport/server/internal/oauth"
)

const metricsServiceName = "avksport-auth"

// creates and configures the auth services
func InitializeServices(ctx context.Context, cfg *config.Config, userRepo users.Store, sessionRepo sessions.Store) (*Services, error) {
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.ResetTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	recorder, err := metrics.New(prometheus.DefaultRegisterer, metricsServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	services := &Services{Issuer: issuer, Metrics: recorder}

	// redis makes the deny-list shared between instances; otherwise it is per process
	switch {
	case cfg.RedisURL != "":
		redisDeny, err := auth.NewRedisDenyList(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}

		services.redis = redisDeny
		if cfg.TokenDenyList {
			services.DenyList = redisDeny
		}
	case cfg.TokenDenyList:
		services.DenyList = auth.NewMemoryDenyList()
	}

	idp := identity.NewClient(cfg.IdentitySessionURL, cfg.IdentityTimeout,
		identity.WithRateLimit(cfg.IdentityRateLimit, cfg.IdentityRateBurst),
	)

	services.Broker = oauth.NewBroker(idp, userRepo, sessionRepo, oauth.Config{
		SessionTTL:  cfg.SessionTTL,
		LinkByEmail: cfg.OAuthLinkByEmail,
	})

	services.Gate = auth.NewGate(issuer, userRepo, services.Broker, services.DenyList, cfg.SessionCookieName)

	services.Accounts = accounts.NewService(accounts.Deps{
		Users:    userRepo,
		Sessions: sessionRepo,
		Issuer:   issuer,
		Mailer: mailer.New(mailer.Settings{
			Provider:            cfg.MailProvider,
			Sender:              cfg.EmailSender,
			SendgridAPIKey:      cfg.SendgridAPIKey,
			PostmarkServerToken: cfg.PostmarkServerToken,
		}),
		Metrics:     recorder,
		FrontendURL: cfg.FrontendURL,
	})

	logger.Info("auth services initialized",
		"deny_list", services.DenyList != nil,
		"redis", services.redis != nil,
		"mail_provider", cfg.MailProvider,
		"oauth_link_by_email", cfg.OAuthLinkByEmail,
	)

	return services, nil
}

// releases connections held by the services
func (s *Services) Close(ctx context.Context) {
	s.Accounts.Wait()

	if err := s.Metrics.Shutdown(ctx); err != nil {
		logger.ErrorErr(err, "failed to shut down metrics")
	}

	if s.redis != nil {
		s.redis.Close() //nolint:errcheck,gosec // best-effort cleanup on shutdown
	}
}
