package auth

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/avksport/server/internal/accounts"
	"codeberg.org/avksport/server/internal/auth"
	"codeberg.org/avksport/server/internal/metrics"
	"codeberg.org/avksport/server/internal/oauth"
)

// Deps are the services the auth routes are built from
type Deps struct {
	Accounts *accounts.Service
	Broker   *oauth.Broker
	Gate     *auth.Gate
	DenyList auth.DenyList
	Metrics  *metrics.Recorder
	Cookie   CookieConfig

	// throttles credential endpoints; nil disables throttling
	Throttle gin.HandlerFunc

	GoogleEnabled bool
	FrontendURL   string
}

// registers all authentication routes
func RegisterRoutes(router *gin.RouterGroup, d Deps) {
	throttle := d.Throttle
	if throttle == nil {
		throttle = func(c *gin.Context) { c.Next() }
	}

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", throttle, RegisterHandler(d.Accounts))
		authGroup.POST("/login", throttle, LoginHandler(d.Accounts))
		authGroup.POST("/forgot-password", throttle, ForgotPasswordHandler(d.Accounts))
		authGroup.POST("/reset-password", throttle, ResetPasswordHandler(d.Accounts))
		authGroup.POST("/oauth/session", throttle, OAuthSessionHandler(d.Broker, d.Cookie, d.Metrics))
		authGroup.POST("/logout", d.Gate.OptionalAuth(), LogoutHandler(d.Broker, d.DenyList, d.Cookie))

		authGroup.GET("/me", d.Gate.RequireAuth(), GetCurrentUserHandler())
		authGroup.PUT("/profile", d.Gate.RequireAuth(), UpdateProfileHandler(d.Accounts))
		authGroup.POST("/change-password", d.Gate.RequireAuth(), ChangePasswordHandler(d.Accounts))

		if d.GoogleEnabled {
			authGroup.GET("/google", BeginGoogleAuthHandler())
			authGroup.GET("/google/callback", GoogleCallbackHandler(d.Broker, d.Cookie, d.FrontendURL, d.Metrics))
		}
	}
}
