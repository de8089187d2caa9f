package auth

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"

	"codeberg.org/avksport/server/avk/users"
	"codeberg.org/avksport/server/internal/accounts"
	"codeberg.org/avksport/server/internal/auth"
	"codeberg.org/avksport/server/internal/errors"
	"codeberg.org/avksport/server/internal/identity"
	"codeberg.org/avksport/server/internal/logger"
	"codeberg.org/avksport/server/internal/metrics"
	"codeberg.org/avksport/server/internal/oauth"
)

// RegisterHandler godoc
// @Summary Register a local account
// @Description Create a customer account with email and password and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Account details"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/auth/register [post]
func RegisterHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		result, err := svc.Register(c.Request.Context(), accounts.RegisterInput{
			Email:    req.Email,
			Password: req.Password,
			FullName: req.FullName,
			Phone:    req.Phone,
		})
		if err != nil {
			switch {
			case stderrors.Is(err, users.ErrEmailTaken):
				errors.Conflict(c, "Email already registered")
			case stderrors.Is(err, auth.ErrPasswordTooLong), accounts.IsInputError(err):
				errors.BadRequest(c, "invalid registration data", err)
			default:
				errors.InternalError(c, "failed to register user", err)
			}

			return
		}

		c.JSON(http.StatusOK, newTokenResponse(result))
	}
}

// LoginHandler godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} TokenResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /api/auth/login [post]
func LoginHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		result, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case stderrors.Is(err, auth.ErrInvalidCredentials):
				errors.Unauthorized(c, "Invalid email or password")
			case stderrors.Is(err, auth.ErrForbidden):
				errors.Forbidden(c, "Account is disabled")
			default:
				errors.InternalError(c, "failed to log in", err)
			}

			return
		}

		c.JSON(http.StatusOK, newTokenResponse(result))
	}
}

// GetCurrentUserHandler godoc
// @Summary Get current user
// @Description Resolve the caller from a bearer token or the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} UserView
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /api/auth/me [get]
// @Security BearerAuth
func GetCurrentUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.GetUser(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}

		c.JSON(http.StatusOK, NewUserView(user))
	}
}

// UpdateProfileHandler godoc
// @Summary Update user profile
// @Description Update the caller's contact details; omitted fields are unchanged
// @Tags auth
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile update"
// @Success 200 {object} UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/auth/profile [put]
// @Security BearerAuth
func UpdateProfileHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}

		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		user, err := svc.UpdateProfile(c.Request.Context(), userID, users.ProfileUpdate{
			FullName: req.FullName,
			Phone:    req.Phone,
			Address:  req.Address,
			City:     req.City,
		})
		if err != nil {
			switch {
			case accounts.IsInputError(err):
				errors.BadRequest(c, "no fields to update", nil)
			case stderrors.Is(err, users.ErrUserNotFound):
				errors.NotFound(c, "user")
			default:
				errors.InternalError(c, "failed to update profile", err)
			}

			return
		}

		c.JSON(http.StatusOK, NewUserView(user))
	}
}

// ChangePasswordHandler godoc
// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/auth/change-password [post]
// @Security BearerAuth
func ChangePasswordHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.GetUserID(c)
		if !ok {
			errors.Unauthorized(c, "")
			return
		}

		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		err := svc.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword)
		if err != nil {
			switch {
			case stderrors.Is(err, auth.ErrInvalidCredentials):
				errors.Unauthorized(c, "Current password is incorrect")
			case stderrors.Is(err, accounts.ErrNoLocalPassword):
				errors.BadRequest(c, "account has no password", nil)
			case stderrors.Is(err, auth.ErrPasswordTooLong), accounts.IsInputError(err):
				errors.BadRequest(c, "invalid password", err)
			default:
				errors.InternalError(c, "failed to change password", err)
			}

			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "Password changed"})
	}
}

// ForgotPasswordHandler godoc
// @Summary Request a password reset link
// @Description Always answers with the same message whether or not the account exists
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Account email"
// @Success 200 {object} MessageResponse
// @Router /api/auth/forgot-password [post]
func ForgotPasswordHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ForgotPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		svc.ForgotPassword(c.Request.Context(), req.Email)

		c.JSON(http.StatusOK, MessageResponse{Message: forgotPasswordMessage})
	}
}

// ResetPasswordHandler godoc
// @Summary Reset password with a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /api/auth/reset-password [post]
func ResetPasswordHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetPasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		err := svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
		if err != nil {
			switch {
			case auth.IsAuthFailure(err):
				errors.InvalidToken(c, "Invalid or expired reset token")
			case stderrors.Is(err, auth.ErrPasswordTooLong), accounts.IsInputError(err):
				errors.BadRequest(c, "invalid password", err)
			default:
				errors.InternalError(c, "failed to reset password", err)
			}

			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "Password has been reset"})
	}
}

// OAuthSessionHandler godoc
// @Summary Exchange an external session for a cookie session
// @Description Verify the external session id with the identity provider, create or find the user and set the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body OAuthSessionRequest false "External session id"
// @Param X-Session-ID header string false "External session id"
// @Param session_id query string false "External session id"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/auth/oauth/session [post]
func OAuthSessionHandler(broker *oauth.Broker, cookie CookieConfig, recorder *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID := externalSessionID(c)
		if externalID == "" {
			errors.BadRequest(c, "session id is required", nil)
			return
		}

		ctx := c.Request.Context()

		user, session, err := broker.Login(ctx, externalID)
		if err != nil {
			recorder.Exchange(ctx, exchangeOutcome(err))
			writeExchangeError(c, err)
			return
		}

		recorder.Exchange(ctx, "success")

		setSessionCookie(c, cookie, session.SessionToken)
		c.JSON(http.StatusOK, SessionResponse{Success: true, User: NewUserView(user)})
	}
}

// LogoutHandler godoc
// @Summary Log out
// @Description Delete the cookie session and clear the cookie; a valid bearer token is revoked when the deny-list is enabled
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /api/auth/logout [post]
func LogoutHandler(broker *oauth.Broker, denyList auth.DenyList, cookie CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if token, err := c.Cookie(cookie.Name); err == nil && token != "" {
			if err := broker.Revoke(ctx, token); err != nil {
				logger.ErrorErr(err, "failed to delete session on logout")
			}
		}

		// claims are only present when OptionalAuth accepted a bearer token
		if claims, ok := auth.GetClaims(c); ok && denyList != nil && claims.ExpiresAt != nil {
			if err := denyList.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
				logger.FromContext(ctx).Error("failed to revoke bearer token", "error", err)
			}
		}

		clearSessionCookie(c, cookie)
		c.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
	}
}

// BeginGoogleAuthHandler godoc
// @Summary Start Google login
// @Tags auth
// @Success 307 {string} string "Redirect to Google"
// @Router /api/auth/google [get]
func BeginGoogleAuthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// set provider in query for gothic
		q := c.Request.URL.Query()
		q.Set("provider", auth.ProviderGoogle)
		c.Request.URL.RawQuery = q.Encode()

		gothic.BeginAuthHandler(c.Writer, c.Request)
	}
}

// GoogleCallbackHandler godoc
// @Summary Google login callback
// @Description Completes Google login, sets the session cookie and redirects to the storefront
// @Tags auth
// @Success 307 {string} string "Redirect to frontend"
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /api/auth/google/callback [get]
func GoogleCallbackHandler(broker *oauth.Broker, cookie CookieConfig, frontendURL string, recorder *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		q.Set("provider", auth.ProviderGoogle)
		c.Request.URL.RawQuery = q.Encode()

		gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
		if err != nil {
			logger.Warn("google login failed", "error", err.Error())
			errors.Unauthorized(c, "Google authentication failed")
			return
		}

		ctx := c.Request.Context()

		user, session, err := broker.LoginIdentity(ctx, &oauth.ExternalIdentity{
			Provider:    auth.ProviderGoogle,
			ExternalID:  gothUser.UserID,
			Email:       gothUser.Email,
			DisplayName: gothUser.Name,
			Picture:     gothUser.AvatarURL,
		})
		if err != nil {
			recorder.Exchange(ctx, exchangeOutcome(err))
			writeExchangeError(c, err)
			return
		}

		recorder.Exchange(ctx, "success")
		logger.Info("google login", "user_id", user.ID)

		setSessionCookie(c, cookie, session.SessionToken)
		c.Redirect(http.StatusTemporaryRedirect, frontendURL+"/")
	}
}

func newTokenResponse(result *accounts.AuthResult) TokenResponse {
	return TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
		User:        NewUserView(result.User),
	}
}

// body first, then the X-Session-ID header, then ?session_id=
func externalSessionID(c *gin.Context) string {
	var req OAuthSessionRequest
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req) //nolint:errcheck // header and query are still tried
	}

	if req.ExternalSessionID != "" {
		return req.ExternalSessionID
	}

	if id := c.GetHeader("X-Session-ID"); id != "" {
		return id
	}

	return c.Query("session_id")
}

func writeExchangeError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, identity.ErrUpstreamUnavailable):
		errors.ServiceUnavailable(c, "Failed to connect to auth service", err)
	case stderrors.Is(err, identity.ErrInvalidSession):
		errors.Unauthorized(c, "Invalid session ID")
	case stderrors.Is(err, users.ErrEmailTaken):
		errors.Conflict(c, "Email already registered with another sign-in method")
	case stderrors.Is(err, oauth.ErrAccountDisabled):
		errors.Forbidden(c, "Account is disabled")
	default:
		errors.InternalError(c, "failed to open session", err)
	}
}

func exchangeOutcome(err error) string {
	switch {
	case stderrors.Is(err, identity.ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case stderrors.Is(err, identity.ErrInvalidSession):
		return "invalid_session"
	case stderrors.Is(err, users.ErrEmailTaken):
		return "conflict"
	case stderrors.Is(err, oauth.ErrAccountDisabled):
		return "disabled"
	default:
		return "error"
	}
}

func setSessionCookie(c *gin.Context, cookie CookieConfig, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookie.Name, token, int(cookie.TTL/time.Second), "/", "", cookie.Secure, true)
}

func clearSessionCookie(c *gin.Context, cookie CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookie.Name, "", -1, "/", "", cookie.Secure, true)
}
