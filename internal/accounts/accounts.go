package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"codeberg.org/avksport/server/avk/sessions"
	"codeberg.org/avksport/server/avk/users"
	"codeberg.org/avksport/server/internal/auth"
	"codeberg.org/avksport/server/internal/logger"
	"codeberg.org/avksport/server/internal/mailer"
	"codeberg.org/avksport/server/internal/metrics"
)

const mailTimeout = 30 * time.Second

// local-credential flows and account administration
type Service struct {
	users       users.Store
	sessions    sessions.Store
	issuer      *auth.Issuer
	mailer      mailer.Mailer
	metrics     *metrics.Recorder
	frontendURL string
	now         func() time.Time

	// runs fire-and-forget work; replaced in tests to run inline
	dispatch func(func())
	pending  sync.WaitGroup
}

type Deps struct {
	Users       users.Store
	Sessions    sessions.Store
	Issuer      *auth.Issuer
	Mailer      mailer.Mailer
	Metrics     *metrics.Recorder
	FrontendURL string
}

func NewService(d Deps) *Service {
	m := d.Mailer
	if m == nil {
		m = mailer.LogMailer{}
	}

	s := &Service{
		users:       d.Users,
		sessions:    d.Sessions,
		issuer:      d.Issuer,
		mailer:      m,
		metrics:     d.Metrics,
		frontendURL: d.FrontendURL,
		now:         func() time.Time { return time.Now().UTC() },
	}

	s.dispatch = func(fn func()) {
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			fn()
		}()
	}

	return s
}

// blocks until background mail sends have finished
func (s *Service) Wait() {
	s.pending.Wait()
}

// creates a customer account with a password and signs it in
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	hash, err := hashNewPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()

	user := &users.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         users.RoleCustomer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			s.metrics.Registration(ctx, outcomeConflict)
		} else {
			s.metrics.Registration(ctx, outcomeError)
		}

		return nil, err
	}

	s.metrics.Registration(ctx, outcomeSuccess)

	return s.signIn(user)
}

// checks credentials; unknown email and wrong password are indistinguishable
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil && !errors.Is(err, users.ErrUserNotFound) {
		s.metrics.Login(ctx, outcomeError)
		return nil, err
	}

	if user == nil || !user.HasPassword() {
		// keep the timing of unknown accounts close to a real comparison
		auth.VerifyPassword(password, dummyHash())
		s.metrics.Login(ctx, outcomeInvalid)
		return nil, auth.ErrInvalidCredentials
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		s.metrics.Login(ctx, outcomeInvalid)
		return nil, auth.ErrInvalidCredentials
	}

	if user.Disabled() {
		s.metrics.Login(ctx, outcomeDisabled)
		return nil, auth.ErrForbidden
	}

	s.metrics.Login(ctx, outcomeSuccess)

	return s.signIn(user)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, update users.ProfileUpdate) (*users.User, error) {
	return s.users.UpdateProfile(ctx, userID, update)
}

// replaces the password after checking the current one
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !user.HasPassword() {
		return ErrNoLocalPassword
	}

	if !auth.VerifyPassword(current, user.PasswordHash) {
		return auth.ErrInvalidCredentials
	}

	hash, err := hashNewPassword(next)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, userID, hash)
}

// mails a reset link when the account exists. The result never depends on whether it does;
// lookup and delivery failures are logged only.
func (s *Service) ForgotPassword(ctx context.Context, email string) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, users.ErrUserNotFound) {
			logger.ErrorErr(err, "failed to look up account for password reset")
		}

		s.metrics.PasswordReset(ctx, stageUnknownAccount)
		return
	}

	if user.Disabled() {
		s.metrics.PasswordReset(ctx, stageUnknownAccount)
		return
	}

	token, err := s.issuer.IssueReset(user.ID, user.PasswordHash)
	if err != nil {
		logger.ErrorErr(err, "failed to issue password reset token", "user_id", user.ID)
		return
	}

	s.metrics.PasswordReset(ctx, stageRequested)

	msg := mailer.ResetPasswordMessage(user.Email, s.frontendURL, token)
	userID := user.ID

	s.dispatch(func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
		defer cancel()

		if err := s.mailer.Send(sendCtx, msg); err != nil {
			logger.ErrorErr(err, "failed to send password reset email", "user_id", userID)
		}
	})
}

// sets a new password from a reset token and ends the user's cookie sessions.
// A token is spent once the password it was issued against has changed.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.issuer.VerifyReset(token)
	if err != nil {
		s.metrics.PasswordReset(ctx, stageRejected)
		return err
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			s.metrics.PasswordReset(ctx, stageRejected)
			return auth.ErrMalformedToken
		}

		return err
	}

	if !s.issuer.MatchesPassword(claims, user.PasswordHash) {
		s.metrics.PasswordReset(ctx, stageRejected)
		return auth.ErrTokenUsed
	}

	hash, err := hashNewPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.ReplacePassword(ctx, user.ID, user.PasswordHash, hash); err != nil {
		switch {
		case errors.Is(err, users.ErrStalePassword):
			s.metrics.PasswordReset(ctx, stageRejected)
			return auth.ErrTokenUsed
		case errors.Is(err, users.ErrUserNotFound):
			s.metrics.PasswordReset(ctx, stageRejected)
			return auth.ErrMalformedToken
		}

		return err
	}

	if s.sessions != nil {
		if _, err := s.sessions.DeleteByUser(ctx, claims.Subject); err != nil {
			logger.ErrorErr(err, "failed to end sessions after password reset", "user_id", claims.Subject)
		}
	}

	s.metrics.PasswordReset(ctx, stageCompleted)

	return nil
}

func (s *Service) signIn(user *users.User) (*AuthResult, error) {
	token, err := s.issuer.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResult{AccessToken: token, User: user}, nil
}

// trims and validates; case is preserved
func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}

	return email, nil
}

func hashNewPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	return auth.HashPassword(password)
}

var dummyHash = sync.OnceValue(func() string {
	hash, err := auth.HashPassword("not-a-real-password")
	if err != nil {
		return ""
	}

	return hash
})
