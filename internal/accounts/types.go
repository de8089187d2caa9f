package accounts

import (
	"errors"

	"codeberg.org/avksport/server/avk/users"
)

var (
	ErrNoLocalPassword = errors.New("account has no password; sign in with the external provider")
	ErrSelfAction      = errors.New("administrators cannot change or delete their own account")
	ErrInvalidInput    = errors.New("invalid input")
)

// data required to open a local account
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// a signed-in user with the bearer token issued for them
type AuthResult struct {
	AccessToken string
	User        *users.User
}

// metric outcome labels
const (
	outcomeSuccess      = "success"
	outcomeInvalid      = "invalid_credentials"
	outcomeDisabled     = "disabled"
	outcomeConflict     = "conflict"
	outcomeError        = "error"
	stageRequested      = "requested"
	stageUnknownAccount = "unknown_account"
	stageCompleted      = "completed"
	stageRejected       = "rejected"
)
