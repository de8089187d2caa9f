package users

import (
	"context"
	"errors"
	"time"
)

const CollectionName = "users"

// account roles
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// local password accounts carry no identity entry
const ProviderPassword = "password"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrIdentityTaken  = errors.New("external identity already linked to another user")
	ErrInvalidRole    = errors.New("invalid role")
	ErrNothingToApply = errors.New("no fields to update")
	ErrStalePassword  = errors.New("password changed since it was read")
)

// persistence contract for user records; implemented by Repository (mongo) and MemoryStore
type Store interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, userID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByIdentity(ctx context.Context, provider, providerID string) (*User, error)
	LinkIdentity(ctx context.Context, userID string, identity Identity) (*User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	// sets newHash only while the stored hash still equals currentHash
	ReplacePassword(ctx context.Context, userID, currentHash, newHash string) error
	UpdateRole(ctx context.Context, userID, role string) (*User, error)
	SetActive(ctx context.Context, userID string, active bool) (*User, error)
	Delete(ctx context.Context, userID string) error
	List(ctx context.Context, limit, offset int) ([]*User, int64, error)
}

// represents an account. Email is stored as given; no case folding.
type User struct {
	ID            string     `bson:"id" json:"id"`
	Email         string     `bson:"email" json:"email"`
	FullName      string     `bson:"full_name" json:"full_name"`
	Phone         string     `bson:"phone,omitempty" json:"phone,omitempty"`
	Address       string     `bson:"address,omitempty" json:"address,omitempty"`
	City          string     `bson:"city,omitempty" json:"city,omitempty"`
	Picture       string     `bson:"picture,omitempty" json:"picture,omitempty"`
	PasswordHash  string     `bson:"hashed_password,omitempty" json:"-"`
	Identities    []Identity `bson:"identities,omitempty" json:"identities,omitempty"`
	Role          string     `bson:"role" json:"role"`
	IsActive      bool       `bson:"is_active" json:"is_active"`
	EmailVerified bool       `bson:"email_verified" json:"email_verified"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updated_at"`
}

// links a user to an external provider account
type Identity struct {
	Provider   string    `bson:"provider" json:"provider"`
	ProviderID string    `bson:"provider_id" json:"-"`
	LinkedAt   time.Time `bson:"linked_at" json:"linked_at"`
}

// optional profile fields; nil means unchanged
type ProfileUpdate struct {
	FullName *string
	Phone    *string
	Address  *string
	City     *string
	Picture  *string
}

// reports whether at least one field is set
func (u ProfileUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Phone == nil && u.Address == nil && u.City == nil && u.Picture == nil
}

// disabled accounts fail every role check
func (u *User) Disabled() bool {
	return !u.IsActive
}

// reports whether the account can log in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// returns the linked identity for provider, if any
func (u *User) Identity(provider string) (Identity, bool) {
	for _, id := range u.Identities {
		if id.Provider == provider {
			return id, true
		}
	}

	return Identity{}, false
}

// maps stored role values (including legacy ones) onto the three account roles
func NormalizeRole(role string) (string, error) {
	switch role {
	case RoleCustomer, "user", "":
		return RoleCustomer, nil
	case RoleStaff, "employee":
		return RoleStaff, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// returns a deep copy so stores never hand out shared state
func (u *User) clone() *User {
	cp := *u
	if u.Identities != nil {
		cp.Identities = append([]Identity(nil), u.Identities...)
	}

	return &cp
}
