package users

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory with the same uniqueness rules as the mongo indexes
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*User
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// creates a new in-memory user store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Create(_ context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.ID == user.ID || existing.Email == user.Email {
			return ErrEmailTaken
		}

		for _, id := range user.Identities {
			if hasIdentity(existing, id.Provider, id.ProviderID) {
				return ErrIdentityTaken
			}
		}
	}

	s.users[user.ID] = user.clone()
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, userID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}

	return u.clone(), nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u.clone(), nil
		}
	}

	return nil, ErrUserNotFound
}

func (s *MemoryStore) FindByIdentity(_ context.Context, provider, providerID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if hasIdentity(u, provider, providerID) {
			return u.clone(), nil
		}
	}

	return nil, ErrUserNotFound
}

func (s *MemoryStore) LinkIdentity(_ context.Context, userID string, identity Identity) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}

	for _, other := range s.users {
		if other.ID != userID && hasIdentity(other, identity.Provider, identity.ProviderID) {
			return nil, ErrIdentityTaken
		}
	}

	if !hasIdentity(u, identity.Provider, identity.ProviderID) {
		u.Identities = append(u.Identities, identity)
	}

	u.UpdatedAt = s.now()
	return u.clone(), nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, userID string, update ProfileUpdate) (*User, error) {
	if update.IsEmpty() {
		return nil, ErrNothingToApply
	}

	return s.mutate(userID, func(u *User) {
		if update.FullName != nil {
			u.FullName = *update.FullName
		}

		if update.Phone != nil {
			u.Phone = *update.Phone
		}

		if update.Address != nil {
			u.Address = *update.Address
		}

		if update.City != nil {
			u.City = *update.City
		}

		if update.Picture != nil {
			u.Picture = *update.Picture
		}
	})
}

func (s *MemoryStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	_, err := s.mutate(userID, func(u *User) { u.PasswordHash = passwordHash })
	return err
}

func (s *MemoryStore) ReplacePassword(_ context.Context, userID, currentHash, newHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return ErrUserNotFound
	}

	if u.PasswordHash != currentHash {
		return ErrStalePassword
	}

	u.PasswordHash = newHash
	u.UpdatedAt = s.now()

	return nil
}

func (s *MemoryStore) UpdateRole(_ context.Context, userID, role string) (*User, error) {
	role, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}

	return s.mutate(userID, func(u *User) { u.Role = role })
}

func (s *MemoryStore) SetActive(_ context.Context, userID string, active bool) (*User, error) {
	return s.mutate(userID, func(u *User) { u.IsActive = active })
}

func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return ErrUserNotFound
	}

	delete(s.users, userID)
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit, offset int) ([]*User, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u.clone())
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))

	if offset >= len(all) {
		return []*User{}, total, nil
	}

	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}

	return all[offset:end], total, nil
}

// returns the number of stored users
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

func (s *MemoryStore) mutate(userID string, fn func(u *User)) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}

	fn(u)
	u.UpdatedAt = s.now()

	return u.clone(), nil
}

func hasIdentity(u *User, provider, providerID string) bool {
	for _, id := range u.Identities {
		if id.Provider == provider && id.ProviderID == providerID {
			return true
		}
	}

	return false
}
