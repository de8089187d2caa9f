package users

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(id, email string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        id,
		Email:     email,
		FullName:  "Test User",
		Role:      RoleCustomer,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMemoryStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Create(ctx, newTestUser("u1", "player@avk.ru")))

	byID, err := store.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "player@avk.ru", byID.Email)

	byEmail, err := store.FindByEmail(ctx, "player@avk.ru")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	// email is matched exactly as stored
	_, err = store.FindByEmail(ctx, "Player@avk.ru")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStore_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Create(ctx, newTestUser("u1", "dup@avk.ru")))
	err := store.Create(ctx, newTestUser("u2", "dup@avk.ru"))

	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, 1, store.Count())
}

func TestMemoryStore_IdentityUniqueUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := newTestUser(fmt.Sprintf("u%d", i), fmt.Sprintf("g%d@avk.ru", i))
			u.Identities = []Identity{{Provider: "google", ProviderID: "ext-1"}}
			errs <- store.Create(ctx, u)
		}(i)
	}

	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrIdentityTaken)
	}

	assert.Equal(t, 1, created)
	assert.Equal(t, 1, store.Count())
}

func TestMemoryStore_LinkIdentity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Create(ctx, newTestUser("u1", "a@avk.ru")))
	require.NoError(t, store.Create(ctx, newTestUser("u2", "b@avk.ru")))

	linked, err := store.LinkIdentity(ctx, "u1", Identity{Provider: "emergent", ProviderID: "x"})
	require.NoError(t, err)
	require.Len(t, linked.Identities, 1)

	// linking twice is a no-op
	linked, err = store.LinkIdentity(ctx, "u1", Identity{Provider: "emergent", ProviderID: "x"})
	require.NoError(t, err)
	assert.Len(t, linked.Identities, 1)

	_, err = store.LinkIdentity(ctx, "u2", Identity{Provider: "emergent", ProviderID: "x"})
	assert.ErrorIs(t, err, ErrIdentityTaken)

	found, err := store.FindByIdentity(ctx, "emergent", "x")
	require.NoError(t, err)
	assert.Equal(t, "u1", found.ID)
}

func TestMemoryStore_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, newTestUser("u1", "a@avk.ru")))

	_, err := store.UpdateProfile(ctx, "u1", ProfileUpdate{})
	assert.ErrorIs(t, err, ErrNothingToApply)

	city := "Санкт-Петербург"
	updated, err := store.UpdateProfile(ctx, "u1", ProfileUpdate{City: &city})
	require.NoError(t, err)
	assert.Equal(t, city, updated.City)
	assert.Equal(t, "Test User", updated.FullName)

	_, err = store.UpdateProfile(ctx, "missing", ProfileUpdate{City: &city})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, newTestUser("u1", "a@avk.ru")))

	u, err := store.FindByID(ctx, "u1")
	require.NoError(t, err)
	u.Role = RoleAdmin

	again, err := store.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, again.Role)
}

func TestMemoryStore_RoleActiveDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Create(ctx, newTestUser("u1", "a@avk.ru")))

	u, err := store.UpdateRole(ctx, "u1", "employee")
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, u.Role)

	_, err = store.UpdateRole(ctx, "u1", "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)

	u, err = store.SetActive(ctx, "u1", false)
	require.NoError(t, err)
	assert.True(t, u.Disabled())

	require.NoError(t, store.Delete(ctx, "u1"))
	assert.ErrorIs(t, store.Delete(ctx, "u1"), ErrUserNotFound)
}

func TestMemoryStore_ReplacePassword(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	u := newTestUser("u1", "player@avk.ru")
	u.PasswordHash = "first"
	require.NoError(t, store.Create(ctx, u))

	require.NoError(t, store.ReplacePassword(ctx, "u1", "first", "second"))

	// a second writer holding the old hash loses
	assert.ErrorIs(t, store.ReplacePassword(ctx, "u1", "first", "third"), ErrStalePassword)
	assert.ErrorIs(t, store.ReplacePassword(ctx, "missing", "", "x"), ErrUserNotFound)

	got, err := store.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.PasswordHash)
}

func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		u := newTestUser(fmt.Sprintf("u%d", i), fmt.Sprintf("u%d@avk.ru", i))
		u.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Create(ctx, u))
	}

	page, total, err := store.List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "u4", page[0].ID)

	page, _, err = store.List(ctx, 10, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "u0", page[0].ID)

	page, _, err = store.List(ctx, 10, 50)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestNormalizeRole(t *testing.T) {
	testCases := map[string]string{
		"":         RoleCustomer,
		"user":     RoleCustomer,
		"customer": RoleCustomer,
		"employee": RoleStaff,
		"staff":    RoleStaff,
		"admin":    RoleAdmin,
	}

	for in, want := range testCases {
		got, err := NormalizeRole(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, "role %q", in)
	}

	_, err := NormalizeRole("root")
	assert.ErrorIs(t, err, ErrInvalidRole)
}
