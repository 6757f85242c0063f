// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package users_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixshare/pixshare/internal/auth"
	"github.com/pixshare/pixshare/internal/platform/apperr"
	"github.com/pixshare/pixshare/internal/users"
)

// # In-Memory Fakes

// fakeRepo is a mutex-guarded in-memory auth.UserRepository.
type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*auth.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, users: make(map[int64]*auth.User)}
}

func (repo *fakeRepo) add(user auth.User) *auth.User {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	user.ID = repo.nextID
	repo.nextID++
	repo.users[user.ID] = &user
	clone := user
	return &clone
}

func (repo *fakeRepo) matches(user *auth.User, filter auth.ActiveFilter) bool {
	switch filter {
	case auth.ActiveOnly:
		return user.Active
	case auth.InactiveOnly:
		return !user.Active
	default:
		return true
	}
}

func (repo *fakeRepo) FindByID(_ context.Context, id int64, filter auth.ActiveFilter) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if user, ok := repo.users[id]; ok && repo.matches(user, filter) {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeRepo) FindByEmail(_ context.Context, email string, filter auth.ActiveFilter) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.users {
		if user.Email == email && repo.matches(user, filter) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeRepo) FindByUsername(_ context.Context, username string, filter auth.ActiveFilter) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.users {
		if user.Username == username && repo.matches(user, filter) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *fakeRepo) List(_ context.Context, offset, limit int) ([]*auth.User, int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	all := make([]*auth.User, 0, len(repo.users))
	for id := int64(1); id < repo.nextID; id++ {
		if user, ok := repo.users[id]; ok {
			clone := *user
			all = append(all, &clone)
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (repo *fakeRepo) Count(_ context.Context) (int64, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return int64(len(repo.users)), nil
}

func (repo *fakeRepo) Create(_ context.Context, user *auth.User) error {
	repo.add(*user)
	return nil
}

func (repo *fakeRepo) UpdateProfile(_ context.Context, user *auth.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	stored, ok := repo.users[user.ID]
	if !ok {
		return apperr.NotFound("User")
	}
	stored.Username = user.Username
	stored.AvatarURL = user.AvatarURL
	return nil
}

func (repo *fakeRepo) SetRefreshToken(_ context.Context, userID int64, token string) error {
	return repo.mutate(userID, func(user *auth.User) { user.RefreshToken = token })
}

func (repo *fakeRepo) RotateRefreshToken(_ context.Context, userID int64, current, next string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	stored, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	if stored.RefreshToken != current {
		return auth.ErrStaleRefreshToken
	}
	stored.RefreshToken = next
	return nil
}

func (repo *fakeRepo) ClearRefreshToken(_ context.Context, userID int64) error {
	return repo.mutate(userID, func(user *auth.User) { user.RefreshToken = "" })
}

func (repo *fakeRepo) ConfirmEmail(_ context.Context, email string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, stored := range repo.users {
		if stored.Email == email {
			stored.Confirmed = true
			stored.Active = true
			return nil
		}
	}
	return apperr.NotFound("User")
}

func (repo *fakeRepo) SetActive(_ context.Context, userID int64, active bool) error {
	return repo.mutate(userID, func(user *auth.User) { user.Active = active })
}

func (repo *fakeRepo) SetRole(_ context.Context, userID int64, role auth.Role) error {
	return repo.mutate(userID, func(user *auth.User) { user.Role = role })
}

func (repo *fakeRepo) SetAvatar(_ context.Context, userID int64, avatarURL string) error {
	return repo.mutate(userID, func(user *auth.User) { user.AvatarURL = avatarURL })
}

func (repo *fakeRepo) Delete(_ context.Context, userID int64) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	stored, ok := repo.users[userID]
	if !ok || stored.Active {
		return apperr.NotFound("User")
	}
	delete(repo.users, userID)
	return nil
}

func (repo *fakeRepo) mutate(userID int64, apply func(*auth.User)) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	stored, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	apply(stored)
	return nil
}

// fakeCache records invalidations per email.
type fakeCache struct {
	mu            sync.Mutex
	invalidations map[string]int
}

func newFakeCache() *fakeCache {
	return &fakeCache{invalidations: make(map[string]int)}
}

func (cache *fakeCache) Get(_ context.Context, _ string) (*auth.User, error) {
	return nil, apperr.NotFound("Cached user")
}

func (cache *fakeCache) Set(_ context.Context, _ *auth.User, _ time.Duration) error {
	return nil
}

func (cache *fakeCache) Invalidate(_ context.Context, email string) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.invalidations[email]++
	return nil
}

func (cache *fakeCache) invalidationCount(email string) int {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	return cache.invalidations[email]
}

// # Test Harness

func newTestService() (*users.Service, *fakeRepo, *fakeCache) {
	repo := newFakeRepo()
	cache := newFakeCache()
	service := users.NewService(repo, cache, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return service, repo, cache
}

func seedAdmin(repo *fakeRepo) *auth.User {
	return repo.add(auth.User{
		Username: "root", Email: "root@example.com",
		Role: auth.RoleAdmin, Confirmed: true, Active: true,
	})
}

func seedMember(repo *fakeRepo, username, email string) *auth.User {
	return repo.add(auth.User{
		Username: username, Email: email,
		Role: auth.RoleUser, Confirmed: true, Active: true,
	})
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var appError *apperr.AppError
	require.True(t, errors.As(err, &appError), "expected AppError, got %v", err)
	return appError.HTTPStatus
}

// # Administration

/*
TestBan_DeactivatesAndInvalidates verifies banning flips the active flag and
drops the cached projection so live tokens die immediately.
*/
func TestBan_DeactivatesAndInvalidates(t *testing.T) {
	service, repo, cache := newTestService()
	admin := seedAdmin(repo)
	member := seedMember(repo, "alice", "alice@example.com")

	require.NoError(t, service.Ban(context.Background(), admin, member.ID))

	banned, err := repo.FindByID(context.Background(), member.ID, auth.ActiveAny)
	require.NoError(t, err)
	assert.False(t, banned.Active)
	assert.Equal(t, 1, cache.invalidationCount("alice@example.com"))

	// Unban restores access.
	require.NoError(t, service.Unban(context.Background(), admin, member.ID))
	restored, err := repo.FindByID(context.Background(), member.ID, auth.ActiveAny)
	require.NoError(t, err)
	assert.True(t, restored.Active)
}

/*
TestSelfOperationGuard verifies admins cannot ban, unban, role-change, or
delete their own account.
*/
func TestSelfOperationGuard(t *testing.T) {
	service, repo, _ := newTestService()
	admin := seedAdmin(repo)
	ctx := context.Background()

	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, service.Ban(ctx, admin, admin.ID)))
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, service.Unban(ctx, admin, admin.ID)))
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, service.ChangeRole(ctx, admin, admin.ID, auth.RoleUser)))
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, service.Delete(ctx, admin, admin.ID)))

	// The account is untouched.
	self, err := repo.FindByID(ctx, admin.ID, auth.ActiveAny)
	require.NoError(t, err)
	assert.True(t, self.Active)
	assert.Equal(t, auth.RoleAdmin, self.Role)
}

/*
TestChangeRole verifies the closed role set and persistence of valid changes.
*/
func TestChangeRole(t *testing.T) {
	service, repo, _ := newTestService()
	admin := seedAdmin(repo)
	member := seedMember(repo, "alice", "alice@example.com")
	ctx := context.Background()

	// 1. Unknown role rejected
	err := service.ChangeRole(ctx, admin, member.ID, auth.Role("owner"))
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	// 2. Valid promotion persists
	require.NoError(t, service.ChangeRole(ctx, admin, member.ID, auth.RoleModerator))
	promoted, err := repo.FindByID(ctx, member.ID, auth.ActiveAny)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleModerator, promoted.Role)

	// 3. Unknown target
	err = service.ChangeRole(ctx, admin, 9999, auth.RoleUser)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

/*
TestDelete_RequiresDeactivation verifies deletion is a two-step: ban first,
then delete.
*/
func TestDelete_RequiresDeactivation(t *testing.T) {
	service, repo, _ := newTestService()
	admin := seedAdmin(repo)
	member := seedMember(repo, "alice", "alice@example.com")
	ctx := context.Background()

	// 1. Active target refused with guidance
	err := service.Delete(ctx, admin, member.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))

	var appError *apperr.AppError
	require.True(t, errors.As(err, &appError))
	assert.Equal(t, auth.MsgMustDeactivate, appError.Message)

	// 2. After deactivation, deletion succeeds
	require.NoError(t, service.Ban(ctx, admin, member.ID))
	require.NoError(t, service.Delete(ctx, admin, member.ID))

	_, err = repo.FindByID(ctx, member.ID, auth.ActiveAny)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

/*
TestList_Pagination verifies offset/limit slicing and the stable total count.
*/
func TestList_Pagination(t *testing.T) {
	service, repo, _ := newTestService()
	seedAdmin(repo)
	seedMember(repo, "alice", "alice@example.com")
	seedMember(repo, "brandon", "brandon@example.com")
	seedMember(repo, "carol", "carol@example.com")

	page, total, err := service.List(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, 4, total)

	page, total, err = service.List(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, 4, total)

	page, total, err = service.List(context.Background(), 10, 2)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Equal(t, 4, total)
}

// # Self-Service Profile

/*
TestUpdateUsername verifies canonicalization and the uniqueness check.
*/
func TestUpdateUsername(t *testing.T) {
	service, repo, cache := newTestService()
	member := seedMember(repo, "alice", "alice@example.com")
	seedMember(repo, "brandon", "brandon@example.com")
	ctx := context.Background()

	// 1. Taken handle rejected
	_, err := service.UpdateUsername(ctx, member, "brandon")
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	// 2. Renaming to the caller's own canonical handle is not a collision
	updated, err := service.UpdateUsername(ctx, member, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "alice", updated.Username)

	// 3. Fresh handle folds and persists
	updated, err = service.UpdateUsername(ctx, member, "  Alison ")
	require.NoError(t, err)
	assert.Equal(t, "alison", updated.Username)

	stored, err := repo.FindByID(ctx, member.ID, auth.ActiveAny)
	require.NoError(t, err)
	assert.Equal(t, "alison", stored.Username)
	assert.Equal(t, 2, cache.invalidationCount("alice@example.com"))
}

/*
TestUpdateAvatar verifies avatar replacement persists and invalidates.
*/
func TestUpdateAvatar(t *testing.T) {
	service, repo, cache := newTestService()
	member := seedMember(repo, "alice", "alice@example.com")

	updated, err := service.UpdateAvatar(context.Background(), member, "https://cdn.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", updated.AvatarURL)

	stored, err := repo.FindByID(context.Background(), member.ID, auth.ActiveAny)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", stored.AvatarURL)
	assert.Equal(t, 1, cache.invalidationCount("alice@example.com"))
}
