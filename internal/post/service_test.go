// AngelaMos | 2026
// service_test.go

package post

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/postboard/internal/core"
)

type inlineTx struct {
	calls int
}

func (tx *inlineTx) WithinTx(
	ctx context.Context,
	fn func(ctx context.Context, q core.DBTX) error,
) error {
	tx.calls++
	return fn(ctx, nil)
}

type memUser struct {
	name, accountName string
	deleted           bool
}

// memRepo keeps posts and the owners they join against.
type memRepo struct {
	mu    sync.Mutex
	users map[string]memUser
	posts map[string]*Post
	clock time.Time
}

func newMemRepo(userIDs ...string) *memRepo {
	m := &memRepo{
		users: make(map[string]memUser),
		posts: make(map[string]*Post),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, id := range userIDs {
		m.users[id] = memUser{name: "Name " + id, accountName: "acct_" + id}
	}
	return m
}

func (m *memRepo) factory(core.DBTX) Repository { return m }

func (m *memRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memRepo) Get(_ context.Context, key Key, value string) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch key {
	case KeyID:
		if p, ok := m.posts[value]; ok {
			cp := *p
			return &cp, nil
		}
	case KeyUserID:
		var latest *Post
		for _, p := range m.posts {
			if p.UserID == value && !p.IsDeleted() &&
				(latest == nil || p.CreatedAt.After(latest.CreatedAt)) {
				latest = p
			}
		}
		if latest != nil {
			cp := *latest
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get post by %s: %w", key, core.ErrNotFound)
}

func (m *memRepo) Create(_ context.Context, p *Post) (*Post, error) {
	if err := validateNew(p); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	owner, ok := m.users[p.UserID]
	if !ok || owner.deleted {
		return nil, fmt.Errorf("create post: owner %s: %w", p.UserID, core.ErrNotFound)
	}

	stored := *p
	stored.CreatedAt = m.tick()
	stored.UpdatedAt = stored.CreatedAt
	m.posts[p.ID] = &stored

	cp := stored
	return &cp, nil
}

func (m *memRepo) Update(_ context.Context, id string, patch Patch) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok || p.IsDeleted() {
		return nil, fmt.Errorf("update post: %w", core.ErrNotFound)
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	p.UpdatedAt = m.tick()

	cp := *p
	return &cp, nil
}

func (m *memRepo) SoftDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok || p.IsDeleted() {
		return fmt.Errorf("delete post: %w", core.ErrNotFound)
	}
	now := m.tick()
	p.DeletedAt = &now
	return nil
}

func (m *memRepo) List(_ context.Context, f Filter, limit, offset int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := []Entry{}
	for _, p := range m.posts {
		owner := m.users[p.UserID]
		if p.IsDeleted() || owner.deleted {
			continue
		}
		switch {
		case f.UserID != "" && p.UserID != f.UserID,
			f.OwnerName != "" && owner.name != f.OwnerName,
			f.OwnerAccountName != "" && owner.accountName != f.OwnerAccountName:
			continue
		}
		entries = append(entries, Entry{
			Post:              *p,
			AuthorName:        owner.name,
			AuthorAccountName: owner.accountName,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	if offset >= len(entries) {
		return []Entry{}, nil
	}
	entries = entries[offset:]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *memRepo) Ownership(_ context.Context, postID, userID string) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[postID]
	if !ok || p.IsDeleted() {
		return false, false, nil
	}
	return true, p.UserID == userID, nil
}

func newTestService(repo *memRepo) (*Service, *inlineTx) {
	tx := &inlineTx{}
	return NewService(tx, repo.factory), tx
}

func strPtr(s string) *string { return &s }

func TestCreatePostTrimsAndStores(t *testing.T) {
	repo := newMemRepo("alice")
	svc, tx := newTestService(repo)

	p, err := svc.CreatePost(context.Background(), "alice", "  Hello ", " World ")
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Hello", p.Title)
	assert.Equal(t, "World", p.Description)
	assert.Equal(t, 1, tx.calls)
}

func TestCreatePostForDeletedOwnerIsNotFound(t *testing.T) {
	repo := newMemRepo("alice")
	repo.users["alice"] = memUser{name: "Alice", accountName: "alice", deleted: true}
	svc, _ := newTestService(repo)

	_, err := svc.CreatePost(context.Background(), "alice", "t", "d")
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, repo.posts)
}

func TestCreatePostRequiresTitle(t *testing.T) {
	svc, _ := newTestService(newMemRepo("alice"))

	_, err := svc.CreatePost(context.Background(), "alice", "   ", "d")
	assert.Equal(t, core.KindValidation, core.KindOf(err))
	assert.Equal(t, "title", core.FieldOf(err))
}

func TestUpdatePostByNonOwnerIsNotOwned(t *testing.T) {
	repo := newMemRepo("alice", "bob")
	svc, _ := newTestService(repo)
	ctx := context.Background()

	p, err := svc.CreatePost(ctx, "alice", "Mine", "Body")
	require.NoError(t, err)

	_, err = svc.UpdatePost(ctx, "bob", p.ID, Patch{Title: strPtr("Stolen")})
	assert.ErrorIs(t, err, core.ErrNotOwned)
	assert.NotErrorIs(t, err, core.ErrNotFound)

	got, err := svc.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)
}

func TestUpdatePostMissingIsNotFound(t *testing.T) {
	svc, _ := newTestService(newMemRepo("alice"))

	_, err := svc.UpdatePost(context.Background(), "alice", "missing", Patch{Title: strPtr("x")})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.NotErrorIs(t, err, core.ErrNotOwned)
}

func TestUpdatePostTitleOnlyKeepsDescription(t *testing.T) {
	repo := newMemRepo("alice")
	svc, _ := newTestService(repo)
	ctx := context.Background()

	p, err := svc.CreatePost(ctx, "alice", "Old", "Keep me")
	require.NoError(t, err)

	updated, err := svc.UpdatePost(ctx, "alice", p.ID, Patch{Title: strPtr("New")})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "Keep me", updated.Description)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))
}

func TestDeletePost(t *testing.T) {
	repo := newMemRepo("alice", "bob")
	svc, _ := newTestService(repo)
	ctx := context.Background()

	p, err := svc.CreatePost(ctx, "alice", "t", "d")
	require.NoError(t, err)

	ok, err := svc.DeletePost(ctx, "bob", p.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, err, core.ErrNotOwned)

	ok, err = svc.DeletePost(ctx, "alice", p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	ok, err = svc.DeletePost(ctx, "alice", p.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListPostsNewestFirstWithinLimit(t *testing.T) {
	repo := newMemRepo("alice", "bob")
	svc, _ := newTestService(repo)
	ctx := context.Background()

	for i := range 5 {
		_, err := svc.CreatePost(ctx, "alice", fmt.Sprintf("a%d", i), "d")
		require.NoError(t, err)
	}
	_, err := svc.CreatePost(ctx, "bob", "b0", "d")
	require.NoError(t, err)

	entries, err := svc.ListPosts(ctx, ListParams{UserID: "alice", Limit: 3})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"a4", "a3", "a2"}, titles(entries))
	assert.Equal(t, "acct_alice", entries[0].AuthorAccountName)

	entries, err = svc.ListPosts(ctx, ListParams{UserID: "alice", Limit: 3, Offset: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a0"}, titles(entries))

	entries, err = svc.ListPosts(ctx, ListParams{All: true, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, entries, 6)
	assert.Equal(t, "b0", entries[0].Title)
}

func TestListPostsByOwnerNames(t *testing.T) {
	repo := newMemRepo("alice", "bob")
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, "alice", "a", "d")
	require.NoError(t, err)
	_, err = svc.CreatePost(ctx, "bob", "b", "d")
	require.NoError(t, err)

	entries, err := svc.ListPosts(ctx, ListParams{OwnerName: "Name bob", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, titles(entries))

	entries, err = svc.ListPosts(ctx, ListParams{OwnerAccountName: "acct_alice", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, titles(entries))
}

func TestListPostsHidesDeletedOwners(t *testing.T) {
	repo := newMemRepo("alice")
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, "alice", "a", "d")
	require.NoError(t, err)
	repo.users["alice"] = memUser{name: "Name alice", accountName: "acct_alice", deleted: true}

	entries, err := svc.ListPosts(ctx, ListParams{All: true, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListPostsValidatesParams(t *testing.T) {
	tests := []struct {
		name   string
		params ListParams
		field  string
	}{
		{"no selector", ListParams{Limit: 10}, "selector"},
		{"two selectors", ListParams{UserID: "u", OwnerName: "n", Limit: 10}, "selector"},
		{"all plus owner", ListParams{All: true, OwnerAccountName: "a", Limit: 10}, "selector"},
		{"zero limit", ListParams{All: true}, "limit"},
		{"limit above max", ListParams{All: true, Limit: MaxListLimit + 1}, "limit"},
		{"negative offset", ListParams{All: true, Limit: 10, Offset: -1}, "offset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, tx := newTestService(newMemRepo())

			_, err := svc.ListPosts(context.Background(), tt.params)
			assert.Equal(t, core.KindValidation, core.KindOf(err))
			assert.Equal(t, tt.field, core.FieldOf(err))
			assert.Zero(t, tx.calls)
		})
	}
}

func TestLatestByUser(t *testing.T) {
	repo := newMemRepo("alice")
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, err := svc.LatestByUser(ctx, "alice")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = svc.CreatePost(ctx, "alice", "first", "d")
	require.NoError(t, err)
	second, err := svc.CreatePost(ctx, "alice", "second", "d")
	require.NoError(t, err)

	latest, err := svc.LatestByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	_, err = svc.DeletePost(ctx, "alice", second.ID)
	require.NoError(t, err)

	latest, err = svc.LatestByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "first", latest.Title)
}

func TestGetPostRejectsBlankID(t *testing.T) {
	svc, tx := newTestService(newMemRepo())

	_, err := svc.GetPost(context.Background(), "")
	assert.Equal(t, core.KindValidation, core.KindOf(err))
	assert.Zero(t, tx.calls)
}

func titles(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Title)
	}
	return out
}
