package service

import (
	"context"
	"testing"

	"community_forum/internal/domain/user/model"
	"community_forum/internal/domain/user/repository"
	"community_forum/internal/pkg/trigger"
	"community_forum/pkg/docstore"
	"community_forum/pkg/docstore/memstore"
	shared "community_forum/pkg/model"
	"community_forum/pkg/validate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (UserService, *memstore.Store) {
	store := memstore.New()
	return NewUserService(repository.NewUserRepository(store)), store
}

func creatorOf(id, name string) map[string]any {
	return shared.Creator{CreatorID: id, Name: name, Department: "Science", ProfilePicture: id + ".png"}.ToMap()
}

func seedContent(t *testing.T, store *memstore.Store) {
	ctx := context.Background()
	docs := map[string]map[string]any{
		"Community/c1/Post/p1":              {"title": "alice in c1", "creator": creatorOf("alice", "Alice")},
		"Community/c2/Post/p2":              {"title": "alice in c2", "creator": creatorOf("alice", "Alice")},
		"Community/c1/Post/p3":              {"title": "bob", "creator": creatorOf("bob", "Bob")},
		"Community/c1/Post/p3/Comment/cm1":  {"content": "alice comment", "creator": creatorOf("alice", "Alice")},
		"Community/c1/Post/p3/Comment/cm2":  {"content": "bob comment", "creator": creatorOf("bob", "Bob")},
		"Community/c3/MemberApproval/alice": {"userID": "alice", "name": "Alice"},
		"Community/c3/MemberApproval/bob":   {"userID": "bob", "name": "Bob"},
		"User/alice":                        {"name": "Alice", "department": "Science", "profilePicture": "alice.png"},
	}
	for path, data := range docs {
		require.NoError(t, store.Set(ctx, path, data))
	}
}

func updateEvent(before, after map[string]any) trigger.Event {
	return trigger.Event{
		ID:     "ev-1",
		Type:   trigger.Updated,
		Path:   "User/alice",
		Before: before,
		After:  after,
		Params: map[string]string{"userID": "alice"},
	}
}

func TestOnUserUpdated(t *testing.T) {
	ctx := context.Background()
	before := map[string]any{"name": "Alice", "department": "Science", "profilePicture": "alice.png"}

	t.Run("rewrites only the user's documents", func(t *testing.T) {
		svc, store := newTestService()
		seedContent(t, store)
		bobPost, _ := store.Get(ctx, "Community/c1/Post/p3")
		bobComment, _ := store.Get(ctx, "Community/c1/Post/p3/Comment/cm2")
		bobRequest, _ := store.Get(ctx, "Community/c3/MemberApproval/bob")

		after := map[string]any{"name": "Alice Smith", "department": "Arts", "profilePicture": "new.png"}
		require.NoError(t, svc.OnUserUpdated(ctx, updateEvent(before, after)))

		want := map[string]any{"creatorID": "alice", "name": "Alice Smith", "department": "Arts", "profilePicture": "new.png"}
		for _, path := range []string{"Community/c1/Post/p1", "Community/c2/Post/p2", "Community/c1/Post/p3/Comment/cm1"} {
			snap, err := store.Get(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, want, snap.Data["creator"], path)
		}
		p1, _ := store.Get(ctx, "Community/c1/Post/p1")
		assert.Equal(t, "alice in c1", p1.String("title"))

		req, _ := store.Get(ctx, "Community/c3/MemberApproval/alice")
		assert.Equal(t, map[string]any{"userID": "alice", "name": "Alice Smith", "department": "Arts", "profilePicture": "new.png"}, req.Data)

		for _, snap := range []*docstore.Snapshot{bobPost, bobComment, bobRequest} {
			got, err := store.Get(ctx, snap.Path)
			require.NoError(t, err)
			assert.Equal(t, snap.Data, got.Data, snap.Path)
		}
	})

	t.Run("unrelated field change is a no-op", func(t *testing.T) {
		svc, store := newTestService()
		seedContent(t, store)
		writes := 0
		store.Watch(func(docstore.Change) { writes++ })

		after := map[string]any{"name": "Alice", "department": "Science", "profilePicture": "alice.png", "bio": "hi"}
		require.NoError(t, svc.OnUserUpdated(ctx, updateEvent(before, after)))
		assert.Zero(t, writes)
	})
}

func TestPropagateReport(t *testing.T) {
	svc, store := newTestService()
	seedContent(t, store)

	report, err := svc.Propagate(context.Background(), &model.User{UserID: "alice", Name: "A", Department: "D", ProfilePicture: "p"})
	require.NoError(t, err)
	assert.Equal(t, &model.PropagationReport{Posts: 2, Comments: 1, Approvals: 1}, report)
}

func TestSaveProfile(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	var events []trigger.EventType
	store.Watch(func(c docstore.Change) { events = append(events, trigger.FromChange(c).Type) })

	u, err := svc.SaveProfile(ctx, &model.SaveProfileInput{UserID: "alice", Name: "Alice", Department: "Science"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserID)

	u, err = svc.SaveProfile(ctx, &model.SaveProfileInput{UserID: "alice", Name: "Alice", Department: "Arts", ProfilePicture: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, "Arts", u.Department)
	assert.Equal(t, []trigger.EventType{trigger.Created, trigger.Updated}, events)

	_, err = svc.SaveProfile(ctx, &model.SaveProfileInput{UserID: "alice"})
	assert.ErrorIs(t, err, validate.ErrInvalid)
}
