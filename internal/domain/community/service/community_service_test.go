package service

import (
	"context"
	"io"
	"testing"
	"time"

	"community_forum/internal/domain/community/model"
	"community_forum/internal/domain/community/repository"
	"community_forum/internal/pkg/invitecode"
	"community_forum/internal/pkg/trigger"
	"community_forum/internal/pkg/uploader"
	"community_forum/pkg/docstore"
	"community_forum/pkg/docstore/memstore"
	"community_forum/pkg/validate"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStorage is a mock of uploader.Storage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	args := m.Called(filename)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) DeleteByURL(ctx context.Context, ref string) error {
	args := m.Called(ref)
	return args.Error(0)
}

var testNow = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestService(blob uploader.Storage) (CommunityService, *memstore.Store) {
	store := memstore.New(memstore.WithClock(func() time.Time { return testNow }))
	svc := NewCommunityService(repository.NewCommunityRepository(store), invitecode.NewGenerator(store, 5), blob, 4)
	return svc, store
}

func validCreateInput(id string) *model.CreateCommunityInput {
	return &model.CreateCommunityInput{
		CommunityID:    id,
		Name:           "Physics",
		Department:     "Science",
		Description:    "Physics students",
		AdminList:      []string{"admin1", "admin2"},
		ProfilePicture: "https://bucket.example.com/c.png",
	}
}

func strPtr(s string) *string { return &s }

func TestCreateCommunity(t *testing.T) {
	ctx := context.Background()

	t.Run("persists defaults and tracking document", func(t *testing.T) {
		svc, store := newTestService(nil)

		c, err := svc.CreateCommunity(ctx, validCreateInput("c1"))
		require.NoError(t, err)
		assert.Equal(t, "c1", c.CommunityID)
		assert.Equal(t, model.VisibilityPublic, c.Visibility)
		assert.False(t, c.WaitForApproval)
		assert.Empty(t, c.UserList)
		assert.Equal(t, int64(0), c.TotalPost)
		assert.Equal(t, testNow, c.TimeCreated)
		assert.Len(t, c.InviteCode, 5)

		trackers, err := store.Query(ctx, docstore.Collection("NewPost").Where("communityID", docstore.OpEqual, "c1"))
		require.NoError(t, err)
		require.Len(t, trackers, 1)
		assert.Equal(t, "admin1", trackers[0].String("userID"))
		assert.Equal(t, int64(0), trackers[0].Data["totalNewPost"])
	})

	t.Run("invite codes are unique across communities", func(t *testing.T) {
		svc, _ := newTestService(nil)
		codes := make(map[string]bool)
		for i := 0; i < 20; i++ {
			c, err := svc.CreateCommunity(ctx, validCreateInput("c"+string(rune('a'+i))))
			require.NoError(t, err)
			assert.False(t, codes[c.InviteCode])
			codes[c.InviteCode] = true
		}
	})

	t.Run("validation error writes nothing", func(t *testing.T) {
		svc, store := newTestService(nil)
		in := validCreateInput("c1")
		in.AdminList = nil

		_, err := svc.CreateCommunity(ctx, in)
		assert.ErrorIs(t, err, validate.ErrInvalid)
		assert.Equal(t, 0, store.Len())
	})
}

func TestUpdateCommunity(t *testing.T) {
	ctx := context.Background()

	t.Run("only supplied fields change", func(t *testing.T) {
		svc, store := newTestService(nil)
		_, err := svc.CreateCommunity(ctx, validCreateInput("c1"))
		require.NoError(t, err)

		require.NoError(t, svc.UpdateCommunity(ctx, &model.UpdateCommunityInput{
			CommunityID: "c1",
			Description: strPtr("updated"),
		}))

		snap, err := store.Get(ctx, "Community/c1")
		require.NoError(t, err)
		assert.Equal(t, "updated", snap.String("description"))
		assert.Equal(t, "Physics", snap.String("name"))
	})

	t.Run("replacing the picture deletes the old one first", func(t *testing.T) {
		blob := new(MockStorage)
		svc, store := newTestService(blob)
		_, err := svc.CreateCommunity(ctx, validCreateInput("c1"))
		require.NoError(t, err)

		blob.On("DeleteByURL", "https://bucket.example.com/c.png").Return(nil).Once()
		require.NoError(t, svc.UpdateCommunity(ctx, &model.UpdateCommunityInput{
			CommunityID:       "c1",
			ProfilePicture:    strPtr("https://bucket.example.com/new.png"),
			OldProfilePicture: strPtr("https://bucket.example.com/c.png"),
		}))
		blob.AssertExpectations(t)

		snap, _ := store.Get(ctx, "Community/c1")
		assert.Equal(t, "https://bucket.example.com/new.png", snap.String("profilePicture"))
	})

	t.Run("blob failure aborts the update", func(t *testing.T) {
		blob := new(MockStorage)
		svc, store := newTestService(blob)
		_, err := svc.CreateCommunity(ctx, validCreateInput("c1"))
		require.NoError(t, err)

		blob.On("DeleteByURL", mock.Anything).Return(errors.New("oss down"))
		err = svc.UpdateCommunity(ctx, &model.UpdateCommunityInput{
			CommunityID:       "c1",
			Name:              strPtr("Renamed"),
			ProfilePicture:    strPtr("new.png"),
			OldProfilePicture: strPtr("old.png"),
		})
		assert.Error(t, err)

		snap, _ := store.Get(ctx, "Community/c1")
		assert.Equal(t, "Physics", snap.String("name"))
	})

	t.Run("missing community", func(t *testing.T) {
		svc, store := newTestService(nil)
		err := svc.UpdateCommunity(ctx, &model.UpdateCommunityInput{CommunityID: "ghost", Name: strPtr("x")})
		assert.ErrorIs(t, err, ErrCommunityNotFound)
		assert.ErrorIs(t, err, docstore.ErrNotFound)
		assert.Equal(t, 0, store.Len())
	})
}

func TestGetMemberInfo(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(nil)

	require.NoError(t, store.Set(ctx, "Community/c1", map[string]any{
		"name":      "Physics",
		"userList":  []string{"u1", "ghost", "u2"},
		"adminList": []string{"a1"},
	}))
	for id, name := range map[string]string{"u1": "Ann", "u2": "Bob", "a1": "Cat"} {
		require.NoError(t, store.Set(ctx, "User/"+id, map[string]any{
			"name":           name,
			"department":     "Science",
			"profilePicture": id + ".png",
		}))
	}

	info, err := svc.GetMemberInfo(ctx, &model.CommunityIDInput{CommunityID: "c1"})
	require.NoError(t, err)
	require.Len(t, info.UserList, 2)
	assert.Equal(t, "u1", info.UserList[0].UserID)
	assert.Equal(t, "Ann", info.UserList[0].Name)
	assert.Equal(t, "u2", info.UserList[1].UserID)
	require.Len(t, info.AdminList, 1)
	assert.Equal(t, "Cat", info.AdminList[0].Name)

	_, err = svc.GetMemberInfo(ctx, &model.CommunityIDInput{CommunityID: "none"})
	assert.ErrorIs(t, err, ErrCommunityNotFound)
}

func TestOnCommunityCreated(t *testing.T) {
	ctx := context.Background()

	t.Run("creates subscription and announcement category", func(t *testing.T) {
		svc, store := newTestService(nil)
		require.NoError(t, store.Set(ctx, "Community/c1", map[string]any{"inviteCode": "ABCDE"}))

		err := svc.OnCommunityCreated(ctx, trigger.Event{
			Type:   trigger.Created,
			Path:   "Community/c1",
			After:  map[string]any{"inviteCode": "ABCDE"},
			Params: map[string]string{"communityID": "c1"},
		})
		require.NoError(t, err)

		sub, err := store.Get(ctx, "Community/c1/Subscription/subscription")
		require.NoError(t, err)
		assert.Equal(t, []any{}, sub.Data["userList"])

		cats, err := store.Query(ctx, docstore.Collection("Community/c1/Category"))
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, model.AnnouncementCategoryTitle, cats[0].String("title"))
		assert.Equal(t, true, cats[0].Data["isAnnouncement"])

		c, _ := store.Get(ctx, "Community/c1")
		assert.Equal(t, "ABCDE", c.String("inviteCode"))
	})

	t.Run("fills a missing invite code", func(t *testing.T) {
		svc, store := newTestService(nil)
		require.NoError(t, store.Set(ctx, "Community/c2", map[string]any{"name": "Legacy"}))

		require.NoError(t, svc.OnCommunityCreated(ctx, trigger.Event{
			Type:   trigger.Created,
			Path:   "Community/c2",
			After:  map[string]any{"name": "Legacy"},
			Params: map[string]string{"communityID": "c2"},
		}))

		c, _ := store.Get(ctx, "Community/c2")
		assert.Len(t, c.String("inviteCode"), 5)
		assert.Equal(t, "Legacy", c.String("name"))
	})
}
