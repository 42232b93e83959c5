package memstore

import (
	"context"
	"testing"
	"time"

	"community_forum/pkg/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return New(WithClock(func() time.Time { return fixedNow }))
}

func TestSetGetUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	t.Run("get missing document", func(t *testing.T) {
		_, err := s.Get(ctx, "Community/none")
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("set then get normalizes values", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "Community/c1", map[string]any{
			"name":      "Physics",
			"userList":  []string{"u1"},
			"totalPost": 0,
			"created":   docstore.ServerTimestamp,
		}))
		snap, err := s.Get(ctx, "Community/c1")
		require.NoError(t, err)
		assert.Equal(t, "c1", snap.ID)
		assert.Equal(t, []any{"u1"}, snap.Data["userList"])
		assert.Equal(t, int64(0), snap.Data["totalPost"])
		assert.Equal(t, fixedNow, snap.Data["created"])
	})

	t.Run("update nested field", func(t *testing.T) {
		require.NoError(t, s.Update(ctx, "Community/c1", map[string]any{
			"owner.name": "Ann",
			"totalPost":  docstore.Increment(2),
		}))
		snap, err := s.Get(ctx, "Community/c1")
		require.NoError(t, err)
		assert.Equal(t, "Ann", snap.String("owner.name"))
		assert.Equal(t, int64(2), snap.Data["totalPost"])
	})

	t.Run("update missing document fails", func(t *testing.T) {
		err := s.Update(ctx, "Community/ghost", map[string]any{"a": 1})
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("invalid path", func(t *testing.T) {
		err := s.Set(ctx, "Community", map[string]any{})
		assert.ErrorIs(t, err, docstore.ErrInvalidPath)
	})
}

func TestMergeAndArrayUnion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.Set(ctx, "NewPost/n1", map[string]any{
		"userID":       "u1",
		"totalNewPost": 3,
		"meta":         map[string]any{"a": 1, "b": 2},
	}))
	require.NoError(t, s.Merge(ctx, "NewPost/n1", map[string]any{
		"totalNewPost": docstore.Increment(1),
		"meta":         map[string]any{"b": 5},
	}))

	snap, err := s.Get(ctx, "NewPost/n1")
	require.NoError(t, err)
	assert.Equal(t, "u1", snap.Data["userID"])
	assert.Equal(t, int64(4), snap.Data["totalNewPost"])
	assert.Equal(t, map[string]any{"a": int64(1), "b": int64(5)}, snap.Data["meta"])

	require.NoError(t, s.Set(ctx, "Community/c1", map[string]any{"userList": []string{"u1"}}))
	for i := 0; i < 2; i++ {
		require.NoError(t, s.Update(ctx, "Community/c1", map[string]any{
			"userList": docstore.StringsUnion("u1", "u2"),
		}))
	}
	snap, err = s.Get(ctx, "Community/c1")
	require.NoError(t, err)
	assert.Equal(t, []any{"u1", "u2"}, snap.Data["userList"])
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	docs := map[string]map[string]any{
		"Community/c1/Post/p1":            {"creator": map[string]any{"creatorID": "u1"}},
		"Community/c1/Post/p2":            {"creator": map[string]any{"creatorID": "u2"}},
		"Community/c2/Post/p3":            {"creator": map[string]any{"creatorID": "u1"}},
		"Community/c1/Post/p1/Comment/m1": {"creator": map[string]any{"creatorID": "u1"}, "tags": []string{"x"}},
		"PostSubscription/s1":             {"postID": "p1", "userID": "u1"},
		"PostSubscription/s2":             {"postID": "p1", "userID": "u2"},
		"PostSubscription/s3":             {"postID": "p1"},
	}
	for path, data := range docs {
		require.NoError(t, s.Set(ctx, path, data))
	}

	t.Run("collection equality", func(t *testing.T) {
		snaps, err := s.Query(ctx, docstore.Collection("Community/c1/Post").Where("creator.creatorID", docstore.OpEqual, "u1"))
		require.NoError(t, err)
		require.Len(t, snaps, 1)
		assert.Equal(t, "Community/c1/Post/p1", snaps[0].Path)
	})

	t.Run("collection group", func(t *testing.T) {
		snaps, err := s.Query(ctx, docstore.CollectionGroup("Post").Where("creator.creatorID", docstore.OpEqual, "u1"))
		require.NoError(t, err)
		require.Len(t, snaps, 2)
		assert.Equal(t, "p1", snaps[0].ID)
		assert.Equal(t, "p3", snaps[1].ID)
	})

	t.Run("not equal skips missing field", func(t *testing.T) {
		snaps, err := s.Query(ctx, docstore.Collection("PostSubscription").
			Where("postID", docstore.OpEqual, "p1").
			Where("userID", docstore.OpNotEqual, "u1"))
		require.NoError(t, err)
		require.Len(t, snaps, 1)
		assert.Equal(t, "s2", snaps[0].ID)
	})

	t.Run("array contains and limit", func(t *testing.T) {
		snaps, err := s.Query(ctx, docstore.CollectionGroup("Comment").Where("tags", docstore.OpArrayContains, "x"))
		require.NoError(t, err)
		assert.Len(t, snaps, 1)

		snaps, err = s.Query(ctx, docstore.Collection("PostSubscription").WithLimit(2))
		require.NoError(t, err)
		assert.Len(t, snaps, 2)
	})
}

func TestBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	b := s.Batch()
	b.Set("User/u1", map[string]any{"name": "a"})
	b.Update("User/missing", map[string]any{"name": "b"})
	err := b.Commit(ctx)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.Equal(t, 0, s.Len())

	assert.ErrorIs(t, b.Commit(ctx), docstore.ErrBatchCommitted)

	big := s.Batch()
	for i := 0; i <= docstore.MaxBatchWrites; i++ {
		big.Set(docstore.Join("User", s.NewID()), map[string]any{})
	}
	assert.ErrorIs(t, big.Commit(ctx), docstore.ErrBatchTooLarge)
}

func TestTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("conflict triggers retry", func(t *testing.T) {
		s := newTestStore()
		require.NoError(t, s.Set(ctx, "Community/c1", map[string]any{"totalPost": 1}))

		attempts := 0
		err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			attempts++
			snap, err := tx.Get("Community/c1")
			if err != nil {
				return err
			}
			if attempts == 1 {
				require.NoError(t, s.Update(ctx, "Community/c1", map[string]any{"totalPost": docstore.Increment(10)}))
			}
			total := snap.Data["totalPost"].(int64)
			tx.Update("Community/c1", map[string]any{"totalPost": total + 1})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, attempts)

		snap, err := s.Get(ctx, "Community/c1")
		require.NoError(t, err)
		assert.Equal(t, int64(12), snap.Data["totalPost"])
	})

	t.Run("exhausted retries", func(t *testing.T) {
		s := New(WithMaxAttempts(2))
		require.NoError(t, s.Set(ctx, "Community/c1", map[string]any{"n": 0}))
		err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			if _, err := tx.Get("Community/c1"); err != nil {
				return err
			}
			require.NoError(t, s.Update(ctx, "Community/c1", map[string]any{"n": docstore.Increment(1)}))
			tx.Delete("Community/c1")
			return nil
		})
		assert.ErrorIs(t, err, docstore.ErrTxConflict)
	})

	t.Run("read after write rejected", func(t *testing.T) {
		s := newTestStore()
		err := s.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			tx.Set("User/u1", map[string]any{})
			_, err := tx.Get("User/u1")
			return err
		})
		assert.ErrorIs(t, err, docstore.ErrReadAfterWrite)
		assert.Equal(t, 0, s.Len())
	})
}

func TestWatchReportsChanges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	var changes []docstore.Change
	s.Watch(func(c docstore.Change) { changes = append(changes, c) })

	require.NoError(t, s.Set(ctx, "User/u1", map[string]any{"name": "a"}))
	require.NoError(t, s.Update(ctx, "User/u1", map[string]any{"name": "b"}))
	require.NoError(t, s.Delete(ctx, "User/u1"))
	require.NoError(t, s.Delete(ctx, "User/u1"))

	require.Len(t, changes, 3)
	assert.Nil(t, changes[0].Before)
	assert.Equal(t, "a", changes[1].Before["name"])
	assert.Equal(t, "b", changes[1].After["name"])
	assert.Nil(t, changes[2].After)
}
