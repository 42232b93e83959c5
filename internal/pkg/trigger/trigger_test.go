package trigger

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"community_forum/internal/pkg/worker"
	"community_forum/pkg/docstore"

	"github.com/bluele/gcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternMatch(t *testing.T) {
	p := MustParsePattern("Community/{communityID}/Post/{postID}/Comment/{commentID}")

	t.Run("captures params", func(t *testing.T) {
		params, ok := p.Match("Community/c1/Post/p1/Comment/m1")
		require.True(t, ok)
		assert.Equal(t, map[string]string{"communityID": "c1", "postID": "p1", "commentID": "m1"}, params)
	})

	t.Run("rejects other collections and depths", func(t *testing.T) {
		_, ok := p.Match("Community/c1/Post/p1/Votes/v1")
		assert.False(t, ok)
		_, ok = p.Match("Community/c1/Post/p1")
		assert.False(t, ok)
	})

	t.Run("invalid patterns", func(t *testing.T) {
		_, err := ParsePattern("Community/{communityID}/Post")
		assert.Error(t, err)
		_, err = ParsePattern("Community/{communityID")
		assert.Error(t, err)
	})
}

func TestFromChange(t *testing.T) {
	created := FromChange(docstore.Change{Path: "User/u1", After: map[string]any{"name": "a"}})
	assert.Equal(t, Created, created.Type)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "a", created.Data().String("name"))

	updated := FromChange(docstore.Change{Path: "User/u1", Before: map[string]any{}, After: map[string]any{}})
	assert.Equal(t, Updated, updated.Type)

	deleted := FromChange(docstore.Change{Path: "User/u1", Before: map[string]any{"name": "b"}})
	assert.Equal(t, Deleted, deleted.Type)
	assert.Equal(t, "b", deleted.Data().String("name"))
	assert.Equal(t, "u1", deleted.DocID())
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("routes by type and pattern", func(t *testing.T) {
		d := NewDispatcher()
		var got []string
		d.On("postCreated", "Community/{communityID}/Post/{postID}", Created, func(ctx context.Context, ev Event) error {
			got = append(got, "created:"+ev.Param("communityID")+"/"+ev.Param("postID"))
			return nil
		})
		d.On("postDeleted", "Community/{communityID}/Post/{postID}", Deleted, func(ctx context.Context, ev Event) error {
			got = append(got, "deleted")
			return nil
		})

		require.NoError(t, d.Dispatch(ctx, Event{ID: "e1", Type: Created, Path: "Community/c1/Post/p1", After: map[string]any{}}))
		require.NoError(t, d.Dispatch(ctx, Event{ID: "e2", Type: Created, Path: "Community/c1/Category/k1", After: map[string]any{}}))
		assert.Equal(t, []string{"created:c1/p1"}, got)
	})

	t.Run("one failing handler does not stop the others", func(t *testing.T) {
		d := NewDispatcher()
		ran := false
		d.On("fails", "User/{userID}", Updated, func(ctx context.Context, ev Event) error {
			return errors.New("boom")
		})
		d.On("works", "User/{userID}", Updated, func(ctx context.Context, ev Event) error {
			ran = true
			return nil
		})

		err := d.Dispatch(ctx, Event{ID: "e1", Type: Updated, Path: "User/u1"})
		assert.Error(t, err)
		assert.True(t, ran)
	})

	t.Run("dedupe marks only after success", func(t *testing.T) {
		d := NewDispatcher(WithDeduper(NewMemoryDeduper(0, time.Hour)))
		calls := 0
		d.On("flaky", "User/{userID}", Created, func(ctx context.Context, ev Event) error {
			calls++
			if calls == 1 {
				return errors.New("transient")
			}
			return nil
		})

		ev := Event{ID: "same", Type: Created, Path: "User/u1"}
		assert.Error(t, d.Dispatch(ctx, ev))
		assert.NoError(t, d.Dispatch(ctx, ev))
		assert.NoError(t, d.Dispatch(ctx, ev))
		assert.Equal(t, 2, calls)
	})
}

func TestSubmit(t *testing.T) {
	t.Run("without pool", func(t *testing.T) {
		_, err := NewDispatcher().Submit(Event{})
		assert.ErrorIs(t, err, ErrNoPool)
	})

	t.Run("each handler runs as its own task", func(t *testing.T) {
		pool := worker.NewWorkerPool(2, 16, 0, nil)
		pool.Start(context.Background())
		defer pool.Stop()

		d := NewDispatcher(WithPool(pool))
		var calls int32
		for _, name := range []string{"a", "b"} {
			d.On(name, "User/{userID}", Created, func(ctx context.Context, ev Event) error {
				atomic.AddInt32(&calls, 1)
				return nil
			})
		}

		n, err := d.Submit(Event{ID: "e1", Type: Created, Path: "User/u1"})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
	})
}

func TestMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	t.Run("expires after ttl", func(t *testing.T) {
		clock := gcache.NewFakeClock()
		m := newMemoryDeduper(16, time.Minute, clock)

		require.NoError(t, m.Mark(ctx, "k"))
		seen, err := m.Seen(ctx, "k")
		require.NoError(t, err)
		assert.True(t, seen)

		clock.Advance(2 * time.Minute)
		seen, err = m.Seen(ctx, "k")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("key count stays bounded", func(t *testing.T) {
		clock := gcache.NewFakeClock()
		m := newMemoryDeduper(100, time.Millisecond, clock)

		for i := 0; i < 10000; i++ {
			require.NoError(t, m.Mark(ctx, fmt.Sprintf("ev-%d:handler", i)))
		}
		assert.LessOrEqual(t, m.Len(), 100)

		// 过期后旧键不再计入，只剩新写入的键
		clock.Advance(time.Hour)
		require.NoError(t, m.Mark(ctx, "ev-new:handler"))
		assert.Equal(t, 1, m.Len())
	})

	t.Run("most recent keys survive eviction", func(t *testing.T) {
		m := NewMemoryDeduper(2, 0)
		for _, k := range []string{"a", "b", "c"} {
			require.NoError(t, m.Mark(ctx, k))
		}
		seen, _ := m.Seen(ctx, "a")
		assert.False(t, seen)
		seen, _ = m.Seen(ctx, "c")
		assert.True(t, seen)
	})
}
