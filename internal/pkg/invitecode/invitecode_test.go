package invitecode

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"community_forum/pkg/docstore/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandom(t *testing.T) {
	t.Run("maps bytes onto the alphabet", func(t *testing.T) {
		code, err := Random(bytes.NewReader([]byte{0, 26, 52, 61, 62}), 5)
		require.NoError(t, err)
		assert.Equal(t, "Aa09A", code)
	})

	t.Run("short read", func(t *testing.T) {
		_, err := Random(bytes.NewReader([]byte{1}), 5)
		assert.Error(t, err)
	})

	t.Run("invalid length", func(t *testing.T) {
		_, err := Random(bytes.NewReader(nil), 0)
		assert.Error(t, err)
	})
}

func TestGenerateSkipsCodesInUse(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, store.Set(ctx, "Community/c1", map[string]any{"inviteCode": "AAAAA"}))
	require.NoError(t, store.Set(ctx, "Community/c2", map[string]any{"inviteCode": "BBBBB"}))

	// 前两次候选都已被占用，第三次可用
	src := bytes.NewReader([]byte{0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2})
	g := NewGenerator(store, 5, WithReader(src))

	code, err := g.Generate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CCCCC", code)
}

func TestGenerateProducesUniqueCodes(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	g := NewGenerator(store, 0)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := g.Generate(ctx)
		require.NoError(t, err)
		assert.Len(t, code, DefaultLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(Alphabet, r))
		}
		assert.False(t, seen[code])
		seen[code] = true
		require.NoError(t, store.Set(ctx, "Community/"+store.NewID(), map[string]any{"inviteCode": code}))
	}
}

func TestGenerateHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGenerator(memstore.New(), 5).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
