package cli

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	communityModel "community_forum/internal/domain/community/model"
	postModel "community_forum/internal/domain/post/model"
	"community_forum/internal/pkg/config"
	"community_forum/internal/server"
	"community_forum/pkg/validate"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) (*server.Server, *httptest.Server) {
	v := viper.New()
	config.SetDefaults(v)
	var cfg config.Config
	require.NoError(t, v.Unmarshal(&cfg))
	cfg.Server.Mode = gin.TestMode
	cfg.JWT.Secret = "stress-secret-0123456789abcdef0123456789"
	cfg.Trigger.Workers = 4
	require.NoError(t, cfg.Validate())
	config.GlobalConfig = cfg

	ctx, cancel := context.WithCancel(context.Background())
	srv, err := server.New(ctx, &cfg)
	require.NoError(t, err)
	srv.StartWorkers(ctx)

	ts := httptest.NewServer(srv.Router)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		srv.Close()
	})
	return srv, ts
}

func TestStressCommentCounter(t *testing.T) {
	srv, ts := startServer(t)

	res, err := Stress(context.Background(), ts.Client(), StressOptions{
		BaseURL:     ts.URL,
		CommunityID: "c1",
		PostID:      "p1",
		Users:       20,
		Concurrency: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 20, res.Requests)
	assert.Equal(t, int64(20), res.Success)
	assert.Zero(t, res.Failed)
	assert.Greater(t, res.QPS(), 0.0)

	// 每条评论恰好计数一次
	assert.Eventually(t, func() bool {
		snap, err := srv.Store.Get(context.Background(), "Community/c1/Post/p1")
		if err != nil {
			return false
		}
		v, _ := snap.Get("totalComment")
		return v == int64(20)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStressRejectsNoUsers(t *testing.T) {
	_, err := Stress(context.Background(), nil, StressOptions{Users: 0})
	assert.Error(t, err)
}

func TestStressPayloadsPassValidation(t *testing.T) {
	opts := StressOptions{CommunityID: "c1", PostID: "p1"}
	decode := func(payload map[string]any, into any) {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, into))
	}

	t.Run("createCommunity", func(t *testing.T) {
		var in communityModel.CreateCommunityInput
		decode(communityPayload(opts), &in)
		assert.NoError(t, validate.Struct(&in))
		assert.NotEmpty(t, in.ProfilePicture)
	})

	t.Run("createPost", func(t *testing.T) {
		var in postModel.CreatePostInput
		decode(postPayload(opts), &in)
		assert.NoError(t, validate.Struct(&in))
	})

	t.Run("createComment", func(t *testing.T) {
		var in postModel.CreateCommentInput
		decode(commentPayload(opts, "u1"), &in)
		assert.NoError(t, validate.Struct(&in))
		assert.Equal(t, "u1", in.Creator.CreatorID)
	})
}
