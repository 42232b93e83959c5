package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"community_forum/internal/domain/post/repository"
	"community_forum/internal/domain/post/service"
	"community_forum/pkg/docstore/memstore"
	"community_forum/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter() (*gin.Engine, *memstore.Store) {
	gin.SetMode(gin.TestMode)
	store := memstore.New()
	h := NewPostHandler(service.NewPostService(repository.NewPostRepository(store), nil, service.Options{}), nil)

	r := gin.New()
	g := r.Group("/callable")
	g.POST("/createPost", h.CreatePost)
	g.POST("/createComment", h.CreateComment)
	g.POST("/updatePost", h.UpdatePost)
	g.POST("/updateComment", h.UpdateComment)
	return r, store
}

func call(r *gin.Engine, name string, body any) (*httptest.ResponseRecorder, response.Response) {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/callable/"+name, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

var creator = map[string]any{
	"creatorID":      "bob",
	"name":           "Bob",
	"department":     "Arts",
	"profilePicture": "https://cdn.example.com/bob.png",
}

func TestCreatePostHandler(t *testing.T) {
	r, store := setupRouter()
	require.NoError(t, store.Set(context.Background(), "Community/c1", map[string]any{"name": "Physics"}))

	t.Run("success", func(t *testing.T) {
		w, resp := call(r, "createPost", map[string]any{
			"postID":      "p1",
			"communityID": "c1",
			"creator":     creator,
			"title":       "Hello",
			"content":     "World",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, response.CodeSuccess, resp.Code)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "p1", data["postID"])
		assert.Equal(t, "Physics", data["community"].(map[string]any)["name"])
	})

	t.Run("missing title", func(t *testing.T) {
		w, resp := call(r, "createPost", map[string]any{
			"postID": "p2", "communityID": "c1", "creator": creator, "content": "World",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, response.ErrInvalidParam, resp.Code)
		assert.Contains(t, resp.Message, "title")
	})
}

func TestNotFoundHandlers(t *testing.T) {
	r, _ := setupRouter()

	w, resp := call(r, "createComment", map[string]any{
		"commentID": "cm1", "postID": "p1", "communityID": "c1", "creator": creator, "content": "hi",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.ErrPostNotFound, resp.Code)

	w, resp = call(r, "updateComment", map[string]any{
		"commentID": "cm1", "postID": "p1", "communityID": "c1", "content": "hi",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.ErrCommentNotFound, resp.Code)
}
