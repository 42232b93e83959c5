package common

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"community_forum/internal/pkg/trigger"
	"community_forum/internal/pkg/worker"
	"community_forum/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventRouter(t *testing.T) (*gin.Engine, *int32) {
	gin.SetMode(gin.TestMode)
	pool := worker.NewWorkerPool(1, 8, 0, nil)
	pool.Start(context.Background())
	t.Cleanup(pool.Stop)

	var calls int32
	d := trigger.NewDispatcher(trigger.WithPool(pool))
	d.On("userCreated", "User/{userID}", trigger.Created, func(ctx context.Context, ev trigger.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	r := gin.New()
	r.POST("/events", NewEventHandler(d).Receive)
	return r, &calls
}

func postEvent(r *gin.Engine, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReceiveEvent(t *testing.T) {
	t.Run("accepted and dispatched", func(t *testing.T) {
		r, calls := newEventRouter(t)
		w := postEvent(r, map[string]any{
			"id":    "evt-1",
			"type":  "created",
			"path":  "User/u1",
			"after": map[string]any{"department": "CS"},
		})
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Eventually(t, func() bool { return atomic.LoadInt32(calls) == 1 }, time.Second, 5*time.Millisecond)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		r, _ := newEventRouter(t)
		w := postEvent(r, map[string]any{"id": "evt-2", "type": "renamed", "path": "User/u1"})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp response.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, response.ErrInvalidParam, resp.Code)
	})

	t.Run("collection path rejected", func(t *testing.T) {
		r, _ := newEventRouter(t)
		w := postEvent(r, map[string]any{"id": "evt-3", "type": "created", "path": "User"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
