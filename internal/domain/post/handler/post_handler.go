package handler

import (
	"net/http"

	"community_forum/internal/domain/post/model"
	"community_forum/internal/domain/post/service"
	"community_forum/internal/pkg/common"
	"community_forum/pkg/metrics"
	"community_forum/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// PostHandler 帖子与评论可调用接口
type PostHandler struct {
	service service.PostService
	metrics *metrics.MetricsCollector
}

func NewPostHandler(service service.PostService, collector *metrics.MetricsCollector) *PostHandler {
	return &PostHandler{service: service, metrics: collector}
}

// CreatePost 发帖，返回持久化后的文档
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input model.CreatePostInput
	if !common.BindJSON(c, &input) {
		return
	}
	post, err := h.service.CreatePost(c.Request.Context(), &input)
	h.metrics.RecordCallable("createPost", common.Outcome(err))
	if err != nil {
		h.fail(c, "createPost", err)
		return
	}
	response.Success(c, post)
}

// CreateComment 评论或回复
func (h *PostHandler) CreateComment(c *gin.Context) {
	var input model.CreateCommentInput
	if !common.BindJSON(c, &input) {
		return
	}
	comment, err := h.service.CreateComment(c.Request.Context(), &input)
	h.metrics.RecordCallable("createComment", common.Outcome(err))
	if err != nil {
		h.fail(c, "createComment", err)
		return
	}
	response.Success(c, comment)
}

func (h *PostHandler) UpdatePost(c *gin.Context) {
	var input model.UpdatePostInput
	if !common.BindJSON(c, &input) {
		return
	}
	post, err := h.service.UpdatePost(c.Request.Context(), &input)
	h.metrics.RecordCallable("updatePost", common.Outcome(err))
	if err != nil {
		h.fail(c, "updatePost", err)
		return
	}
	response.Success(c, post)
}

func (h *PostHandler) UpdateComment(c *gin.Context) {
	var input model.UpdateCommentInput
	if !common.BindJSON(c, &input) {
		return
	}
	comment, err := h.service.UpdateComment(c.Request.Context(), &input)
	h.metrics.RecordCallable("updateComment", common.Outcome(err))
	if err != nil {
		h.fail(c, "updateComment", err)
		return
	}
	response.Success(c, comment)
}

func (h *PostHandler) fail(c *gin.Context, name string, err error) {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		response.Error(c, http.StatusNotFound, response.ErrPostNotFound, "Post not found")
	case errors.Is(err, service.ErrCommentNotFound):
		response.Error(c, http.StatusNotFound, response.ErrCommentNotFound, "Comment not found")
	default:
		common.Fail(c, name, err)
	}
}
