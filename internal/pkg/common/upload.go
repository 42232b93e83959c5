package common

import (
	"context"
	"mime/multipart"
	"net/http"

	"community_forum/internal/pkg/uploader"
	"community_forum/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentUploads 单次请求内的并发上传数
const maxConcurrentUploads = 5

type UploadHandler struct {
	storage uploader.Storage
}

func NewUploadHandler(storage uploader.Storage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// UploadFile 上传帖子/社区图片（支持批量），返回与表单顺序一致的 URL 列表，
// 结果可直接作为 downloadImage 或 profilePicture 使用
func (h *UploadHandler) UploadFile(c *gin.Context) {
	if h.storage == nil {
		response.Error(c, http.StatusServiceUnavailable, response.ErrServerInternal, "blob storage is not configured")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid form data")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "No files uploaded")
		return
	}

	urls := make([]string, len(files))
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.SetLimit(maxConcurrentUploads)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			url, err := h.upload(ctx, file)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		Fail(c, "upload", err)
		return
	}

	response.Success(c, urls)
}

func (h *UploadHandler) upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return h.storage.Upload(ctx, file.Filename, src)
}
