package uploader

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"community_forum/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Storage 对象存储：上传帖子/社区图片，按引用删除旧图片
type Storage interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
	DeleteByURL(ctx context.Context, ref string) error
}

type AliyunOSSStorage struct {
	bucket *oss.Bucket
	config config.OSSConfig
}

func NewAliyunOSSStorage(cfg config.OSSConfig) (*AliyunOSSStorage, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, errors.Wrap(err, "oss: create client")
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, errors.Wrap(err, "oss: open bucket")
	}

	return &AliyunOSSStorage{bucket: bucket, config: cfg}, nil
}

// Upload 以 YYYYMMDD/uuid.ext 为对象名上传，返回公网地址
func (u *AliyunOSSStorage) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	key := fmt.Sprintf("%s/%s%s", time.Now().Format("20060102"), uuid.New().String(), path.Ext(filename))
	if err := u.bucket.PutObject(key, r, oss.WithContext(ctx)); err != nil {
		return "", errors.Wrapf(err, "oss: put %s", key)
	}
	// 假设 bucket 为公共读或挂了 CDN
	return fmt.Sprintf("https://%s.%s/%s", u.config.BucketName, u.config.Endpoint, key), nil
}

// DeleteByURL 删除引用指向的对象。对象不存在时 OSS 同样返回成功。
func (u *AliyunOSSStorage) DeleteByURL(ctx context.Context, ref string) error {
	key, err := ObjectKey(ref)
	if err != nil {
		return err
	}
	if err := u.bucket.DeleteObject(key, oss.WithContext(ctx)); err != nil {
		return errors.Wrapf(err, "oss: delete %s", key)
	}
	return nil
}

// ObjectKey 从图片引用中取出对象名。支持完整 URL（忽略查询串）、
// Firebase 风格的 ".../o/<转义后的对象名>" 以及直接给出的对象名。
func ObjectKey(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("oss: empty object reference")
	}
	if !strings.Contains(ref, "://") {
		return strings.TrimPrefix(ref, "/"), nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", errors.Wrapf(err, "oss: parse reference %q", ref)
	}
	p := u.EscapedPath()
	if i := strings.Index(p, "/o/"); i >= 0 {
		p = p[i+len("/o/"):]
	}
	key, err := url.PathUnescape(strings.TrimPrefix(p, "/"))
	if err != nil {
		return "", errors.Wrapf(err, "oss: unescape %q", p)
	}
	if key == "" {
		return "", errors.Errorf("oss: reference %q has no object name", ref)
	}
	return key, nil
}
