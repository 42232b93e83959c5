package uploader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	cases := []struct {
		name string
		ref  string
		want string
	}{
		{"oss url", "https://bucket.oss-cn-hangzhou.aliyuncs.com/20240301/abc.png", "20240301/abc.png"},
		{"query string ignored", "https://bucket.oss-cn-hangzhou.aliyuncs.com/a/b.jpg?x-oss-process=resize", "a/b.jpg"},
		{"firebase style", "https://firebasestorage.googleapis.com/v0/b/app.appspot.com/o/community%2Fc1.png?alt=media", "community/c1.png"},
		{"bare key", "/avatars/u1.png", "avatars/u1.png"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ObjectKey(tc.ref)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("empty", func(t *testing.T) {
		_, err := ObjectKey("  ")
		assert.Error(t, err)
	})

	t.Run("host only", func(t *testing.T) {
		_, err := ObjectKey("https://bucket.oss-cn-hangzhou.aliyuncs.com/")
		assert.Error(t, err)
	})
}
