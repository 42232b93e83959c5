// Package invitecode 生成社区邀请码：随机字母数字串，与已有社区查重后才返回。
package invitecode

import (
	"context"
	"crypto/rand"
	"io"

	"community_forum/pkg/docstore"
	"community_forum/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Alphabet 62 个字母数字字符
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultLength 默认邀请码长度
const DefaultLength = 5

// Random 每个字符取一个随机字节对 62 取模
func Random(r io.Reader, n int) (string, error) {
	if n <= 0 {
		return "", errors.Errorf("invitecode: invalid length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", errors.Wrap(err, "invitecode: read random bytes")
	}
	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(buf), nil
}

// Generator 查重生成器
type Generator struct {
	store  docstore.Store
	length int
	rand   io.Reader
}

// Option 配置项
type Option func(*Generator)

// WithReader 替换随机源
func WithReader(r io.Reader) Option {
	return func(g *Generator) { g.rand = r }
}

func NewGenerator(store docstore.Store, length int, opts ...Option) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	g := &Generator{store: store, length: length, rand: rand.Reader}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate 循环生成直到找到未被任何社区使用的邀请码。
// 查重与写入之间没有锁，唯一性仅在生成时刻成立。
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := Random(g.rand, g.length)
		if err != nil {
			return "", err
		}
		snaps, err := g.store.Query(ctx, docstore.Collection("Community").
			Where("inviteCode", docstore.OpEqual, code).
			WithLimit(1))
		if err != nil {
			return "", errors.Wrap(err, "invitecode: check existing")
		}
		if len(snaps) == 0 {
			return code, nil
		}
		logger.Log.Debug("invite code already in use, regenerating", zap.String("code", code))
	}
}
