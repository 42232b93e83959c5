package middleware

import (
	"net/http"
	"sync"
	"time"

	"community_forum/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CallerLimiter 按调用者限流：已鉴权请求按用户 ID，否则按客户端 IP。
// 超过 idle 未访问的条目在下一次 Sweep 时回收。
type CallerLimiter struct {
	mu      sync.Mutex
	callers map[string]*callerEntry
	r       rate.Limit
	b       int
	idle    time.Duration
	now     func() time.Time
}

type callerEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewCallerLimiter r 为每秒请求数，b 为桶容量
func NewCallerLimiter(r rate.Limit, b int) *CallerLimiter {
	return &CallerLimiter{
		callers: make(map[string]*callerEntry),
		r:       r,
		b:       b,
		idle:    10 * time.Minute,
		now:     time.Now,
	}
}

// Allow 消耗 key 的一个令牌
func (l *CallerLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.callers[key]
	if !ok {
		e = &callerEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.callers[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Sweep 回收空闲条目，返回剩余条目数
func (l *CallerLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idle)
	for key, e := range l.callers {
		if e.lastSeen.Before(cutoff) {
			delete(l.callers, key)
		}
	}
	return len(l.callers)
}

// callerKey 须挂在鉴权中间件之后才能取到用户 ID
func callerKey(c *gin.Context) string {
	if uid := c.GetString(ContextUserID); uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.ClientIP()
}

// RateLimitMiddleware 限流中间件
func RateLimitMiddleware(limiter *CallerLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(callerKey(c)) {
			response.AbortWith(c, http.StatusTooManyRequests, response.ErrTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}
