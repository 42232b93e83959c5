// Package server 组装文档库、触发器分发、HTTP 路由与各领域模块。
package server

import (
	"context"
	"net/http"
	"time"

	"community_forum/internal/pkg/config"
	"community_forum/internal/pkg/invitecode"
	"community_forum/internal/pkg/middleware"
	"community_forum/internal/pkg/push"
	"community_forum/internal/pkg/registry"
	"community_forum/internal/pkg/trigger"
	"community_forum/internal/pkg/uploader"
	"community_forum/internal/pkg/worker"
	"community_forum/pkg/docstore"
	"community_forum/pkg/docstore/fsstore"
	"community_forum/pkg/docstore/memstore"
	"community_forum/pkg/logger"
	"community_forum/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

// Server 一个完整的服务实例
type Server struct {
	Config     *config.Config
	Store      docstore.Store
	Router     *gin.Engine
	Dispatcher *trigger.Dispatcher

	pool    *worker.WorkerPool
	redis   *redis.Client
	limiter *middleware.CallerLimiter
}

// New 按配置创建服务。内存文档库的提交会经工作池异步触发处理函数；
// Firestore 的变更通过 POST /events 进入。
func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	collector := metrics.GetGlobalCollector()

	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	s := &Server{Config: cfg, Store: store}
	s.pool = worker.NewWorkerPool(cfg.Trigger.Workers, cfg.Trigger.QueueSize, cfg.Trigger.MaxRetry, collector)
	s.Dispatcher = trigger.NewDispatcher(
		trigger.WithDeduper(s.deduper(ctx)),
		trigger.WithPool(s.pool),
		trigger.WithMetrics(collector),
	)

	if ms, ok := store.(*memstore.Store); ok {
		ms.Watch(func(c docstore.Change) {
			if _, err := s.Dispatcher.Submit(trigger.FromChange(c)); err != nil {
				logger.Log.Error("submit change failed", zap.String("path", c.Path), zap.Error(err))
			}
		})
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(
		middleware.RecoveryMiddleware(),
		middleware.TraceMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.MetricsMiddleware(collector),
		middleware.CORSMiddleware(cfg.Server.AllowOrigins),
	)
	s.limiter = middleware.NewCallerLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
	callable := r.Group("/callable", middleware.AuthMiddleware(), middleware.RateLimitMiddleware(s.limiter))
	s.Router = r

	mctx := &registry.ModuleContext{
		Config:     cfg,
		Store:      store,
		Router:     r,
		Callable:   callable,
		Dispatcher: s.Dispatcher,
		InviteCode: invitecode.NewGenerator(store, cfg.Community.InviteCodeLength),
		Metrics:    collector,
	}
	if cfg.OSS.Endpoint != "" {
		blob, err := uploader.NewAliyunOSSStorage(cfg.OSS)
		if err != nil {
			return nil, err
		}
		mctx.Blob = blob
	}
	pusher, err := push.NewAliyunPushService(cfg.Push)
	switch {
	case err == nil:
		mctx.Pusher = pusher
	case errors.Is(err, push.ErrNotConfigured):
		logger.Log.Info("device push disabled")
	default:
		return nil, err
	}

	if err := registry.InitModules(mctx); err != nil {
		return nil, errors.Wrap(err, "init modules")
	}
	logger.Log.Info("modules initialized",
		zap.Int("modules", len(registry.GetModules())),
		zap.Int("triggers", len(s.Dispatcher.Bindings())),
	)
	return s, nil
}

// OpenStore 按 store.driver 打开文档库
func OpenStore(ctx context.Context, cfg config.StoreConfig) (docstore.Store, error) {
	switch cfg.Driver {
	case "firestore":
		return fsstore.New(ctx, cfg.ProjectID, cfg.CredentialsFile)
	case "memory", "":
		logger.Log.Warn("using in-memory document store, data is lost on exit")
		return memstore.New(), nil
	}
	return nil, errors.Errorf("unknown store driver %q", cfg.Driver)
}

// deduper 配置了 Redis 且可连通时使用 Redis，否则退回进程内去重
func (s *Server) deduper(ctx context.Context) trigger.Deduper {
	ttl := time.Duration(s.Config.Trigger.DedupeTTL) * time.Second
	if s.Config.Redis.Addr == "" {
		return trigger.NewMemoryDeduper(s.Config.Trigger.DedupeSize, ttl)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.Config.Redis.Addr,
		Password: s.Config.Redis.Password,
		DB:       s.Config.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Log.Warn("redis unavailable, falling back to in-memory dedupe", zap.String("addr", s.Config.Redis.Addr), zap.Error(err))
		_ = rdb.Close()
		return trigger.NewMemoryDeduper(s.Config.Trigger.DedupeSize, ttl)
	}
	s.redis = rdb
	return trigger.NewRedisDeduper(rdb, ttl)
}

// Run 启动工作池与 HTTP 服务，ctx 取消后优雅退出
func (s *Server) Run(ctx context.Context) error {
	s.StartWorkers(ctx)

	srv := &http.Server{
		Addr:    ":" + s.Config.Server.Port,
		Handler: s.Router,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	logger.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("http shutdown", zap.Error(err))
	}
	s.Close()
	return runErr
}

// StartWorkers 启动工作池与限流器回收，供不监听端口的命令使用
func (s *Server) StartWorkers(ctx context.Context) {
	s.pool.Start(ctx)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.limiter.Sweep()
			}
		}
	}()
}

// Close 停止工作池并释放外部连接
func (s *Server) Close() {
	s.pool.Stop()
	if err := s.Store.Close(); err != nil {
		logger.Log.Warn("close store", zap.Error(err))
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
}
