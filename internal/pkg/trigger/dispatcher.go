package trigger

import (
	"context"
	"sync"
	"time"

	"community_forum/internal/pkg/worker"
	"community_forum/pkg/logger"
	"community_forum/pkg/metrics"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNoPool 未配置工作池时调用 Submit
var ErrNoPool = errors.New("trigger: dispatcher has no worker pool")

// HandlerFunc 触发器处理函数。返回错误表示需要重试。
type HandlerFunc func(ctx context.Context, ev Event) error

// Binding 一条注册记录
type Binding struct {
	Name    string
	Pattern Pattern
	Type    EventType
	Handler HandlerFunc
}

// Dispatcher 触发器分发器
type Dispatcher struct {
	mu       sync.RWMutex
	bindings []*Binding

	dedupe  Deduper
	pool    *worker.WorkerPool
	metrics *metrics.MetricsCollector
}

// Option 配置项
type Option func(*Dispatcher)

// WithDeduper 按 (事件ID, 处理函数) 去重，仅在处理成功后标记
func WithDeduper(d Deduper) Option {
	return func(dp *Dispatcher) { dp.dedupe = d }
}

// WithPool 异步投递使用的工作池
func WithPool(p *worker.WorkerPool) Option {
	return func(dp *Dispatcher) { dp.pool = p }
}

func WithMetrics(m *metrics.MetricsCollector) Option {
	return func(dp *Dispatcher) { dp.metrics = m }
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{}
	for _, o := range opts {
		o(d)
	}
	return d
}

// On 注册处理函数，name 需全局唯一（作为去重键的一部分）
func (d *Dispatcher) On(name, pattern string, typ EventType, fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings = append(d.bindings, &Binding{
		Name:    name,
		Pattern: MustParsePattern(pattern),
		Type:    typ,
		Handler: fn,
	})
}

// Bindings 返回已注册的处理函数（按注册顺序）
func (d *Dispatcher) Bindings() []*Binding {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Binding, len(d.bindings))
	copy(out, d.bindings)
	return out
}

// Match 返回与事件匹配的处理函数及填充了路径参数的事件副本
func (d *Dispatcher) Match(ev Event) ([]*Binding, []Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var (
		bindings []*Binding
		events   []Event
	)
	for _, b := range d.bindings {
		if b.Type != ev.Type {
			continue
		}
		params, ok := b.Pattern.Match(ev.Path)
		if !ok {
			continue
		}
		e := ev
		e.Params = params
		bindings = append(bindings, b)
		events = append(events, e)
	}
	return bindings, events
}

// Dispatch 同步执行所有匹配的处理函数，单个失败不影响其余处理函数
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	bindings, events := d.Match(ev)
	var err error
	for i, b := range bindings {
		err = multierr.Append(err, d.Invoke(ctx, b, events[i]))
	}
	return err
}

// Submit 将每个匹配的处理函数作为独立任务放入工作池，返回入队数量
func (d *Dispatcher) Submit(ev Event) (int, error) {
	if d.pool == nil {
		return 0, ErrNoPool
	}
	bindings, events := d.Match(ev)
	accepted := 0
	for i, b := range bindings {
		b, e := b, events[i]
		ok := d.pool.AddTask(worker.Task{
			Name: b.Name,
			Key:  e.ID + "/" + e.Path,
			Run: func(ctx context.Context) error {
				return d.Invoke(ctx, b, e)
			},
		})
		if ok {
			accepted++
		}
	}
	if accepted < len(bindings) {
		return accepted, errors.Errorf("trigger: %d of %d handlers rejected by a full queue", len(bindings)-accepted, len(bindings))
	}
	return accepted, nil
}

// Invoke 执行单个处理函数，处理去重与指标
func (d *Dispatcher) Invoke(ctx context.Context, b *Binding, ev Event) error {
	key := ev.ID + ":" + b.Name
	if d.dedupe != nil && ev.ID != "" {
		seen, err := d.dedupe.Seen(ctx, key)
		if err != nil {
			// 去重存储不可用时宁可重复执行
			logger.Log.Warn("trigger dedupe lookup failed", zap.String("handler", b.Name), zap.Error(err))
		} else if seen {
			d.metrics.RecordTriggerSkipped(b.Name)
			return nil
		}
	}

	start := time.Now()
	err := b.Handler(ctx, ev)
	d.metrics.RecordTrigger(b.Name, time.Since(start), err)
	if err != nil {
		return errors.Wrapf(err, "trigger %s on %s", b.Name, ev.Path)
	}

	if d.dedupe != nil && ev.ID != "" {
		if err := d.dedupe.Mark(ctx, key); err != nil {
			logger.Log.Warn("trigger dedupe mark failed", zap.String("handler", b.Name), zap.Error(err))
		}
	}
	return nil
}
