package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector 指标收集器。nil 收集器的记录方法为空操作。
type MetricsCollector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 可调用函数指标
	callableTotal *prometheus.CounterVec

	// 触发器指标
	triggerTotal    *prometheus.CounterVec
	triggerDuration *prometheus.HistogramVec
	triggerDropped  *prometheus.CounterVec

	// 扇出指标
	notificationsTotal *prometheus.CounterVec
	fanoutItemsTotal   *prometheus.CounterVec
}

// NewMetricsCollector 创建指标收集器，注册到给定的 Registerer
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	f := promauto.With(reg)
	return &MetricsCollector{
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),

		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		callableTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "callable_invocations_total",
				Help: "Total number of callable handler invocations",
			},
			[]string{"name", "outcome"},
		),

		triggerTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trigger_invocations_total",
				Help: "Total number of trigger handler invocations",
			},
			[]string{"handler", "outcome"},
		),

		triggerDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trigger_duration_seconds",
				Help:    "Trigger handler duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler"},
		),

		triggerDropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trigger_events_dropped_total",
				Help: "Trigger events dropped after retries or because the queue was full",
			},
			[]string{"reason"},
		),

		notificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notifications_written_total",
				Help: "Notification documents written, by notification type",
			},
			[]string{"type"},
		),

		fanoutItemsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fanout_items_total",
				Help: "Per-member fan-out outcomes",
			},
			[]string{"task", "outcome"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordCallable 记录可调用函数结果
func (m *MetricsCollector) RecordCallable(name, outcome string) {
	if m == nil {
		return
	}
	m.callableTotal.WithLabelValues(name, outcome).Inc()
}

// RecordTrigger 记录触发器执行
func (m *MetricsCollector) RecordTrigger(handler string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.triggerTotal.WithLabelValues(handler, outcome).Inc()
	m.triggerDuration.WithLabelValues(handler).Observe(duration.Seconds())
}

// RecordTriggerSkipped 去重跳过
func (m *MetricsCollector) RecordTriggerSkipped(handler string) {
	if m == nil {
		return
	}
	m.triggerTotal.WithLabelValues(handler, "duplicate").Inc()
}

// RecordDropped 记录丢弃的事件
func (m *MetricsCollector) RecordDropped(reason string) {
	if m == nil {
		return
	}
	m.triggerDropped.WithLabelValues(reason).Inc()
}

// RecordNotifications 记录写入的通知数
func (m *MetricsCollector) RecordNotifications(notificationType string, n int) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(notificationType).Add(float64(n))
}

// RecordFanout 记录扇出单项结果
func (m *MetricsCollector) RecordFanout(task, outcome string, n int) {
	if m == nil {
		return
	}
	if n <= 0 {
		return
	}
	m.fanoutItemsTotal.WithLabelValues(task, outcome).Add(float64(n))
}

// StatusCategory 获取状态分类
func StatusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

var (
	globalOnce      sync.Once
	GlobalCollector *MetricsCollector
)

// GetGlobalCollector 获取注册在默认 Registry 上的全局收集器
func GetGlobalCollector() *MetricsCollector {
	globalOnce.Do(func() {
		GlobalCollector = NewMetricsCollector(prometheus.DefaultRegisterer)
	})
	return GlobalCollector
}
