package worker

import (
	"context"
	"sync"
	"time"

	"community_forum/pkg/logger"
	"community_forum/pkg/metrics"

	"go.uber.org/zap"
)

// Task 一次异步执行单元。Key 用于日志定位（例如 "<eventID>/<handler>"）。
type Task struct {
	Name  string
	Key   string
	Run   func(ctx context.Context) error
	Retry int // 已重试次数
}

type WorkerPool struct {
	TaskQueue  chan Task
	RetryQueue chan Task // 重试队列
	WorkerNum  int
	MaxRetry   int           // 最大重试次数
	RetryDelay time.Duration // 第 n 次重试延迟 n*RetryDelay

	metrics *metrics.MetricsCollector
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewWorkerPool(workerNum, bufferSize, maxRetry int, collector *metrics.MetricsCollector) *WorkerPool {
	if workerNum <= 0 {
		workerNum = 1
	}
	if bufferSize <= 1 {
		bufferSize = 2
	}
	return &WorkerPool{
		TaskQueue:  make(chan Task, bufferSize),
		RetryQueue: make(chan Task, bufferSize/2),
		WorkerNum:  workerNum,
		MaxRetry:   maxRetry,
		RetryDelay: time.Second,
		metrics:    collector,
	}
}

// Start 启动工作协程与重试协程，ctx 取消或调用 Stop 后退出
func (p *WorkerPool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.wg.Add(1)
	go p.retryWorker()
	logger.Log.Info("worker pool started", zap.Int("workers", p.WorkerNum), zap.Int("max_retry", p.MaxRetry))
}

// Stop 停止接收并等待正在执行的任务结束，队列中未执行的任务被丢弃
func (p *WorkerPool) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	for {
		select {
		case task := <-p.TaskQueue:
			p.logFailedTask(task, context.Canceled, "shutdown")
		case task := <-p.RetryQueue:
			p.logFailedTask(task, context.Canceled, "shutdown")
		default:
			return
		}
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.TaskQueue:
			p.process(id, task)
		}
	}
}

func (p *WorkerPool) process(id int, task Task) {
	err := task.Run(p.ctx)
	if err == nil {
		return
	}
	logger.Log.Warn("task failed",
		zap.Int("worker", id),
		zap.String("task", task.Name),
		zap.String("key", task.Key),
		zap.Int("retry", task.Retry),
		zap.Error(err),
	)

	// 如果未达到最大重试次数，加入重试队列
	if task.Retry >= p.MaxRetry {
		p.logFailedTask(task, err, "max_retry")
		return
	}
	task.Retry++
	select {
	case p.RetryQueue <- task:
	default:
		p.logFailedTask(task, err, "retry_queue_full")
	}
}

func (p *WorkerPool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			timer := time.NewTimer(time.Duration(task.Retry) * p.RetryDelay)
			select {
			case <-p.ctx.Done():
				timer.Stop()
				p.logFailedTask(task, p.ctx.Err(), "shutdown")
				return
			case <-timer.C:
			}

			select {
			case p.TaskQueue <- task:
			default:
				p.logFailedTask(task, nil, "queue_full")
			}
		}
	}
}

// logFailedTask 死信：记录日志与指标，不再重试
func (p *WorkerPool) logFailedTask(task Task, err error, reason string) {
	logger.Log.Error("[DeadLetter] task dropped",
		zap.String("task", task.Name),
		zap.String("key", task.Key),
		zap.Int("retry", task.Retry),
		zap.String("reason", reason),
		zap.Error(err),
	)
	p.metrics.RecordDropped(reason)
}

// AddTask 非阻塞入队，队列已满或已停止时返回 false
func (p *WorkerPool) AddTask(task Task) bool {
	if p.ctx != nil && p.ctx.Err() != nil {
		p.logFailedTask(task, p.ctx.Err(), "stopped")
		return false
	}
	select {
	case p.TaskQueue <- task:
		return true
	default:
		p.logFailedTask(task, nil, "queue_full")
		return false
	}
}
