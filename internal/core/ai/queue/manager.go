package queue

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/core/ai"
	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/config"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

var (
	// ErrQueueFull 隊列已滿
	ErrQueueFull = common.NewError(common.ErrCodeServiceUnavailable, "模型請求隊列已滿", http.StatusServiceUnavailable, nil)
	// ErrClosed 隊列已關閉
	ErrClosed = errors.New("queue manager is closed")
)

// request 隊列請求
type request struct {
	ctx    context.Context
	prompt ai.Prompt
	result chan result
}

// result 處理結果
type result struct {
	content string
	err     error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 以固定數量的 worker 執行模型呼叫，本身也是 ai.Completer
type Manager struct {
	next      ai.Completer
	cfg       config.QueueConfig
	queue     chan *request
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	processed int64
}

var _ ai.Completer = (*Manager)(nil)

// NewManager 建立隊列並啟動 worker
func NewManager(next ai.Completer, cfg config.QueueConfig) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = cfg.Workers
	}

	m := &Manager{
		next:  next,
		cfg:   cfg,
		queue: make(chan *request, cfg.MaxSize),
		done:  make(chan struct{}),
	}
	for i := 0; i < cfg.Workers; i++ {
		m.wg.Add(1)
		go m.worker()
	}
	return m
}

func (m *Manager) worker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case req := <-m.queue:
			m.process(req)
		}
	}
}

func (m *Manager) process(req *request) {
	// 排隊期間呼叫端已放棄
	if err := req.ctx.Err(); err != nil {
		req.result <- result{err: err}
		return
	}
	content, err := m.next.Complete(req.ctx, req.prompt)
	atomic.AddInt64(&m.processed, 1)
	req.result <- result{content: content, err: err}
}

// Complete 排入隊列並等待結果；隊列滿時立即回傳 ErrQueueFull
func (m *Manager) Complete(ctx context.Context, p ai.Prompt) (string, error) {
	req := &request{ctx: ctx, prompt: p, result: make(chan result, 1)}

	select {
	case <-m.done:
		return "", ErrClosed
	default:
	}

	select {
	case m.queue <- req:
	default:
		common.LogWarn("Queue is full",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.cfg.MaxSize),
		)
		return "", ErrQueueFull
	}

	select {
	case res := <-req.result:
		return res.content, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-m.done:
		return "", ErrClosed
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() Status {
	return Status{
		QueueLength:    len(m.queue),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		MaxQueueSize:   m.cfg.MaxSize,
		Workers:        m.cfg.Workers,
	}
}

// Close 停止 worker；進行中的呼叫會跑完
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
}
