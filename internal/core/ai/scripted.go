package ai

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrScriptExhausted 腳本回覆已用完
var ErrScriptExhausted = errors.New("scripted completer: no more responses")

// Scripted 依序回放預先設定的回覆，用於測試與離線執行
type Scripted struct {
	mu        sync.Mutex
	responses []string
	errs      map[int]error
	handler   func(p Prompt) (string, error)
	latency   time.Duration
	calls     []Prompt
}

// NewScripted 以固定回覆序列建立
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses, errs: map[int]error{}}
}

// NewScriptedFunc 以處理函式建立，依提示詞內容決定回覆
func NewScriptedFunc(handler func(p Prompt) (string, error)) *Scripted {
	return &Scripted{handler: handler, errs: map[int]error{}}
}

// WithLatency 每次呼叫前等待
func (s *Scripted) WithLatency(d time.Duration) *Scripted {
	s.latency = d
	return s
}

// WithErrorAt 第 n 次呼叫（從 0 起算）回傳錯誤
func (s *Scripted) WithErrorAt(n int, err error) *Scripted {
	s.errs[n] = err
	return s
}

// Complete 實作 Completer
func (s *Scripted) Complete(ctx context.Context, p Prompt) (string, error) {
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.calls)
	s.calls = append(s.calls, p)

	if err, ok := s.errs[n]; ok {
		return "", err
	}
	if s.handler != nil {
		return s.handler(p)
	}
	if len(s.responses) == 0 {
		return "", ErrScriptExhausted
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

// Calls 已收到的提示詞
func (s *Scripted) Calls() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Prompt, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount 呼叫次數
func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
