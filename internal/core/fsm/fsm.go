// Package fsm 提供顯式狀態機：狀態列舉、純轉移函式與驅動迴圈。
//
// 每個狀態的 Step 讀寫共享的 *S 並回傳一個 Event；下一個狀態只由
// (目前狀態, Event) 決定。Step 回傳 error 代表基礎設施錯誤，驅動迴圈
// 會立即中止；業務上的失敗應該以 Event 導向失敗狀態。
package fsm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

var tracer = otel.Tracer("chef-ai/fsm")

// DefaultMaxSteps 預設最大步數
const DefaultMaxSteps = 50

// State 狀態名稱
type State string

// Event 狀態輸出的事件
type Event string

// Step 單一狀態的處理函式
type Step[S any] func(ctx context.Context, s *S) (Event, error)

var (
	// ErrMaxSteps 超過最大步數
	ErrMaxSteps = errors.New("fsm: exceeded maximum steps")
	// ErrNoTransition 沒有對應的轉移
	ErrNoTransition = errors.New("fsm: no transition")
)

// TransitionError 找不到 (狀態, 事件) 的轉移
type TransitionError struct {
	From  State
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("fsm: no transition from %q on %q", e.From, e.Event)
}

// Unwrap 支援 errors.Is(err, ErrNoTransition)
func (e *TransitionError) Unwrap() error { return ErrNoTransition }

// Machine 狀態機定義，建好後可重複執行
type Machine[S any] struct {
	name        string
	start       State
	steps       map[State]Step[S]
	transitions map[State]map[Event]State
	terminal    map[State]bool
	maxSteps    int
}

// New 建立狀態機
func New[S any](name string, start State) *Machine[S] {
	return &Machine[S]{
		name:        name,
		start:       start,
		steps:       map[State]Step[S]{},
		transitions: map[State]map[Event]State{},
		terminal:    map[State]bool{},
		maxSteps:    DefaultMaxSteps,
	}
}

// On 註冊狀態處理函式
func (m *Machine[S]) On(state State, step Step[S]) *Machine[S] {
	m.steps[state] = step
	return m
}

// Edge 註冊轉移
func (m *Machine[S]) Edge(from State, ev Event, to State) *Machine[S] {
	if m.transitions[from] == nil {
		m.transitions[from] = map[Event]State{}
	}
	m.transitions[from][ev] = to
	return m
}

// Terminal 標記終止狀態
func (m *Machine[S]) Terminal(states ...State) *Machine[S] {
	for _, s := range states {
		m.terminal[s] = true
	}
	return m
}

// WithMaxSteps 設定最大步數
func (m *Machine[S]) WithMaxSteps(n int) *Machine[S] {
	if n > 0 {
		m.maxSteps = n
	}
	return m
}

// Next 純轉移函式
func (m *Machine[S]) Next(from State, ev Event) (State, error) {
	to, ok := m.transitions[from][ev]
	if !ok {
		return "", &TransitionError{From: from, Event: ev}
	}
	return to, nil
}

// IsTerminal 是否為終止狀態
func (m *Machine[S]) IsTerminal(state State) bool {
	return m.terminal[state]
}

// Run 從起始狀態執行到終止狀態，回傳經過的狀態路徑（含終止狀態）
func (m *Machine[S]) Run(ctx context.Context, s *S) (path []State, err error) {
	ctx, runSpan := tracer.Start(ctx, m.name+".run", trace.WithAttributes(
		attribute.String("fsm.name", m.name),
	))
	defer func() { endSpan(runSpan, err) }()

	start := time.Now()
	current := m.start
	steps := 0

	for !m.terminal[current] {
		steps++
		if steps > m.maxSteps {
			return path, fmt.Errorf("%w (%d) at %s", ErrMaxSteps, m.maxSteps, current)
		}

		if err := ctx.Err(); err != nil {
			return path, fmt.Errorf("fsm %s cancelled at %s: %w", m.name, current, err)
		}

		step, ok := m.steps[current]
		if !ok {
			return path, fmt.Errorf("fsm %s: no step registered for %q", m.name, current)
		}
		path = append(path, current)

		stepCtx, span := tracer.Start(ctx, m.name+"."+string(current), trace.WithAttributes(
			attribute.String("fsm.state", string(current)),
		))
		stepStart := time.Now()
		ev, stepErr := step(stepCtx, s)
		span.SetAttributes(attribute.String("fsm.event", string(ev)))
		endSpan(span, stepErr)

		if stepErr != nil {
			common.LogError("狀態執行失敗",
				zap.String("fsm", m.name),
				zap.String("state", string(current)),
				zap.Error(stepErr),
			)
			return path, stepErr
		}

		next, err := m.Next(current, ev)
		if err != nil {
			return path, err
		}

		common.LogDebug("狀態轉移",
			zap.String("fsm", m.name),
			zap.String("from", string(current)),
			zap.String("event", string(ev)),
			zap.String("to", string(next)),
			zap.Duration("耗時", time.Since(stepStart)),
		)
		current = next
	}

	path = append(path, current)
	common.LogDebug("狀態機完成",
		zap.String("fsm", m.name),
		zap.String("final", string(current)),
		zap.Int("steps", steps),
		zap.Duration("耗時", time.Since(start)),
	)
	return path, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
