package ai

import "context"

// Prompt 一次模型呼叫的輸入
type Prompt struct {
	System      string
	User        string
	Temperature float64
	Model       string // 空字串時使用預設模型
}

// Completer 文字補全能力，各管線只依賴這個介面
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// CompleterFunc 讓普通函式滿足 Completer
type CompleterFunc func(ctx context.Context, p Prompt) (string, error)

// Complete 實作 Completer
func (f CompleterFunc) Complete(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}
