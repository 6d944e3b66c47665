package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/core/ai"
	"github.com/RyanJuricic26/chef-ai/internal/core/ai/cache"
	"github.com/RyanJuricic26/chef-ai/internal/core/ai/provider"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// Service AI 服務：provider + 回覆緩存，對外提供 ai.Completer
type Service struct {
	provider provider.Provider
	cache    cache.Store // nil 表示不緩存
}

var _ ai.Completer = (*Service)(nil)

// NewService 創建 AI 服務
func NewService(p provider.Provider, store cache.Store) *Service {
	return &Service{provider: p, cache: store}
}

// Complete 送出一次對話；只有 temperature 0 的呼叫會進緩存
func (s *Service) Complete(ctx context.Context, p ai.Prompt) (string, error) {
	model := p.Model
	if model == "" {
		model = s.provider.GetModel()
	}

	cacheable := s.cache != nil && p.Temperature == 0
	key := cacheKey(model, p)

	if cacheable {
		val, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			common.LogCacheHit("llm")
			return val, nil
		case errors.Is(err, common.ErrCacheMiss):
			common.LogCacheMiss("llm")
		default:
			common.LogWarn("讀取快取失敗", zap.Error(err))
		}
	}

	messages := make([]provider.Message, 0, 2)
	if strings.TrimSpace(p.System) != "" {
		messages = append(messages, provider.Message{Role: "system", Content: p.System})
	}
	messages = append(messages, provider.Message{Role: "user", Content: p.User})

	start := time.Now()
	resp, err := s.provider.Generate(ctx, &provider.Request{
		Model:       model,
		Messages:    messages,
		Temperature: p.Temperature,
	})
	common.LogAICall(model, time.Since(start), err)
	if err != nil {
		return "", common.ErrAIServiceError.Wrap(err)
	}

	if cacheable {
		if err := s.cache.Set(ctx, key, resp.Content); err != nil {
			common.LogWarn("寫入快取失敗", zap.Error(err))
		}
	}
	return resp.Content, nil
}

// Close 關閉 provider 與緩存
func (s *Service) Close() error {
	var errs []error
	if err := s.provider.Close(); err != nil {
		errs = append(errs, err)
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ai service: %w", errors.Join(errs...))
	}
	return nil
}

func cacheKey(model string, p ai.Prompt) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(p.System))
	h.Write([]byte{0})
	h.Write([]byte(p.User))
	return hex.EncodeToString(h.Sum(nil))
}
