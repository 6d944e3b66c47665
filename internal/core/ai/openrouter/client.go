package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/core/ai/provider"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Client OpenAI 相容的 chat/completions 客戶端（預設 OpenRouter）
type Client struct {
	client *resty.Client
	config provider.Config
}

// chatResponse API 響應結構
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message provider.Message `json:"message"`
	} `json:"choices"`
	Usage provider.Usage `json:"usage"`
}

// apiError API 錯誤結構
type apiError struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// NewClient 創建新的客戶端
func NewClient(cfg provider.Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("Content-Type", "application/json")
	if cfg.Referer != "" {
		client.SetHeader("HTTP-Referer", cfg.Referer)
	}
	if cfg.Title != "" {
		client.SetHeader("X-Title", cfg.Title)
	}
	// 0 表示不設逾時，呼叫會一直阻塞到模型回覆
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &Client{client: client, config: cfg}
}

// Generate 實作 provider.Provider
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if req.Model == "" {
		req.Model = c.config.Model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.config.MaxTokens
	}

	var result chatResponse
	var failure apiError
	start := time.Now()

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&failure).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		msg := failure.Error.Message
		if msg == "" {
			msg = resp.String()
		}
		common.LogWarn("模型 API 回傳錯誤",
			zap.Int("status", resp.StatusCode()),
			zap.String("model", req.Model),
			zap.String("error", msg),
		)
		return nil, fmt.Errorf("model API returned %d: %s", resp.StatusCode(), msg)
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices in model response")
	}

	common.LogDebug("模型回覆",
		zap.String("model", req.Model),
		zap.Int("total_tokens", result.Usage.TotalTokens),
		zap.Duration("耗時", time.Since(start)),
	)

	return &provider.Response{
		Content: result.Choices[0].Message.Content,
		Model:   result.Model,
		Usage:   result.Usage,
	}, nil
}

// GetModel 預設模型
func (c *Client) GetModel() string {
	return c.config.Model
}

// GetTimeout 請求逾時
func (c *Client) GetTimeout() time.Duration {
	return c.config.Timeout
}

// Close 釋放閒置連線
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}
