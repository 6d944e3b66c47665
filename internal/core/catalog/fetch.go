package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"

	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/config"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// Fetcher 取得網頁內容
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc 讓普通函式滿足 Fetcher
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Fetch 實作 Fetcher
func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// HTTPFetcher 以 resty 抓取網頁，不重試
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher 建立抓取器
func NewHTTPFetcher(cfg config.CatalogConfig) *HTTPFetcher {
	client := resty.New().
		SetHeader("Accept", "text/html,application/xhtml+xml")

	if cfg.RequestTimeout > 0 {
		client.SetTimeout(cfg.RequestTimeout)
	}
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &HTTPFetcher{client: client}
}

// Fetch 取得頁面並依 Content-Type 或 meta 標籤轉為 UTF-8
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", common.ErrFetchFailed.Wrap(err)
	}
	if resp.IsError() {
		return "", common.ErrFetchFailed.Wrap(fmt.Errorf("%s returned %d", url, resp.StatusCode()))
	}

	reader, err := charset.NewReader(bytes.NewReader(resp.Body()), resp.Header().Get("Content-Type"))
	if err != nil {
		// 無法判斷編碼時直接當作 UTF-8
		return string(resp.Body()), nil
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", common.ErrFetchFailed.Wrap(err)
	}
	return string(body), nil
}
