// Package catalog 從網址擷取食譜：抓取頁面、解析 JSON-LD，找不到時交給模型擷取，
// 驗證後以單一交易寫入資料庫。流程沒有重試，任何階段失敗即結束。
package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/core/ai"
	"github.com/RyanJuricic26/chef-ai/internal/core/fsm"
	"github.com/RyanJuricic26/chef-ai/internal/core/recipe"
	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/config"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// ExtractionMethod 擷取方式
type ExtractionMethod string

const (
	MethodJSONLD ExtractionMethod = "json_ld"
	MethodModel  ExtractionMethod = "llm_html"
)

// 狀態
const (
	StateFetch           fsm.State = "fetch"
	StateParseStructured fsm.State = "parse_structured"
	StateExtractViaModel fsm.State = "extract_via_model"
	StateValidate        fsm.State = "validate"
	StateSave            fsm.State = "save"
	StateDone            fsm.State = "done"
	StateFailed          fsm.State = "failed"
)

// 事件
const (
	EventOK       fsm.Event = "ok"
	EventFound    fsm.Event = "structured_found"
	EventNotFound fsm.Event = "structured_missing"
	EventFail     fsm.Event = "fail"
)

// Saver 寫入食譜
type Saver interface {
	SaveRecipe(ctx context.Context, d *recipe.Draft) (uint, error)
}

// Result 擷取結果
type Result struct {
	Success          bool             `json:"success"`
	RecipeID         uint             `json:"recipe_id,omitempty"`
	Recipe           *recipe.Draft    `json:"recipe,omitempty"`
	ExtractionMethod ExtractionMethod `json:"extraction_method,omitempty"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	Path             []fsm.State      `json:"-"`
}

// run 單次擷取的共享狀態
type run struct {
	url      string
	page     string
	draft    *recipe.Draft
	method   ExtractionMethod
	recipeID uint
	errMsg   string
}

// Pipeline 食譜擷取流程
type Pipeline struct {
	fetcher  Fetcher
	llm      ai.Completer
	store    Saver
	maxChars int
	machine  *fsm.Machine[run]
}

// NewPipeline 建立擷取流程
func NewPipeline(fetcher Fetcher, llm ai.Completer, store Saver, cfg config.CatalogConfig) *Pipeline {
	p := &Pipeline{
		fetcher:  fetcher,
		llm:      llm,
		store:    store,
		maxChars: cfg.MaxContentChars,
	}

	p.machine = fsm.New[run]("catalog", StateFetch).
		On(StateFetch, p.fetch).
		On(StateParseStructured, p.parseStructured).
		On(StateExtractViaModel, p.extractViaModel).
		On(StateValidate, p.validate).
		On(StateSave, p.save).
		Edge(StateFetch, EventOK, StateParseStructured).
		Edge(StateFetch, EventFail, StateFailed).
		Edge(StateParseStructured, EventFound, StateValidate).
		Edge(StateParseStructured, EventNotFound, StateExtractViaModel).
		Edge(StateExtractViaModel, EventOK, StateValidate).
		Edge(StateExtractViaModel, EventFail, StateFailed).
		Edge(StateValidate, EventOK, StateSave).
		Edge(StateValidate, EventFail, StateFailed).
		Edge(StateSave, EventOK, StateDone).
		Edge(StateSave, EventFail, StateFailed).
		Terminal(StateDone, StateFailed)

	return p
}

// Run 執行擷取；業務失敗放在 Result，只有取消等基礎設施錯誤才回傳 error
func (p *Pipeline) Run(ctx context.Context, url string) (*Result, error) {
	start := time.Now()
	common.LogInfo("開始擷取食譜", zap.String("url", url))

	r := &run{url: url}
	path, err := p.machine.Run(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", url, err)
	}

	result := &Result{
		Success:          r.errMsg == "" && r.recipeID != 0,
		RecipeID:         r.recipeID,
		Recipe:           r.draft,
		ExtractionMethod: r.method,
		ErrorMessage:     r.errMsg,
		Path:             path,
	}

	if result.Success {
		common.LogInfo("食譜擷取完成",
			zap.String("url", url),
			zap.Uint("recipe_id", r.recipeID),
			zap.String("method", string(r.method)),
			zap.Duration("耗時", time.Since(start)),
		)
	} else {
		common.LogWarn("食譜擷取失敗",
			zap.String("url", url),
			zap.String("error", r.errMsg),
			zap.Duration("耗時", time.Since(start)),
		)
	}
	return result, nil
}

func (r *run) fail(format string, args ...interface{}) (fsm.Event, error) {
	r.errMsg = fmt.Sprintf(format, args...)
	return EventFail, nil
}

func (p *Pipeline) fetch(ctx context.Context, r *run) (fsm.Event, error) {
	page, err := p.fetcher.Fetch(ctx, r.url)
	if err != nil {
		return r.fail("Failed to fetch webpage: %v", err)
	}
	r.page = page
	return EventOK, nil
}

func (p *Pipeline) parseStructured(ctx context.Context, r *run) (fsm.Event, error) {
	obj, ok := FindRecipeJSONLD(r.page)
	if !ok {
		common.LogDebug("頁面沒有 JSON-LD 食譜", zap.String("url", r.url))
		return EventNotFound, nil
	}
	r.draft = FromJSONLD(obj, r.url)
	r.method = MethodJSONLD
	return EventFound, nil
}

func (p *Pipeline) extractViaModel(ctx context.Context, r *run) (fsm.Event, error) {
	r.method = MethodModel

	text, err := CleanHTMLForModel(r.page, p.maxChars)
	if err != nil {
		return r.fail("Failed to read page content: %v", err)
	}
	if text == "" {
		return r.fail("Page has no readable content")
	}

	reply, err := p.llm.Complete(ctx, ai.Prompt{
		System:      extractRecipeSystemPrompt,
		User:        fmt.Sprintf(extractRecipeUserPrompt, text),
		Temperature: 0,
	})
	if err != nil {
		return r.fail("Model extraction failed: %v", err)
	}

	draft, err := ParseModelRecipe(reply, r.url)
	if err != nil {
		return r.fail("Failed to parse recipe from model response: %v", err)
	}
	r.draft = draft
	return EventOK, nil
}

func (p *Pipeline) validate(ctx context.Context, r *run) (fsm.Event, error) {
	if r.draft == nil {
		return r.fail("No recipe data to validate")
	}
	if err := ValidateDraft(r.draft, r.url); err != nil {
		return r.fail("Recipe validation failed: %v", err)
	}
	return EventOK, nil
}

func (p *Pipeline) save(ctx context.Context, r *run) (fsm.Event, error) {
	id, err := p.store.SaveRecipe(ctx, r.draft)
	if err != nil {
		return r.fail("Database error: %v", err)
	}
	r.recipeID = id
	return EventOK, nil
}
