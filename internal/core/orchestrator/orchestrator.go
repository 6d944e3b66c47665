// Package orchestrator 判斷使用者意圖（找食譜或收錄食譜），再把訊息交給對應的流程。
package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/core/ai"
	"github.com/RyanJuricic26/chef-ai/internal/core/catalog"
	"github.com/RyanJuricic26/chef-ai/internal/core/fsm"
	"github.com/RyanJuricic26/chef-ai/internal/core/search"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// Intent 使用者意圖
type Intent string

const (
	IntentFetchRecipes  Intent = "fetch_recipes"
	IntentCatalogRecipe Intent = "catalog_recipe"
)

// ParseIntent 解析模型回覆，無法辨識時視為找食譜
func ParseIntent(reply string) Intent {
	label := strings.ToLower(strings.Trim(strings.TrimSpace(reply), "\"'`.:!* \n\t"))
	if Intent(label) == IntentCatalogRecipe {
		return IntentCatalogRecipe
	}
	return IntentFetchRecipes
}

var urlPattern = regexp.MustCompile(`https?://\S+`)

// ExtractURL 訊息中的第一個網址
func ExtractURL(message string) (string, bool) {
	u := urlPattern.FindString(message)
	return u, u != ""
}

// 狀態
const (
	StateClassifyIntent fsm.State = "classify_intent"
	StateExtractURL     fsm.State = "extract_url"
	StateFetchRecipes   fsm.State = "fetch_recipes"
	StateCatalogRecipe  fsm.State = "catalog_recipe"
	StateDone           fsm.State = "done"
)

// 事件
const (
	EventOK         fsm.Event = "ok"
	EventURLFound   fsm.Event = "url_found"
	EventURLMissing fsm.Event = "url_missing"
)

// Searcher 食譜查詢流程
type Searcher interface {
	Run(ctx context.Context, req search.Request) (*search.Result, error)
}

// Cataloger 食譜收錄流程
type Cataloger interface {
	Run(ctx context.Context, url string) (*catalog.Result, error)
}

// Request 對話請求
type Request struct {
	Message     string             `json:"message" binding:"required"`
	Preferences common.Preferences `json:"preferences"`
}

// Result 對話結果
type Result struct {
	Intent       Intent          `json:"intent"`
	RecipeURL    string          `json:"recipe_url,omitempty"`
	Response     string          `json:"response"`
	Success      bool            `json:"success"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Search       *search.Result  `json:"search,omitempty"`
	Catalog      *catalog.Result `json:"catalog,omitempty"`
}

type run struct {
	req Request
	res *Result
}

// Orchestrator 對話入口
type Orchestrator struct {
	llm         ai.Completer
	routerModel string
	searcher    Searcher
	cataloger   Cataloger
	machine     *fsm.Machine[run]
}

// New 建立 Orchestrator；routerModel 為空時使用預設模型
func New(llm ai.Completer, routerModel string, searcher Searcher, cataloger Cataloger) *Orchestrator {
	o := &Orchestrator{
		llm:         llm,
		routerModel: routerModel,
		searcher:    searcher,
		cataloger:   cataloger,
	}

	o.machine = fsm.New[run]("orchestrator", StateClassifyIntent).
		On(StateClassifyIntent, o.classifyIntent).
		On(StateExtractURL, o.extractURL).
		On(StateFetchRecipes, o.fetchRecipes).
		On(StateCatalogRecipe, o.catalogRecipe).
		Edge(StateClassifyIntent, fsm.Event(IntentFetchRecipes), StateFetchRecipes).
		Edge(StateClassifyIntent, fsm.Event(IntentCatalogRecipe), StateExtractURL).
		Edge(StateExtractURL, EventURLFound, StateCatalogRecipe).
		Edge(StateExtractURL, EventURLMissing, StateDone).
		Edge(StateFetchRecipes, EventOK, StateDone).
		Edge(StateCatalogRecipe, EventOK, StateDone).
		Terminal(StateDone)

	return o
}

// Handle 處理一則使用者訊息；流程內的錯誤都轉成回覆文字，只有取消會回傳 error
func (o *Orchestrator) Handle(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	r := &run{req: req, res: &Result{}}

	if _, err := o.machine.Run(ctx, r); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	common.LogInfo("對話處理完成",
		zap.String("intent", string(r.res.Intent)),
		zap.Bool("success", r.res.Success),
		zap.Duration("耗時", time.Since(start)),
	)
	return r.res, nil
}

func (o *Orchestrator) classifyIntent(ctx context.Context, r *run) (fsm.Event, error) {
	reply, err := o.llm.Complete(ctx, ai.Prompt{
		System: routeIntentPrompt,
		User:   fmt.Sprintf(routeIntentUserPrompt, r.req.Message),
		Model:  o.routerModel,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		common.LogWarn("意圖分類失敗，改用 fetch_recipes", zap.Error(err))
		reply = ""
	}
	r.res.Intent = ParseIntent(reply)
	return fsm.Event(r.res.Intent), nil
}

func (o *Orchestrator) extractURL(ctx context.Context, r *run) (fsm.Event, error) {
	u, ok := ExtractURL(r.req.Message)
	if !ok {
		r.res.ErrorMessage = noURLMessage
		r.res.Response = noURLMessage
		return EventURLMissing, nil
	}
	r.res.RecipeURL = u
	return EventURLFound, nil
}

func (o *Orchestrator) fetchRecipes(ctx context.Context, r *run) (fsm.Event, error) {
	var res *search.Result
	err := guard(func() (err error) {
		res, err = o.searcher.Run(ctx, search.Request{
			Query:       r.req.Message,
			Preferences: r.req.Preferences,
		})
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		common.LogError("查詢流程失敗", zap.Error(err))
		r.res.ErrorMessage = fmt.Sprintf(searchWorkflowError, err)
		r.res.Response = searchApology
		return EventOK, nil
	}

	r.res.Search = res
	r.res.Success = true
	r.res.Response = res.Recommendations
	if r.res.Response == "" {
		r.res.Response = noRecommendations
	}
	return EventOK, nil
}

func (o *Orchestrator) catalogRecipe(ctx context.Context, r *run) (fsm.Event, error) {
	var res *catalog.Result
	err := guard(func() (err error) {
		res, err = o.cataloger.Run(ctx, r.res.RecipeURL)
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		common.LogError("收錄流程失敗", zap.String("url", r.res.RecipeURL), zap.Error(err))
		r.res.ErrorMessage = fmt.Sprintf(catalogWorkflowError, err)
		r.res.Response = catalogApology
		return EventOK, nil
	}

	r.res.Catalog = res
	r.res.Success = res.Success
	if res.Success {
		name := "the recipe"
		if res.Recipe != nil && res.Recipe.Name != "" {
			name = res.Recipe.Name
		}
		r.res.Response = fmt.Sprintf(catalogSuccessReply, name)
		return EventOK, nil
	}

	msg := res.ErrorMessage
	if msg == "" {
		msg = "Unknown error"
	}
	r.res.ErrorMessage = msg
	r.res.Response = fmt.Sprintf(catalogFailureReply, msg)
	return EventOK, nil
}

// guard 把子流程的 panic 轉成 error
func guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}
