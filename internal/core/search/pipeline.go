// Package search 將使用者的自由文字查詢分類後，走食材比對、名稱搜尋、全部瀏覽
// 或分析 SQL 其中一條路徑。分析路徑的 SQL 產生、驗證、執行共用一個重試上限。
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/core/ai"
	"github.com/RyanJuricic26/chef-ai/internal/core/fsm"
	"github.com/RyanJuricic26/chef-ai/internal/core/recipe"
	"github.com/RyanJuricic26/chef-ai/internal/core/sqlguard"
	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/config"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// 狀態
const (
	StateClassify           fsm.State = "classify"
	StateExtractIngredients fsm.State = "extract_ingredients"
	StateMatchIngredients   fsm.State = "match_ingredients"
	StateExtractTerm        fsm.State = "extract_term"
	StateSearchName         fsm.State = "search_name"
	StateListAll            fsm.State = "list_all"
	StateRecommend          fsm.State = "recommend"
	StateGenerateSQL        fsm.State = "generate_sql"
	StateJudgeSQL           fsm.State = "judge_sql"
	StateExecuteSQL         fsm.State = "execute_sql"
	StateAnalyze            fsm.State = "analyze"
	StateSQLFailed          fsm.State = "sql_failed"
	StateDone               fsm.State = "done"
)

// 事件
const (
	EventOK        fsm.Event = "ok"
	EventNone      fsm.Event = "none"
	EventValid     fsm.Event = "valid"
	EventRetry     fsm.Event = "retry"
	EventExhausted fsm.Event = "exhausted"
)

// DefaultMaxSQLAttempts SQL 產生的最大嘗試次數
const DefaultMaxSQLAttempts = 3

// Store 查詢所需的資料存取
type Store interface {
	ListRecipes(ctx context.Context) ([]recipe.Recipe, error)
	SearchByName(ctx context.Context, term string) ([]recipe.Recipe, error)
	QueryReadOnly(ctx context.Context, query string) (*recipe.ResultSet, error)
}

// run 單次查詢的共享狀態
type run struct {
	req Request
	res *Result

	sqlError    string
	sqlFailures int
}

// Pipeline 食譜查詢流程
type Pipeline struct {
	llm       ai.Completer
	store     Store
	validator *sqlguard.Validator
	cfg       config.SearchConfig
	machine   *fsm.Machine[run]
}

// NewPipeline 建立查詢流程
func NewPipeline(llm ai.Completer, store Store, cfg config.SearchConfig) *Pipeline {
	if cfg.MaxSQLAttempts <= 0 {
		cfg.MaxSQLAttempts = DefaultMaxSQLAttempts
	}

	p := &Pipeline{
		llm:       llm,
		store:     store,
		validator: sqlguard.New(sqlguard.DefaultSchema),
		cfg:       cfg,
	}

	p.machine = fsm.New[run]("search", StateClassify).
		On(StateClassify, p.classify).
		On(StateExtractIngredients, p.extractIngredients).
		On(StateMatchIngredients, p.matchIngredients).
		On(StateExtractTerm, p.extractTerm).
		On(StateSearchName, p.searchName).
		On(StateListAll, p.listAll).
		On(StateRecommend, p.recommend).
		On(StateGenerateSQL, p.generateSQL).
		On(StateJudgeSQL, p.judgeSQL).
		On(StateExecuteSQL, p.executeSQL).
		On(StateAnalyze, p.analyze).
		On(StateSQLFailed, p.sqlFailed).
		Edge(StateClassify, fsm.Event(ModeIngredients), StateExtractIngredients).
		Edge(StateClassify, fsm.Event(ModeName), StateExtractTerm).
		Edge(StateClassify, fsm.Event(ModeGeneral), StateListAll).
		Edge(StateClassify, fsm.Event(ModeAnalytics), StateGenerateSQL).
		Edge(StateExtractIngredients, EventOK, StateMatchIngredients).
		Edge(StateExtractIngredients, EventNone, StateRecommend).
		Edge(StateMatchIngredients, EventOK, StateRecommend).
		Edge(StateExtractTerm, EventOK, StateSearchName).
		Edge(StateSearchName, EventOK, StateRecommend).
		Edge(StateListAll, EventOK, StateRecommend).
		Edge(StateRecommend, EventOK, StateDone).
		Edge(StateGenerateSQL, EventOK, StateJudgeSQL).
		Edge(StateJudgeSQL, EventValid, StateExecuteSQL).
		Edge(StateJudgeSQL, EventRetry, StateGenerateSQL).
		Edge(StateJudgeSQL, EventExhausted, StateSQLFailed).
		Edge(StateExecuteSQL, EventOK, StateAnalyze).
		Edge(StateExecuteSQL, EventRetry, StateGenerateSQL).
		Edge(StateExecuteSQL, EventExhausted, StateSQLFailed).
		Edge(StateAnalyze, EventOK, StateDone).
		Edge(StateSQLFailed, EventOK, StateDone).
		Terminal(StateDone).
		WithMaxSteps(cfg.MaxSQLAttempts*3 + 10)

	return p
}

// Run 執行一次查詢；模型或資料庫的基礎設施錯誤會回傳 error
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	r := &run{req: req, res: &Result{}}

	if _, err := p.machine.Run(ctx, r); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	common.LogInfo("查詢完成",
		zap.String("mode", string(r.res.Mode)),
		zap.Int("recipes", len(r.res.FilteredRecipes)),
		zap.Int("sql_attempts", r.res.SQLAttempts),
		zap.Duration("耗時", time.Since(start)),
	)
	return r.res, nil
}

func (p *Pipeline) ask(ctx context.Context, system, user string, temperature float64) (string, error) {
	return p.llm.Complete(ctx, ai.Prompt{
		System:      system,
		User:        user,
		Temperature: temperature,
	})
}

func (p *Pipeline) classify(ctx context.Context, r *run) (fsm.Event, error) {
	reply, err := p.ask(ctx, classifyQueryPrompt, fmt.Sprintf("User query: %s\n\nClassification:", r.req.Query), 0)
	if err != nil {
		common.LogWarn("查詢分類失敗，改用 general", zap.Error(err))
		reply = ""
	}
	r.res.Mode = ParseMode(reply)
	return fsm.Event(r.res.Mode), nil
}

func (p *Pipeline) extractIngredients(ctx context.Context, r *run) (fsm.Event, error) {
	reply, err := p.ask(ctx, extractIngredientsPrompt, fmt.Sprintf("User message: %s\n\nIngredients:", r.req.Query), 0)
	if err != nil {
		return "", fmt.Errorf("extract ingredients: %w", err)
	}
	r.res.UserIngredients = ParseIngredientList(reply)
	if len(r.res.UserIngredients) == 0 {
		return EventNone, nil
	}
	return EventOK, nil
}

func (p *Pipeline) matchIngredients(ctx context.Context, r *run) (fsm.Event, error) {
	recipes, err := p.store.ListRecipes(ctx)
	if err != nil {
		return "", fmt.Errorf("list recipes: %w", err)
	}

	matched := MatchIngredients(recipes, r.res.UserIngredients)
	r.res.Recipes = matched

	filtered := FilterByThreshold(matched, p.cfg.MinMatchThreshold)
	r.res.FilteredRecipes = Top(Rank(filtered, r.req.Preferences), p.cfg.MaxRecipes)
	return EventOK, nil
}

func (p *Pipeline) extractTerm(ctx context.Context, r *run) (fsm.Event, error) {
	reply, err := p.ask(ctx, extractSearchTermPrompt, fmt.Sprintf("User message: %s\n\nSearch term:", r.req.Query), 0)
	if err != nil {
		return "", fmt.Errorf("extract search term: %w", err)
	}
	r.res.SearchTerm = ParseSearchTerm(reply)
	if r.res.SearchTerm == "" {
		r.res.SearchTerm = strings.ToLower(strings.TrimSpace(r.req.Query))
	}
	return EventOK, nil
}

func (p *Pipeline) searchName(ctx context.Context, r *run) (fsm.Event, error) {
	recipes, err := p.store.SearchByName(ctx, r.res.SearchTerm)
	if err != nil {
		return "", fmt.Errorf("search by name: %w", err)
	}
	r.res.Recipes = Candidates(recipes)
	r.res.FilteredRecipes = Top(r.res.Recipes, p.cfg.MaxRecipes)
	return EventOK, nil
}

func (p *Pipeline) listAll(ctx context.Context, r *run) (fsm.Event, error) {
	recipes, err := p.store.ListRecipes(ctx)
	if err != nil {
		return "", fmt.Errorf("list recipes: %w", err)
	}
	r.res.Recipes = Candidates(recipes)
	r.res.FilteredRecipes = Top(r.res.Recipes, p.cfg.MaxRecipes)
	return EventOK, nil
}

func (p *Pipeline) recommend(ctx context.Context, r *run) (fsm.Event, error) {
	if len(r.res.FilteredRecipes) == 0 {
		r.res.Recommendations = NoMatchesMessage
		return EventOK, nil
	}

	formatted := make([]string, 0, len(r.res.FilteredRecipes))
	for _, c := range r.res.FilteredRecipes {
		formatted = append(formatted, FormatRecipe(c))
	}
	// 只給模型篩選排序後的食譜
	recipesContext := Summary(r.res.FilteredRecipes, len(r.res.FilteredRecipes)) + "\n" + strings.Join(formatted, "\n\n---\n\n")

	var extra strings.Builder
	if len(r.res.UserIngredients) > 0 {
		fmt.Fprintf(&extra, "\nUser's Available Ingredients: %s\n", strings.Join(r.res.UserIngredients, ", "))
	}
	if !r.req.Preferences.IsZero() {
		fmt.Fprintf(&extra, "\nUser Preferences: %s\n", r.req.Preferences.String())
	}

	reply, err := p.ask(ctx, recommendPrompt, fmt.Sprintf(recommendUserPrompt, r.req.Query, recipesContext, extra.String()), 0.7)
	if err != nil {
		return "", fmt.Errorf("generate recommendations: %w", err)
	}
	r.res.Recommendations = strings.TrimSpace(reply)
	return EventOK, nil
}

func (p *Pipeline) generateSQL(ctx context.Context, r *run) (fsm.Event, error) {
	question := r.req.Query
	if r.sqlError != "" {
		question = fmt.Sprintf(sqlRetryPrompt, r.req.Query, r.sqlError)
	}

	reply, err := p.ask(ctx,
		fmt.Sprintf(generateSQLPrompt, p.validator.Documentation()),
		fmt.Sprintf("User question: %s\n\nSQL Query:", question),
		0,
	)
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}

	r.res.SQLAttempts++
	r.res.GeneratedSQL = CleanSQL(reply)
	r.sqlError = ""
	return EventOK, nil
}

// retryOrGiveUp 驗證與執行失敗共用同一個計數
func (p *Pipeline) retryOrGiveUp(r *run, msg string) fsm.Event {
	r.sqlError = msg
	r.sqlFailures++
	common.LogDebug("SQL 嘗試失敗",
		zap.Int("failures", r.sqlFailures),
		zap.String("sql", r.res.GeneratedSQL),
		zap.String("error", msg),
	)
	if r.sqlFailures < p.cfg.MaxSQLAttempts {
		return EventRetry
	}
	return EventExhausted
}

func (p *Pipeline) judgeSQL(ctx context.Context, r *run) (fsm.Event, error) {
	result := p.validator.Validate(r.res.GeneratedSQL)
	if !result.IsValid {
		return p.retryOrGiveUp(r, p.validator.ExplainFailure(result)), nil
	}
	if len(result.Warnings) > 0 {
		common.LogDebug("SQL 欄位警告", zap.Strings("warnings", result.Warnings))
	}
	r.res.GeneratedSQL = result.SanitizedQuery
	return EventValid, nil
}

func (p *Pipeline) executeSQL(ctx context.Context, r *run) (fsm.Event, error) {
	rows, err := p.store.QueryReadOnly(ctx, r.res.GeneratedSQL)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		r.res.Rows = nil
		return p.retryOrGiveUp(r, fmt.Sprintf(sqlExecutionError, err)), nil
	}
	r.res.Rows = rows
	return EventOK, nil
}

func (p *Pipeline) analyze(ctx context.Context, r *run) (fsm.Event, error) {
	reply, err := p.ask(ctx, analyzeResultsPrompt,
		fmt.Sprintf(analyzeResultsUserPrompt, r.req.Query, r.res.GeneratedSQL, r.res.Rows.String()),
		0.7,
	)
	if err != nil {
		return "", fmt.Errorf("analyze results: %w", err)
	}
	r.res.Recommendations = strings.TrimSpace(reply)
	return EventOK, nil
}

func (p *Pipeline) sqlFailed(ctx context.Context, r *run) (fsm.Event, error) {
	r.res.SQLError = r.sqlError
	r.res.Recommendations = fmt.Sprintf(sqlFailureMessage, r.sqlFailures, r.sqlError)
	common.LogWarn("SQL 產生失敗",
		zap.Int("attempts", r.sqlFailures),
		zap.String("error", r.sqlError),
	)
	return EventOK, nil
}
