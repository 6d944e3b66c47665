package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanJuricic26/chef-ai/internal/core/ai"
	"github.com/RyanJuricic26/chef-ai/internal/core/ai/queue"
	"github.com/RyanJuricic26/chef-ai/internal/core/catalog"
	"github.com/RyanJuricic26/chef-ai/internal/core/orchestrator"
	"github.com/RyanJuricic26/chef-ai/internal/core/recipe"
	"github.com/RyanJuricic26/chef-ai/internal/core/search"
	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/config"
	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/database"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		App:         config.AppConfig{Version: "test", Debug: true},
		Server:      config.ServerConfig{MaxBodyBytes: 1 << 20},
		Catalog:     config.CatalogConfig{RequestTimeout: 5 * time.Second, UserAgent: "chef-ai-test", MaxContentChars: 10000},
		Search:      config.SearchConfig{MinMatchThreshold: 30, MaxRecipes: 5, MaxSQLAttempts: 3},
		DedupWindow: time.Second,
	}
}

type searchFunc func(ctx context.Context, req search.Request) (*search.Result, error)

func (f searchFunc) Run(ctx context.Context, req search.Request) (*search.Result, error) {
	return f(ctx, req)
}

type catalogFunc func(ctx context.Context, url string) (*catalog.Result, error)

func (f catalogFunc) Run(ctx context.Context, url string) (*catalog.Result, error) {
	return f(ctx, url)
}

type chatFunc func(ctx context.Context, req orchestrator.Request) (*orchestrator.Result, error)

func (f chatFunc) Handle(ctx context.Context, req orchestrator.Request) (*orchestrator.Result, error) {
	return f(ctx, req)
}

func newStore(t *testing.T) *recipe.Store {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return recipe.NewStore(db)
}

func seedRecipe(t *testing.T, store *recipe.Store, name string, ingredients ...string) uint {
	t.Helper()
	d := &recipe.Draft{Name: name, Instructions: "Cook it.", Difficulty: common.DifficultyEasy}
	for _, ing := range ingredients {
		d.Ingredients = append(d.Ingredients, recipe.IngredientLine{Name: ing, Category: "other"})
	}
	id, err := store.SaveRecipe(context.Background(), d)
	require.NoError(t, err)
	return id
}

// stubServices 除了 Library 以外都用假的實作
func stubServices(store *recipe.Store) Services {
	return Services{
		Orchestrator: chatFunc(func(_ context.Context, req orchestrator.Request) (*orchestrator.Result, error) {
			return &orchestrator.Result{Intent: orchestrator.IntentFetchRecipes, Response: "echo: " + req.Message, Success: true}, nil
		}),
		Searcher: searchFunc(func(_ context.Context, req search.Request) (*search.Result, error) {
			return &search.Result{Mode: search.ModeGeneral, Recommendations: "all of them"}, nil
		}),
		Cataloger: catalogFunc(func(_ context.Context, url string) (*catalog.Result, error) {
			return &catalog.Result{Success: true, RecipeID: 1, ExtractionMethod: catalog.MethodJSONLD}, nil
		}),
		Library: store,
	}
}

func newRouter(t *testing.T, cfg *config.Config, svc Services) *gin.Engine {
	t.Helper()
	router, err := SetupRouter(cfg, svc)
	require.NoError(t, err)
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestSetupRouterRequiresServices(t *testing.T) {
	_, err := SetupRouter(testConfig(), Services{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orchestrator is required")
	assert.Contains(t, err.Error(), "recipe library is required")
}

func TestHealthEndpoints(t *testing.T) {
	svc := stubServices(newStore(t))
	router := newRouter(t, testConfig(), svc)

	w := do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	health := decode(t, w)
	assert.Equal(t, "test", health["version"])
	assert.NotContains(t, health, "queue")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(router, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode(t, w)["status"])
}

func TestHealthReportsQueue(t *testing.T) {
	llm := queue.NewManager(ai.NewScripted("ok"), config.QueueConfig{Workers: 2, MaxSize: 8})
	t.Cleanup(llm.Close)

	svc := stubServices(newStore(t))
	svc.Queue = llm
	router := newRouter(t, testConfig(), svc)

	w := do(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	q, ok := decode(t, w)["queue"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 2.0, q["workers"])
	assert.Equal(t, 8.0, q["max_queue_size"])
}

func TestReadinessFailsWhenDatabaseDown(t *testing.T) {
	svc := stubServices(newStore(t))
	svc.Ready = func(context.Context) error { return errors.New("connection refused") }
	router := newRouter(t, testConfig(), svc)

	w := do(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_ready", decode(t, w)["status"])
}

func TestChat(t *testing.T) {
	router := newRouter(t, testConfig(), stubServices(newStore(t)))

	w := do(router, http.MethodPost, "/api/v1/chat", `{"message":"What can I make?"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "fetch_recipes", body["intent"])
	assert.Equal(t, "echo: What can I make?", body["response"])

	w = do(router, http.MethodPost, "/api/v1/chat", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, common.ErrCodeInvalidRequest, decode(t, w)["code"])
}

func TestChatInfrastructureError(t *testing.T) {
	svc := stubServices(newStore(t))
	svc.Orchestrator = chatFunc(func(context.Context, orchestrator.Request) (*orchestrator.Result, error) {
		return nil, fmt.Errorf("orchestrator: %w", context.DeadlineExceeded)
	})
	router := newRouter(t, testConfig(), svc)

	w := do(router, http.MethodPost, "/api/v1/chat", `{"message":"hi"}`)
	assert.Equal(t, http.StatusRequestTimeout, w.Code)
	assert.Equal(t, common.ErrCodeRequestTimeout, decode(t, w)["code"])
}

func TestRecipeLibrary(t *testing.T) {
	store := newStore(t)
	tacos := seedRecipe(t, store, "Tacos", "ground beef", "tortillas")
	seedRecipe(t, store, "Arepas", "corn flour")
	router := newRouter(t, testConfig(), stubServices(store))

	w := do(router, http.MethodGet, "/api/v1/recipes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Recipes []recipe.Recipe `json:"recipes"`
		Count   int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, "Arepas", list.Recipes[0].Name)
	assert.Len(t, list.Recipes[1].Ingredients, 2)

	w = do(router, http.MethodGet, fmt.Sprintf("/api/v1/recipes/%d", tacos), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tacos", decode(t, w)["name"])

	w = do(router, http.MethodGet, "/api/v1/recipes/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RECIPE_NOT_FOUND", decode(t, w)["code"])

	w = do(router, http.MethodGet, "/api/v1/recipes/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecipeStarring(t *testing.T) {
	store := newStore(t)
	id := seedRecipe(t, store, "Tacos", "ground beef")
	router := newRouter(t, testConfig(), stubServices(store))
	path := fmt.Sprintf("/api/v1/recipes/%d/star", id)

	w := do(router, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["starred"])

	w = do(router, http.MethodGet, "/api/v1/recipes/starred", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{float64(id)}, decode(t, w)["recipe_ids"])

	w = do(router, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["starred"])

	w = do(router, http.MethodGet, "/api/v1/recipes/starred", "")
	assert.Equal(t, []interface{}{}, decode(t, w)["recipe_ids"])

	w = do(router, http.MethodPost, "/api/v1/recipes/999/star", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipeDelete(t *testing.T) {
	store := newStore(t)
	id := seedRecipe(t, store, "Tacos", "ground beef")
	router := newRouter(t, testConfig(), stubServices(store))
	path := fmt.Sprintf("/api/v1/recipes/%d", id)

	w := do(router, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["deleted"])

	w = do(router, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogEndpoint(t *testing.T) {
	svc := stubServices(newStore(t))
	var gotURL string
	svc.Cataloger = catalogFunc(func(_ context.Context, url string) (*catalog.Result, error) {
		gotURL = url
		if strings.Contains(url, "broken") {
			return &catalog.Result{ErrorMessage: "Failed to fetch webpage: 404"}, nil
		}
		return &catalog.Result{Success: true, RecipeID: 3, ExtractionMethod: catalog.MethodModel}, nil
	})
	router := newRouter(t, testConfig(), svc)

	w := do(router, http.MethodPost, "/api/v1/recipes/catalog", `{"url":"https://example.com/soup"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "https://example.com/soup", gotURL)
	assert.Equal(t, "llm_html", decode(t, w)["extraction_method"])

	w = do(router, http.MethodPost, "/api/v1/recipes/catalog", `{"url":"https://example.com/broken"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Failed to fetch webpage: 404", decode(t, w)["error_message"])

	w = do(router, http.MethodPost, "/api/v1/recipes/catalog", `{"url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpoint(t *testing.T) {
	svc := stubServices(newStore(t))
	var got search.Request
	svc.Searcher = searchFunc(func(_ context.Context, req search.Request) (*search.Result, error) {
		got = req
		return &search.Result{Mode: search.ModeName, SearchTerm: "tacos", Recommendations: "Tacos!"}, nil
	})
	router := newRouter(t, testConfig(), svc)

	w := do(router, http.MethodPost, "/api/v1/recipes/search", `{"query":"tacos","preferences":{"difficulty":"easy","max_time":30}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "tacos", got.Query)
	assert.Equal(t, common.DifficultyEasy, got.Preferences.Difficulty)
	assert.Equal(t, 30, got.Preferences.MaxTime)
	assert.Equal(t, "Tacos!", decode(t, w)["recommendations"])

	w = do(router, http.MethodPost, "/api/v1/recipes/search", `{"query":"tacos","preferences":{"difficulty":"extreme"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDuplicatePostRejected(t *testing.T) {
	router := newRouter(t, testConfig(), stubServices(newStore(t)))

	w := do(router, http.MethodPost, "/api/v1/chat", `{"message":"same"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(router, http.MethodPost, "/api/v1/chat", `{"message":"same"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	w = do(router, http.MethodPost, "/api/v1/chat", `{"message":"different"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitApplied(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, Requests: 1, Window: time.Hour}
	router := newRouter(t, cfg, stubServices(newStore(t)))

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/api/v1/recipes", "").Code)
	w := do(router, http.MethodGet, "/api/v1/recipes", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))

	// 健康檢查不受限
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health", "").Code)
}

func TestBodySizeLimitApplied(t *testing.T) {
	cfg := testConfig()
	cfg.Server.MaxBodyBytes = 16
	router := newRouter(t, cfg, stubServices(newStore(t)))

	w := do(router, http.MethodPost, "/api/v1/chat", `{"message":"this body is far too long"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

const tacosPage = `<html><head><script type="application/ld+json">
{"@context":"https://schema.org","@type":"Recipe","name":"Beef Tacos",
"prepTime":"PT10M","cookTime":"PT15M","recipeYield":"4","recipeCuisine":"Mexican",
"recipeInstructions":[{"@type":"HowToStep","text":"Brown the beef."},{"@type":"HowToStep","text":"Warm the tortillas."}],
"recipeIngredient":["1 lb ground beef","8 whole tortillas"]}
</script></head><body>Tacos</body></html>`

// TestChatEndToEnd 以真實流程收錄一份食譜，再用食材查詢找到它
func TestChatEndToEnd(t *testing.T) {
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(tacosPage))
	}))
	defer site.Close()

	scripted := ai.NewScriptedFunc(func(p ai.Prompt) (string, error) {
		switch {
		case strings.HasPrefix(p.System, "You are an intent classification assistant"):
			if strings.Contains(p.User, "http") {
				return "catalog_recipe", nil
			}
			return "fetch_recipes", nil
		case strings.HasPrefix(p.System, "You are a query classification assistant"):
			return "ingredients", nil
		case strings.HasPrefix(p.System, "You are an ingredient extraction assistant"):
			return "ground beef\ntortillas", nil
		case strings.HasPrefix(p.System, "You are a helpful chef assistant"):
			return "Make the Beef Tacos.", nil
		}
		return "", fmt.Errorf("unexpected prompt: %.40s", p.System)
	})

	llm := queue.NewManager(scripted, config.QueueConfig{Workers: 2, MaxSize: 4})
	t.Cleanup(llm.Close)

	cfg := testConfig()
	store := newStore(t)
	cataloger := catalog.NewPipeline(catalog.NewHTTPFetcher(cfg.Catalog), llm, store, cfg.Catalog)
	searcher := search.NewPipeline(llm, store, cfg.Search)
	router := newRouter(t, cfg, Services{
		Orchestrator: orchestrator.New(llm, "router", searcher, cataloger),
		Searcher:     searcher,
		Cataloger:    cataloger,
		Library:      store,
		Queue:        llm,
	})

	w := do(router, http.MethodPost, "/api/v1/chat", fmt.Sprintf(`{"message":"Add this recipe: %s/tacos"}`, site.URL))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "catalog_recipe", body["intent"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "✅ Successfully added 'Beef Tacos' to the database!", body["response"])

	w = do(router, http.MethodPost, "/api/v1/chat", `{"message":"I have ground beef and tortillas"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res orchestrator.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, orchestrator.IntentFetchRecipes, res.Intent)
	assert.Equal(t, "Make the Beef Tacos.", res.Response)
	require.NotNil(t, res.Search)
	require.Len(t, res.Search.FilteredRecipes, 1)
	assert.Equal(t, "Beef Tacos", res.Search.FilteredRecipes[0].Recipe.Name)
	assert.Equal(t, 100.0, res.Search.FilteredRecipes[0].Match.Percentage)
	assert.Equal(t, scripted.CallCount(), llm.GetQueueStatus().ProcessedCount)
}
