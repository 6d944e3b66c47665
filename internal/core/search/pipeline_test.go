package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanJuricic26/chef-ai/internal/core/ai"
	"github.com/RyanJuricic26/chef-ai/internal/core/recipe"
	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/config"
	"github.com/RyanJuricic26/chef-ai/internal/infrastructure/database"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// script 依系統提示詞分派的模型回覆
type script struct {
	classify    string
	ingredients string
	term        string
	sql         []string // 依序回覆，用完後重複最後一個
	recommend   string
	analyze     string
}

func (s script) completer() *ai.Scripted {
	sqlCalls := 0
	return ai.NewScriptedFunc(func(p ai.Prompt) (string, error) {
		switch {
		case p.System == classifyQueryPrompt:
			return s.classify, nil
		case p.System == extractIngredientsPrompt:
			return s.ingredients, nil
		case p.System == extractSearchTermPrompt:
			return s.term, nil
		case p.System == recommendPrompt:
			return s.recommend, nil
		case p.System == analyzeResultsPrompt:
			return s.analyze, nil
		case strings.HasPrefix(p.System, "You are a SQL query generator"):
			if len(s.sql) == 0 {
				return "", errors.New("no sql scripted")
			}
			i := sqlCalls
			if i >= len(s.sql) {
				i = len(s.sql) - 1
			}
			sqlCalls++
			return s.sql[i], nil
		}
		return "", errors.New("unexpected prompt")
	})
}

func countSystem(calls []ai.Prompt, match func(string) bool) int {
	n := 0
	for _, c := range calls {
		if match(c.System) {
			n++
		}
	}
	return n
}

func isSQLPrompt(s string) bool { return strings.HasPrefix(s, "You are a SQL query generator") }

func draft(name, cuisine string, difficulty common.Difficulty, prep, cook int, ingredients ...string) *recipe.Draft {
	d := &recipe.Draft{
		Name:         name,
		Instructions: "Cook it.",
		PrepTime:     prep,
		CookTime:     cook,
		Difficulty:   difficulty,
		CuisineType:  cuisine,
	}
	for _, ing := range ingredients {
		d.Ingredients = append(d.Ingredients, recipe.IngredientLine{Name: ing, Category: "other"})
	}
	return d
}

func seededStore(t *testing.T) *recipe.Store {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	store := recipe.NewStore(db)
	ctx := context.Background()
	for _, d := range []*recipe.Draft{
		draft("Chicken Fried Rice", "Chinese", common.DifficultyMedium, 10, 15, "chicken", "rice", "egg", "soy sauce"),
		draft("Plain Rice", "", common.DifficultyEasy, 0, 20, "rice", "water"),
		draft("Beef Stew", "French", common.DifficultyHard, 30, 120, "beef", "carrot", "potato", "onion", "garlic"),
	} {
		_, err := store.SaveRecipe(ctx, d)
		require.NoError(t, err)
	}
	return store
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{MinMatchThreshold: 30, MaxRecipes: 5, MaxSQLAttempts: 3}
}

func TestPipelineIngredients(t *testing.T) {
	llm := script{
		classify:    "ingredients",
		ingredients: "chicken\nrice\negg",
		recommend:   "Make the fried rice!",
	}.completer()
	p := NewPipeline(llm, seededStore(t), testSearchConfig())

	res, err := p.Run(context.Background(), Request{Query: "I have chicken, rice and eggs"})
	require.NoError(t, err)

	assert.Equal(t, ModeIngredients, res.Mode)
	assert.Equal(t, []string{"chicken", "rice", "egg"}, res.UserIngredients)
	assert.Len(t, res.Recipes, 3)
	require.Len(t, res.FilteredRecipes, 2)
	assert.Equal(t, "Chicken Fried Rice", res.FilteredRecipes[0].Recipe.Name)
	assert.Equal(t, 75.0, res.FilteredRecipes[0].Match.Percentage)
	assert.Equal(t, "Plain Rice", res.FilteredRecipes[1].Recipe.Name)
	assert.Equal(t, "Make the fried rice!", res.Recommendations)

	calls := llm.Calls()
	require.Len(t, calls, 3)
	rec := calls[2]
	assert.Equal(t, 0.7, rec.Temperature)
	assert.Contains(t, rec.User, "User Query: I have chicken, rice and eggs")
	assert.Contains(t, rec.User, "chicken [AVAILABLE]")
	assert.Contains(t, rec.User, "soy sauce [MISSING]")
	assert.Contains(t, rec.User, "User's Available Ingredients: chicken, rice, egg")
	assert.NotContains(t, rec.User, "Beef Stew")
	assert.Contains(t, rec.User, "Found 2 recipe(s). Top 2 matches:")
	assert.Contains(t, rec.User, "1. Chicken Fried Rice (Match: 75.0%)")
	assert.Less(t, strings.Index(rec.User, "1. Chicken Fried Rice"), strings.Index(rec.User, "2. Plain Rice"))
}

func TestPipelineIngredientsWithPreferences(t *testing.T) {
	llm := script{classify: "ingredients", ingredients: "rice", recommend: "ok"}.completer()
	p := NewPipeline(llm, seededStore(t), testSearchConfig())

	res, err := p.Run(context.Background(), Request{
		Query:       "what can I make with rice",
		Preferences: common.Preferences{Difficulty: common.DifficultyEasy},
	})
	require.NoError(t, err)

	// Plain Rice: 50+10, Fried Rice: 25 低於門檻
	require.Len(t, res.FilteredRecipes, 1)
	assert.Equal(t, "Plain Rice", res.FilteredRecipes[0].Recipe.Name)
	assert.Equal(t, 60.0, res.FilteredRecipes[0].Score)
	assert.Contains(t, llm.Calls()[2].User, "User Preferences: difficulty: easy")
}

func TestPipelineNoIngredients(t *testing.T) {
	llm := script{classify: "ingredients", ingredients: "NONE"}.completer()
	p := NewPipeline(llm, seededStore(t), testSearchConfig())

	res, err := p.Run(context.Background(), Request{Query: "I have stuff"})
	require.NoError(t, err)

	assert.Empty(t, res.UserIngredients)
	assert.Empty(t, res.FilteredRecipes)
	assert.Equal(t, NoMatchesMessage, res.Recommendations)
	assert.Equal(t, 2, llm.CallCount())
}

func TestPipelineNothingAboveThreshold(t *testing.T) {
	llm := script{classify: "ingredients", ingredients: "durian"}.completer()
	p := NewPipeline(llm, seededStore(t), testSearchConfig())

	res, err := p.Run(context.Background(), Request{Query: "I have durian"})
	require.NoError(t, err)

	assert.Len(t, res.Recipes, 3)
	assert.Empty(t, res.FilteredRecipes)
	assert.Equal(t, NoMatchesMessage, res.Recommendations)
	assert.Equal(t, 2, llm.CallCount())
}

func TestPipelineName(t *testing.T) {
	llm := script{classify: "name", term: "Stew", recommend: "Try the stew."}.completer()
	p := NewPipeline(llm, seededStore(t), testSearchConfig())

	res, err := p.Run(context.Background(), Request{Query: "show me a stew recipe"})
	require.NoError(t, err)

	assert.Equal(t, ModeName, res.Mode)
	assert.Equal(t, "stew", res.SearchTerm)
	require.Len(t, res.FilteredRecipes, 1)
	assert.Equal(t, "Beef Stew", res.FilteredRecipes[0].Recipe.Name)
	assert.Nil(t, res.FilteredRecipes[0].Match)
	assert.Len(t, res.FilteredRecipes[0].Ingredients, 5)
	assert.Equal(t, "Try the stew.", res.Recommendations)
}

func TestPipelineNameMatchesCuisine(t *testing.T) {
	llm := script{classify: "name", term: "chinese", recommend: "ok"}.completer()
	p := NewPipeline(llm, seededStore(t), testSearchConfig())

	res, err := p.Run(context.Background(), Request{Query: "something chinese"})
	require.NoError(t, err)
	require.Len(t, res.FilteredRecipes, 1)
	assert.Equal(t, "Chicken Fried Rice", res.FilteredRecipes[0].Recipe.Name)
}

func TestPipelineGeneral(t *testing.T) {
	for _, reply := range []string{"general", "no idea what this is"} {
		t.Run(reply, func(t *testing.T) {
			llm := script{classify: reply, recommend: "Here is everything."}.completer()
			p := NewPipeline(llm, seededStore(t), testSearchConfig())

			res, err := p.Run(context.Background(), Request{Query: "What recipes do you have?"})
			require.NoError(t, err)

			assert.Equal(t, ModeGeneral, res.Mode)
			assert.Equal(t, []string{"Beef Stew", "Chicken Fried Rice", "Plain Rice"}, names(res.FilteredRecipes))
			assert.Equal(t, "Here is everything.", res.Recommendations)
		})
	}
}

func TestPipelineClassifyErrorFallsBackToGeneral(t *testing.T) {
	llm := script{recommend: "all of them"}.completer().WithErrorAt(0, errors.New("model down"))
	p := NewPipeline(llm, seededStore(t), testSearchConfig())

	res, err := p.Run(context.Background(), Request{Query: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ModeGeneral, res.Mode)
	assert.Equal(t, "all of them", res.Recommendations)
}

func TestPipelineRecommendErrorIsReturned(t *testing.T) {
	llm := script{classify: "general"}.completer().WithErrorAt(1, errors.New("model down"))
	p := NewPipeline(llm, seededStore(t), testSearchConfig())

	_, err := p.Run(context.Background(), Request{Query: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model down")
}

func TestPipelineAnalytics(t *testing.T) {
	llm := script{
		classify: "analytics",
		sql:      []string{"```sql\nSELECT COUNT(*) AS total FROM recipes\n```"},
		analyze:  "You have 3 recipes.",
	}.completer()
	p := NewPipeline(llm, seededStore(t), testSearchConfig())

	res, err := p.Run(context.Background(), Request{Query: "How many recipes do I have?"})
	require.NoError(t, err)

	assert.Equal(t, ModeAnalytics, res.Mode)
	assert.Equal(t, "SELECT COUNT(*) AS total FROM recipes", res.GeneratedSQL)
	assert.Equal(t, 1, res.SQLAttempts)
	assert.Empty(t, res.SQLError)
	require.NotNil(t, res.Rows)
	assert.Equal(t, []string{"total"}, res.Rows.Columns)
	assert.Equal(t, "You have 3 recipes.", res.Recommendations)

	calls := llm.Calls()
	require.Len(t, calls, 3)
	assert.Contains(t, calls[1].System, "recipe_ingredients")
	assert.Contains(t, calls[2].User, "total\n3")
}

func TestPipelineAnalyticsValidationExhausted(t *testing.T) {
	llm := script{classify: "analytics", sql: []string{"DROP TABLE recipes"}}.completer()
	p := NewPipeline(llm, seededStore(t), testSearchConfig())

	res, err := p.Run(context.Background(), Request{Query: "delete everything"})
	require.NoError(t, err)

	calls := llm.Calls()
	assert.Equal(t, 3, countSystem(calls, isSQLPrompt))
	assert.Equal(t, 0, countSystem(calls, func(s string) bool { return s == analyzeResultsPrompt }))
	assert.Equal(t, 3, res.SQLAttempts)
	assert.Contains(t, res.SQLError, "Only SELECT queries allowed")
	assert.Contains(t, res.Recommendations, "after 3 attempts")
	assert.Nil(t, res.Rows)

	// 第二次起帶上一輪的錯誤
	assert.NotContains(t, calls[1].User, "Previous attempt failed with:")
	assert.Contains(t, calls[2].User, "Previous attempt failed with: SQL Validation Failed")
}

func TestPipelineAnalyticsExecutionExhausted(t *testing.T) {
	llm := script{classify: "analytics", sql: []string{"SELECT recipes.rating FROM recipes"}}.completer()
	p := NewPipeline(llm, seededStore(t), testSearchConfig())

	res, err := p.Run(context.Background(), Request{Query: "average rating?"})
	require.NoError(t, err)

	calls := llm.Calls()
	assert.Equal(t, 3, countSystem(calls, isSQLPrompt))
	assert.Equal(t, 3, res.SQLAttempts)
	assert.Contains(t, res.SQLError, "SQL execution error")
	assert.Contains(t, res.Recommendations, "after 3 attempts")
	assert.Contains(t, calls[2].User, "Previous attempt failed with: SQL execution error")
}

func TestPipelineAnalyticsRecoversAfterRetry(t *testing.T) {
	llm := script{
		classify: "analytics",
		sql: []string{
			"SELECT name FROM dishes",
			"SELECT recipes.name FROM recipes WHERE recipes.cuisine_type = 'French'",
		},
		analyze: "Beef Stew is your only French recipe.",
	}.completer()
	p := NewPipeline(llm, seededStore(t), testSearchConfig())

	res, err := p.Run(context.Background(), Request{Query: "Which recipes are French?"})
	require.NoError(t, err)

	assert.Equal(t, 2, res.SQLAttempts)
	assert.Empty(t, res.SQLError)
	assert.Equal(t, "Beef Stew is your only French recipe.", res.Recommendations)
	assert.Contains(t, llm.Calls()[2].User, "Invalid table(s) referenced: dishes")
}

// failingQueries 查詢一律失敗的 Store
type failingQueries struct {
	*recipe.Store
	queries int
}

func (f *failingQueries) QueryReadOnly(ctx context.Context, query string) (*recipe.ResultSet, error) {
	f.queries++
	return nil, errors.New("database is locked")
}

func TestPipelineMaxSQLAttemptsConfigurable(t *testing.T) {
	store := &failingQueries{Store: seededStore(t)}
	llm := script{classify: "analytics", sql: []string{"SELECT COUNT(*) FROM recipes"}}.completer()
	cfg := testSearchConfig()
	cfg.MaxSQLAttempts = 5
	p := NewPipeline(llm, store, cfg)

	res, err := p.Run(context.Background(), Request{Query: "count"})
	require.NoError(t, err)

	assert.Equal(t, 5, countSystem(llm.Calls(), isSQLPrompt))
	assert.Equal(t, 5, store.queries)
	assert.Contains(t, res.Recommendations, "after 5 attempts")
	assert.Contains(t, res.SQLError, "database is locked")
}

func TestPipelineDefaultMaxSQLAttempts(t *testing.T) {
	store := &failingQueries{Store: seededStore(t)}
	llm := script{classify: "analytics", sql: []string{"SELECT COUNT(*) FROM recipes"}}.completer()
	p := NewPipeline(llm, store, config.SearchConfig{})

	res, err := p.Run(context.Background(), Request{Query: "count"})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxSQLAttempts, store.queries)
	assert.Equal(t, DefaultMaxSQLAttempts, res.SQLAttempts)
}

// brokenStore 列表失敗的 Store
type brokenStore struct{ *recipe.Store }

func (brokenStore) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	return nil, errors.New("disk I/O error")
}

func TestPipelineStoreErrorIsReturned(t *testing.T) {
	llm := script{classify: "general"}.completer()
	p := NewPipeline(llm, brokenStore{seededStore(t)}, testSearchConfig())

	_, err := p.Run(context.Background(), Request{Query: "everything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Equal(t, 1, llm.CallCount())
}

func TestPipelineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	llm := script{classify: "general"}.completer()
	p := NewPipeline(llm, seededStore(t), testSearchConfig())

	_, err := p.Run(ctx, Request{Query: "anything"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, llm.CallCount())
}
