package search

import (
	"github.com/RyanJuricic26/chef-ai/internal/core/recipe"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// Mode 查詢分類
type Mode string

const (
	ModeIngredients Mode = "ingredients"
	ModeName        Mode = "name"
	ModeGeneral     Mode = "general"
	ModeAnalytics   Mode = "analytics"
)

// ParseMode 解析模型的分類回覆，無法辨識時回傳 general
func ParseMode(reply string) Mode {
	switch m := Mode(normalizeLabel(reply)); m {
	case ModeIngredients, ModeName, ModeGeneral, ModeAnalytics:
		return m
	}
	return ModeGeneral
}

// Request 查詢請求
type Request struct {
	Query       string             `json:"query" binding:"required"`
	Preferences common.Preferences `json:"preferences"`
}

// MatchInfo 食材比對結果
type MatchInfo struct {
	Matched    int     `json:"matched_ingredients"`
	Total      int     `json:"total_ingredients"`
	Percentage float64 `json:"match_percentage"`
}

// IngredientView 食譜中的一項食材；Available 只在使用者提供食材時有值
type IngredientView struct {
	Name      string `json:"name"`
	Category  string `json:"category"`
	Quantity  string `json:"quantity"`
	Unit      string `json:"unit"`
	Notes     string `json:"notes,omitempty"`
	Available *bool  `json:"available,omitempty"`
}

// Candidate 查詢到的食譜
type Candidate struct {
	Recipe      recipe.Recipe    `json:"recipe"`
	Ingredients []IngredientView `json:"ingredients"`
	Match       *MatchInfo       `json:"match,omitempty"`
	Score       float64          `json:"score,omitempty"`
}

// Result 查詢結果
type Result struct {
	Mode            Mode              `json:"mode"`
	UserIngredients []string          `json:"user_ingredients,omitempty"`
	SearchTerm      string            `json:"search_term,omitempty"`
	Recipes         []Candidate       `json:"recipes,omitempty"`
	FilteredRecipes []Candidate       `json:"filtered_recipes,omitempty"`
	GeneratedSQL    string            `json:"generated_sql,omitempty"`
	SQLAttempts     int               `json:"sql_attempts,omitempty"`
	SQLError        string            `json:"sql_error,omitempty"`
	Rows            *recipe.ResultSet `json:"rows,omitempty"`
	Recommendations string            `json:"recommendations"`
}
