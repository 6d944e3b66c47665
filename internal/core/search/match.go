package search

import (
	"sort"
	"strings"

	"github.com/RyanJuricic26/chef-ai/internal/core/recipe"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// 偏好加減分
const (
	preferenceBonus = 10
	overtimePenalty = 20
)

// MatchPercentage 符合比例（0~100），總數為 0 時為 0
func MatchPercentage(matched, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(matched) / float64(total) * 100
}

// NewCandidate 不含比對資訊的候選，食材依名稱排序
func NewCandidate(r recipe.Recipe) Candidate {
	c := Candidate{Ingredients: views(r.Ingredients, nil)}
	sort.SliceStable(c.Ingredients, func(i, j int) bool {
		return c.Ingredients[i].Name < c.Ingredients[j].Name
	})
	r.Ingredients = nil
	c.Recipe = r
	return c
}

// Candidates 將食譜轉為候選清單
func Candidates(recipes []recipe.Recipe) []Candidate {
	out := make([]Candidate, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, NewCandidate(r))
	}
	return out
}

// MatchIngredients 計算每道食譜有多少食材在使用者清單中（不分大小寫）。
// 沒有食材的食譜不列入；排序為符合數多者優先，同分時總食材少者優先
func MatchIngredients(recipes []recipe.Recipe, userIngredients []string) []Candidate {
	have := make(map[string]bool, len(userIngredients))
	for _, name := range userIngredients {
		have[strings.ToLower(strings.TrimSpace(name))] = true
	}

	var out []Candidate
	for _, r := range recipes {
		if len(r.Ingredients) == 0 {
			continue
		}

		c := Candidate{Ingredients: views(r.Ingredients, have)}
		matched := 0
		for _, v := range c.Ingredients {
			if *v.Available {
				matched++
			}
		}
		total := len(c.Ingredients)
		c.Match = &MatchInfo{
			Matched:    matched,
			Total:      total,
			Percentage: MatchPercentage(matched, total),
		}
		c.Score = c.Match.Percentage

		// 有的食材排前面，其餘依名稱
		sort.SliceStable(c.Ingredients, func(i, j int) bool {
			a, b := c.Ingredients[i], c.Ingredients[j]
			if *a.Available != *b.Available {
				return *a.Available
			}
			return a.Name < b.Name
		})

		r.Ingredients = nil
		c.Recipe = r
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Match.Matched != out[j].Match.Matched {
			return out[i].Match.Matched > out[j].Match.Matched
		}
		return out[i].Match.Total < out[j].Match.Total
	})
	return out
}

func views(lines []recipe.RecipeIngredient, have map[string]bool) []IngredientView {
	out := make([]IngredientView, 0, len(lines))
	for _, ri := range lines {
		v := IngredientView{
			Name:     ri.Ingredient.Name,
			Category: ri.Ingredient.Category,
			Quantity: ri.Quantity,
			Unit:     ri.Unit,
			Notes:    ri.Notes,
		}
		if have != nil {
			ok := have[strings.ToLower(ri.Ingredient.Name)]
			v.Available = &ok
		}
		out = append(out, v)
	}
	return out
}

// FilterByThreshold 去掉符合比例低於門檻的候選
func FilterByThreshold(cands []Candidate, threshold float64) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Match != nil && c.Match.Percentage >= threshold {
			out = append(out, c)
		}
	}
	return out
}

// Rank 依偏好調整分數後由高到低穩定排序
func Rank(cands []Candidate, prefs common.Preferences) []Candidate {
	out := make([]Candidate, len(cands))
	copy(out, cands)

	for i := range out {
		out[i].Score = score(out[i], prefs)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func score(c Candidate, prefs common.Preferences) float64 {
	var s float64
	if c.Match != nil {
		s = c.Match.Percentage
	}

	if prefs.Difficulty != "" && prefs.Difficulty == c.Recipe.Difficulty {
		s += preferenceBonus
	}
	if prefs.CuisineType != "" && strings.EqualFold(prefs.CuisineType, c.Recipe.CuisineType) {
		s += preferenceBonus
	}
	if prefs.MaxTime > 0 && c.Recipe.TotalTime() > prefs.MaxTime {
		s -= overtimePenalty
	}
	return s
}

// Top 取前 k 筆，k <= 0 時不限
func Top(cands []Candidate, k int) []Candidate {
	if k <= 0 || len(cands) <= k {
		return cands
	}
	return cands[:k]
}
