package search

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatRecipe 將候選食譜轉成給模型閱讀的文字
func FormatRecipe(c Candidate) string {
	r := c.Recipe

	var b strings.Builder
	fmt.Fprintf(&b, "Recipe: %s\n", r.Name)
	fmt.Fprintf(&b, "Description: %s\n", orNA(r.Description))
	fmt.Fprintf(&b, "Difficulty: %s\n", orNA(string(r.Difficulty)))
	fmt.Fprintf(&b, "Prep Time: %d min\n", r.PrepTime)
	fmt.Fprintf(&b, "Cook Time: %d min\n", r.CookTime)
	servings := "N/A"
	if r.Servings != nil {
		servings = strconv.Itoa(*r.Servings)
	}
	fmt.Fprintf(&b, "Servings: %s\n", servings)
	fmt.Fprintf(&b, "Cuisine: %s", orNA(r.CuisineType))
	if c.Match != nil {
		fmt.Fprintf(&b, "\nMatch: %.1f%% (%d/%d ingredients)", c.Match.Percentage, c.Match.Matched, c.Match.Total)
	}
	if r.URL != "" {
		fmt.Fprintf(&b, "\nURL: %s", r.URL)
	}

	b.WriteString("\n\nIngredients:\n")
	for _, ing := range c.Ingredients {
		fmt.Fprintf(&b, "  - %s\n", formatIngredient(ing))
	}

	fmt.Fprintf(&b, "\nInstructions:\n%s", orNA(r.Instructions))
	return strings.TrimSpace(b.String())
}

func formatIngredient(ing IngredientView) string {
	var parts []string
	for _, p := range []string{ing.Quantity, ing.Unit, ing.Name} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	s := strings.Join(parts, " ")
	if ing.Available != nil {
		if *ing.Available {
			s += " [AVAILABLE]"
		} else {
			s += " [MISSING]"
		}
	}
	return s
}

// Summary 前 limit 筆的摘要
func Summary(cands []Candidate, limit int) string {
	if len(cands) == 0 {
		return "No recipes found."
	}
	if limit <= 0 || limit > len(cands) {
		limit = len(cands)
	}

	lines := []string{fmt.Sprintf("Found %d recipe(s). Top %d matches:\n", len(cands), limit)}
	for i, c := range cands[:limit] {
		match := ""
		if c.Match != nil {
			match = fmt.Sprintf(" (Match: %.1f%%)", c.Match.Percentage)
		}
		desc := c.Recipe.Description
		if desc == "" {
			desc = "No description"
		}
		lines = append(lines,
			fmt.Sprintf("%d. %s%s", i+1, c.Recipe.Name, match),
			fmt.Sprintf("   - %s", desc),
			fmt.Sprintf("   - Difficulty: %s, Time: %d min", orNA(string(c.Recipe.Difficulty)), c.Recipe.TotalTime()),
			"",
		)
	}
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
