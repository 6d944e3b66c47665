package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"ingredients":         ModeIngredients,
		"  Name\n":            ModeName,
		`"analytics"`:         ModeAnalytics,
		"General.":            ModeGeneral,
		"**ingredients**":     ModeIngredients,
		"I think it's a name": ModeGeneral,
		"":                    ModeGeneral,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseMode(in), "input %q", in)
	}
}

func TestParseIngredientList(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  []string
	}{
		{"none upper", "NONE", nil},
		{"none quoted", `"none".`, nil},
		{"plain lines", "chicken breast\nSoy Sauce\n\nbell peppers", []string{"chicken breast", "soy sauce", "bell peppers"}},
		{"bullets", "- rice\n* egg\n1. scallion\n2) rice", []string{"rice", "egg", "scallion"}},
		{"keeps hyphenated", "5-spice powder", []string{"5-spice powder"}},
		{"fenced", "```\ntofu\nnone\n```", []string{"tofu"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIngredientList(tt.reply))
		})
	}
}

func TestParseSearchTerm(t *testing.T) {
	assert.Equal(t, "tacos", ParseSearchTerm("Tacos"))
	assert.Equal(t, "chocolate chip cookies", ParseSearchTerm(`"Chocolate Chip Cookies"`))
	assert.Equal(t, "italian", ParseSearchTerm("italian\nThis is a cuisine."))
	assert.Equal(t, "", ParseSearchTerm("   "))
}

func TestCleanSQL(t *testing.T) {
	assert.Equal(t, "SELECT COUNT(*) FROM recipes", CleanSQL("```sql\nSELECT COUNT(*) FROM recipes\n```"))
	assert.Equal(t, "SELECT 1", CleanSQL("  SELECT 1 \n"))
}
