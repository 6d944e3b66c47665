package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RyanJuricic26/chef-ai/internal/core/recipe"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"PT30M", 30},
		{"PT1H30M", 90},
		{"PT2H", 120},
		{"PT0H5M", 5},
		{"PT", 0},
		{"", 0},
		{"1H30M", 0},
		{"P1DT2H", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDuration(tt.in), tt.in)
	}

	for h := 0; h < 10; h++ {
		for m := 0; m < 60; m += 7 {
			in := fmt.Sprintf("PT%dH%dM", h, m)
			assert.Equal(t, h*60+m, ParseDuration(in), in)
		}
	}
}

func TestParseServings(t *testing.T) {
	var yield interface{}
	assert.Nil(t, parseServings(yield))
	assert.Nil(t, parseServings("a few"))
	assert.Equal(t, 4, *parseServings("4 servings"))
	assert.Equal(t, 6, *parseServings("Makes 6 to 8"))
	assert.Equal(t, 3, *parseServings(3.7))
	assert.Equal(t, 2, *parseServings([]interface{}{"2", "2 bowls"}))
}

func TestParseIngredient(t *testing.T) {
	tests := []struct {
		in   string
		want recipe.IngredientLine
	}{
		{"2 cups flour", recipe.IngredientLine{Name: "flour", Quantity: "2", Unit: "cups", Category: "grain"}},
		{"1/2 tsp. salt", recipe.IngredientLine{Name: "salt", Quantity: "1/2", Unit: "tsp.", Category: "spice"}},
		{"1 1/2 Cups milk", recipe.IngredientLine{Name: "milk", Quantity: "1 1/2", Unit: "cups", Category: "dairy"}},
		{"500 g ground beef", recipe.IngredientLine{Name: "ground beef", Quantity: "500", Unit: "g", Category: "meat"}},
		{"8 whole tortillas", recipe.IngredientLine{Name: "tortillas", Quantity: "8", Unit: "whole", Category: "other"}},
		{"3 large eggs", recipe.IngredientLine{Name: "large eggs", Quantity: "3", Category: "other"}},
		{"4 <b>chicken</b> thighs", recipe.IngredientLine{Name: "chicken thighs", Quantity: "4", Category: "meat"}},
		{"Salt to taste", recipe.IngredientLine{Name: "Salt to taste", Category: "spice"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseIngredient(tt.in)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := ParseIngredient("  <br/> ")
	assert.False(t, ok)
}

func TestCategorizePriority(t *testing.T) {
	tests := map[string]string{
		"garlic":        "vegetable",
		"black pepper":  "vegetable",
		"ground cumin":  "meat",
		"butter":        "dairy",
		"peanut butter": "dairy",
		"olive oil":     "oil",
		"salmon fillet": "seafood",
		"basmati rice":  "grain",
		"lemon zest":    "fruit",
		"sesame seeds":  "nut",
		"water":         "other",
	}
	for name, want := range tests {
		assert.Equal(t, want, Categorize(name), name)
	}
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "dairy", normalizeCategory("Dairy", "anything"))
	assert.Equal(t, "meat", normalizeCategory("protein", "chicken breast"))
	assert.Equal(t, "other", normalizeCategory("", "water"))
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "Tacos", StripTags("<b>Tacos</b>"))
	assert.Equal(t, "Mac & Cheese", StripTags("Mac &amp; Cheese"))
	assert.Equal(t, "Line one Line two", StripTags("<p>Line one</p><p>Line   two</p>"))
	assert.Equal(t, "a b", StripTags("a<script>alert(1)</script>b"))
	assert.Equal(t, "", StripTags(""))
}

func TestCleanHTMLForModel(t *testing.T) {
	page := `<html><head><title>Soup</title><style>body{}</style><meta name="x"></head>
<body><h1>Grandma's   Soup</h1><script>var tracking = 1;</script>
<p>  Boil water.  </p></body></html>`

	text, err := CleanHTMLForModel(page, 0)
	assert.NoError(t, err)
	assert.Contains(t, text, "Grandma's\nSoup")
	assert.Contains(t, text, "Boil water.")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "body{}")

	short, err := CleanHTMLForModel("<p>abcdefghij</p>", 4)
	assert.NoError(t, err)
	assert.Equal(t, "abcd...", short)
}
