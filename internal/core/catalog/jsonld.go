package catalog

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/core/recipe"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// FindRecipeJSONLD 掃描 ld+json 區塊，回傳第一個 @type 為 Recipe 的物件；格式錯誤的區塊略過
func FindRecipeJSONLD(page string) (map[string]interface{}, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, false
	}

	var found map[string]interface{}
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		content := strings.TrimSpace(s.Text())
		if content == "" {
			return true
		}

		var data interface{}
		if err := common.ParseJSON(content, &data); err != nil {
			common.LogDebug("略過無法解析的 JSON-LD", zap.Int("index", i), zap.Error(err))
			return true
		}

		found = findRecipeNode(data)
		return found == nil
	})
	return found, found != nil
}

func findRecipeNode(data interface{}) map[string]interface{} {
	switch v := data.(type) {
	case []interface{}:
		for _, item := range v {
			if obj, ok := item.(map[string]interface{}); ok && isRecipeType(obj["@type"]) {
				return obj
			}
		}
	case map[string]interface{}:
		if isRecipeType(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"].([]interface{}); ok {
			for _, item := range graph {
				if obj, ok := item.(map[string]interface{}); ok && isRecipeType(obj["@type"]) {
					return obj
				}
			}
		}
	}
	return nil
}

// @type 可能是字串或字串陣列
func isRecipeType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return v == "Recipe"
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

// FromJSONLD 將 schema.org Recipe 物件轉為草稿
func FromJSONLD(obj map[string]interface{}, url string) *recipe.Draft {
	d := &recipe.Draft{
		Name:        StripTags(common.AsString(obj["name"])),
		Description: StripTags(common.AsString(obj["description"])),
		URL:         url,
		PrepTime:    ParseDuration(common.AsString(obj["prepTime"])),
		CookTime:    ParseDuration(common.AsString(obj["cookTime"])),
		Servings:    parseServings(obj["recipeYield"]),
		CuisineType: firstString(obj["recipeCuisine"]),
	}

	switch ins := obj["recipeInstructions"].(type) {
	case string:
		cleaned := StripTags(ins)
		d.Instructions = orElse(FormatInstructions(cleaned), cleaned)
	case []interface{}:
		if parts := collectSteps(ins); len(parts) > 0 {
			combined := strings.Join(parts, "\n")
			d.Instructions = orElse(FormatInstructions(combined), combined)
		}
	}

	raw, ok := obj["recipeIngredient"]
	if !ok || isEmpty(raw) {
		raw = obj["ingredients"]
	}
	for _, s := range stringList(raw) {
		if line, ok := ParseIngredient(s); ok {
			d.Ingredients = append(d.Ingredients, line)
		}
	}
	return d
}

// collectSteps 攤平字串、HowToStep 與 HowToSection
func collectSteps(items []interface{}) []string {
	var parts []string
	for _, item := range items {
		switch step := item.(type) {
		case string:
			if text := StripTags(step); text != "" {
				parts = append(parts, text)
			}
		case map[string]interface{}:
			if nested, ok := step["itemListElement"].([]interface{}); ok {
				parts = append(parts, collectSteps(nested)...)
				continue
			}
			if text := StripTags(common.AsString(step["text"])); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return parts
}

func firstString(v interface{}) string {
	if list, ok := v.([]interface{}); ok {
		if len(list) == 0 {
			return ""
		}
		v = list[0]
	}
	return strings.TrimSpace(common.AsString(v))
}

func stringList(v interface{}) []string {
	switch list := v.(type) {
	case string:
		return []string{list}
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func isEmpty(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []interface{}:
		return len(x) == 0
	}
	return false
}

func orElse(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
