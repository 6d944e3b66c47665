package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/RyanJuricic26/chef-ai/internal/core/recipe"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

var signedDigitsPattern = regexp.MustCompile(`-?\d+`)

// ParseModelRecipe 解析模型回覆的食譜 JSON；缺少 name、instructions 或 ingredients 視為失敗
func ParseModelRecipe(raw, url string) (*recipe.Draft, error) {
	body := common.StripCodeFences(raw)

	var obj map[string]interface{}
	if err := common.ParseJSON(body, &obj); err != nil {
		// 模型偶爾在 JSON 前後加上說明文字
		inner, ok := common.ExtractJSONObject(body)
		if !ok {
			return nil, fmt.Errorf("invalid JSON from model: %w", err)
		}
		if err := common.ParseJSON(inner, &obj); err != nil {
			return nil, fmt.Errorf("invalid JSON from model: %w", err)
		}
	}

	var missing []string
	if strings.TrimSpace(common.AsString(obj["name"])) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(common.AsString(obj["instructions"])) == "" {
		missing = append(missing, "instructions")
	}
	items, _ := obj["ingredients"].([]interface{})
	if len(items) == 0 {
		missing = append(missing, "ingredients")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("model response missing required field(s): %s", strings.Join(missing, ", "))
	}

	d := &recipe.Draft{
		Name:         StripTags(common.AsString(obj["name"])),
		Description:  StripTags(common.AsString(obj["description"])),
		Instructions: strings.TrimSpace(common.AsString(obj["instructions"])),
		CuisineType:  strings.TrimSpace(common.AsString(obj["cuisine_type"])),
		Difficulty:   common.ParseDifficulty(common.AsString(obj["difficulty"])),
		URL:          url,
	}
	d.PrepTime = intField(obj["prep_time"])
	d.CookTime = intField(obj["cook_time"])
	d.Servings = parseServings(obj["servings"])

	for _, item := range items {
		switch ing := item.(type) {
		case map[string]interface{}:
			name := strings.TrimSpace(common.AsString(ing["name"]))
			d.Ingredients = append(d.Ingredients, recipe.IngredientLine{
				Name:     name,
				Quantity: strings.TrimSpace(common.AsString(ing["quantity"])),
				Unit:     strings.TrimSpace(common.AsString(ing["unit"])),
				Notes:    strings.TrimSpace(common.AsString(ing["notes"])),
				Category: normalizeCategory(common.AsString(ing["category"]), name),
			})
		case string:
			if line, ok := ParseIngredient(ing); ok {
				d.Ingredients = append(d.Ingredients, line)
			}
		}
	}
	return d, nil
}

// intField 數字或 "40 minutes" 這類字串（保留負號，交給 Normalize 修正），無法解析時為 0
func intField(v interface{}) int {
	if s, ok := v.(string); ok {
		n, _ := strconv.Atoi(signedDigitsPattern.FindString(s))
		return n
	}
	n, _ := common.AsInt(v)
	return n
}
