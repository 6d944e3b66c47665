package catalog

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/RyanJuricic26/chef-ai/internal/core/recipe"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// 錯誤訊息使用 JSON 欄位名稱
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize 修正可修正的欄位：時間不可為負、份數至少 1、難度無效時重新推斷、去掉沒有名稱的食材
func Normalize(d *recipe.Draft, url string) {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Instructions = strings.TrimSpace(d.Instructions)
	d.CuisineType = strings.TrimSpace(d.CuisineType)
	d.URL = url

	if d.PrepTime < 0 {
		d.PrepTime = 0
	}
	if d.CookTime < 0 {
		d.CookTime = 0
	}
	if d.Servings != nil && *d.Servings < 1 {
		one := 1
		d.Servings = &one
	}
	if !d.Difficulty.Valid() {
		d.Difficulty = InferDifficulty(d.Instructions, d.PrepTime, d.CookTime)
	}

	kept := d.Ingredients[:0]
	for _, ing := range d.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		if ing.Name == "" {
			continue
		}
		if ing.Category == "" {
			ing.Category = Categorize(ing.Name)
		}
		kept = append(kept, ing)
	}
	d.Ingredients = kept
}

// ValidateDraft 正規化後檢查必填欄位
func ValidateDraft(d *recipe.Draft, url string) error {
	Normalize(d, url)

	err := validate.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	seen := map[string]bool{}
	var fields []string
	for _, fe := range verrs {
		field := fe.Field()
		if strings.HasPrefix(fe.Namespace(), "Draft.ingredients[") {
			field = "ingredients"
		}
		if !seen[field] {
			seen[field] = true
			fields = append(fields, field)
		}
	}
	return common.NewValidationError("missing or invalid field(s): " + strings.Join(fields, ", "))
}
