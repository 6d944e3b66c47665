package recipe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// Store 食譜資料存取
type Store struct {
	db *gorm.DB
}

// NewStore 創建食譜資料存取
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB 取得底層連線
func (s *Store) DB() *gorm.DB {
	return s.db
}

// SaveRecipe 於單一交易內寫入食譜、食材與關聯，任何錯誤皆回滾
func (s *Store) SaveRecipe(ctx context.Context, d *Draft) (uint, error) {
	rec := Recipe{
		Name:         d.Name,
		Description:  d.Description,
		Instructions: d.Instructions,
		PrepTime:     d.PrepTime,
		CookTime:     d.CookTime,
		Servings:     d.Servings,
		Difficulty:   d.Difficulty,
		CuisineType:  d.CuisineType,
		URL:          d.URL,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("insert recipe: %w", err)
		}

		for _, line := range d.Ingredients {
			ing, err := upsertIngredient(tx, line.Name, line.Category)
			if err != nil {
				return err
			}

			link := RecipeIngredient{
				RecipeID:     rec.ID,
				IngredientID: ing.ID,
				Quantity:     line.Quantity,
				Unit:         line.Unit,
				Notes:        line.Notes,
			}
			// 同一食譜重複出現的食材以最後一筆為準
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "recipe_id"}, {Name: "ingredient_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"quantity", "unit", "notes"}),
			}).Create(&link).Error; err != nil {
				return fmt.Errorf("link ingredient %q: %w", line.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		common.LogError("食譜寫入失敗", zap.String("name", d.Name), zap.Error(err))
		return 0, err
	}

	common.LogInfo("食譜已寫入",
		zap.Uint("recipe_id", rec.ID),
		zap.String("name", rec.Name),
		zap.Int("ingredients", len(d.Ingredients)),
	)
	return rec.ID, nil
}

// 依名稱（不分大小寫）找食材；有類別時覆寫既有類別
func upsertIngredient(tx *gorm.DB, name, category string) (*Ingredient, error) {
	var ing Ingredient
	err := tx.Where("LOWER(name) = LOWER(?)", name).First(&ing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		ing = Ingredient{Name: name, Category: category}
		if err := tx.Create(&ing).Error; err != nil {
			return nil, fmt.Errorf("insert ingredient %q: %w", name, err)
		}
	case err != nil:
		return nil, fmt.Errorf("lookup ingredient %q: %w", name, err)
	case category != "" && category != ing.Category:
		if err := tx.Model(&ing).Update("category", category).Error; err != nil {
			return nil, fmt.Errorf("update ingredient %q: %w", name, err)
		}
	}
	return &ing, nil
}

func (s *Store) withIngredients(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Ingredients.Ingredient")
}

// GetRecipe 取得單一食譜（含食材）
func (s *Store) GetRecipe(ctx context.Context, id uint) (*Recipe, error) {
	var rec Recipe
	if err := s.withIngredients(ctx).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrRecipeNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ListRecipes 依名稱排序列出所有食譜
func (s *Store) ListRecipes(ctx context.Context) ([]Recipe, error) {
	var recipes []Recipe
	if err := s.withIngredients(ctx).Order("name ASC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// SearchByName 在名稱、描述、料理類型中做不分大小寫的子字串比對
func (s *Store) SearchByName(ctx context.Context, term string) ([]Recipe, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	var recipes []Recipe
	err := s.withIngredients(ctx).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(cuisine_type) LIKE ?", pattern, pattern, pattern).
		Order("name ASC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// DeleteRecipe 刪除食譜及其關聯與收藏；不存在時回傳 false
func (s *Store) DeleteRecipe(ctx context.Context, id uint) (bool, error) {
	found := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Recipe{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		found = true

		if err := tx.Where("recipe_id = ?", id).Delete(&RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&StarredRecipe{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Recipe{}, id).Error
	})
	if err != nil {
		return false, err
	}
	if found {
		common.LogInfo("食譜已刪除", zap.Uint("recipe_id", id))
	}
	return found, nil
}

// StarRecipe 收藏食譜，重複收藏不報錯
func (s *Store) StarRecipe(ctx context.Context, userID, recipeID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return common.ErrRecipeNotFound
	}

	star := StarredRecipe{RecipeID: recipeID, UserID: userID}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("Recipe", "User").
		Create(&star).Error
}

// UnstarRecipe 取消收藏
func (s *Store) UnstarRecipe(ctx context.Context, userID, recipeID uint) error {
	return s.db.WithContext(ctx).
		Where("recipe_id = ? AND user_id = ?", recipeID, userID).
		Delete(&StarredRecipe{}).Error
}

// ListStarred 列出使用者收藏的食譜 id
func (s *Store) ListStarred(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&StarredRecipe{}).
		Where("user_id = ?", userID).
		Order("starred_at DESC, id DESC").
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// QueryReadOnly 在唯讀交易中執行查詢，交易一律回滾
func (s *Store) QueryReadOnly(ctx context.Context, query string) (*ResultSet, error) {
	tx := s.db.WithContext(ctx).Begin(&sql.TxOptions{ReadOnly: true})
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer tx.Rollback()

	rows, err := tx.Raw(query).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
