package recipe

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// DefaultUserID 未登入時使用的預設使用者
const DefaultUserID uint = 1

// User 使用者
type User struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

// Recipe 食譜
type Recipe struct {
	ID           uint               `gorm:"primaryKey" json:"id"`
	Name         string             `gorm:"not null" json:"name"`
	Description  string             `json:"description"`
	Instructions string             `gorm:"not null" json:"instructions"`
	PrepTime     int                `gorm:"not null;default:0" json:"prep_time"`
	CookTime     int                `gorm:"not null;default:0" json:"cook_time"`
	Servings     *int               `json:"servings"`
	Difficulty   common.Difficulty  `gorm:"type:varchar(10);check:difficulty IN ('easy','medium','hard')" json:"difficulty"`
	CuisineType  string             `json:"cuisine_type"`
	URL          string             `gorm:"column:url" json:"url"`
	CreatedAt    time.Time          `json:"created_at"`
	Ingredients  []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"ingredients,omitempty"`
}

// TotalTime 準備 + 烹調時間（分鐘）
func (r Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime
}

// Ingredient 食材，名稱唯一且跨食譜共用
type Ingredient struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"uniqueIndex;not null" json:"name"`
	Category string `json:"category"`
}

// RecipeIngredient 食譜與食材的關聯（含份量）
type RecipeIngredient struct {
	ID           uint       `gorm:"primaryKey" json:"-"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"-"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"ingredient_id"`
	Quantity     string     `json:"quantity"`
	Unit         string     `json:"unit"`
	Notes        string     `json:"notes"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE" json:"ingredient"`
}

// StarredRecipe 使用者收藏
type StarredRecipe struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_starred_recipe_user" json:"recipe_id"`
	UserID    uint      `gorm:"not null;default:1;uniqueIndex:idx_starred_recipe_user" json:"user_id"`
	StarredAt time.Time `gorm:"autoCreateTime" json:"starred_at"`
	Recipe    Recipe    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// IngredientLine 擷取階段產生、尚未入庫的食材
type IngredientLine struct {
	Name     string `json:"name" validate:"required"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Notes    string `json:"notes"`
	Category string `json:"category"`
}

// Draft 擷取階段產生、尚未入庫的食譜
type Draft struct {
	Name         string            `json:"name" validate:"required"`
	Description  string            `json:"description"`
	Instructions string            `json:"instructions" validate:"required"`
	PrepTime     int               `json:"prep_time" validate:"gte=0"`
	CookTime     int               `json:"cook_time" validate:"gte=0"`
	Servings     *int              `json:"servings,omitempty" validate:"omitempty,gte=1"`
	Difficulty   common.Difficulty `json:"difficulty" validate:"oneof=easy medium hard"`
	CuisineType  string            `json:"cuisine_type"`
	URL          string            `json:"url"`
	Ingredients  []IngredientLine  `json:"ingredients" validate:"required,min=1,dive"`
}

// Migrate 建立資料表並寫入預設使用者
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&Recipe{},
		&Ingredient{},
		&RecipeIngredient{},
		&StarredRecipe{},
	); err != nil {
		return err
	}

	defaultUser := User{ID: DefaultUserID, Name: "default"}
	if err := db.Where(User{ID: DefaultUserID}).FirstOrCreate(&defaultUser).Error; err != nil {
		return fmt.Errorf("seed default user: %w", err)
	}
	return nil
}
