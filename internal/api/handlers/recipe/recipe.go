package recipe

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	recipeStore "github.com/RyanJuricic26/chef-ai/internal/core/recipe"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// Library 食譜庫的讀取、刪除與收藏
type Library interface {
	ListRecipes(ctx context.Context) ([]recipeStore.Recipe, error)
	GetRecipe(ctx context.Context, id uint) (*recipeStore.Recipe, error)
	DeleteRecipe(ctx context.Context, id uint) (bool, error)
	StarRecipe(ctx context.Context, userID, recipeID uint) error
	UnstarRecipe(ctx context.Context, userID, recipeID uint) error
	ListStarred(ctx context.Context, userID uint) ([]uint, error)
}

// RecipeListResponse 食譜清單
type RecipeListResponse struct {
	Recipes []recipeStore.Recipe `json:"recipes"`
	Count   int                  `json:"count"`
}

// StarResponse 收藏狀態
type StarResponse struct {
	RecipeID uint `json:"recipe_id"`
	Starred  bool `json:"starred"`
}

// Handler 食譜庫處理程序
type Handler struct {
	library Library
}

// NewHandler 創建食譜庫處理程序
func NewHandler(library Library) *Handler {
	return &Handler{library: library}
}

// recipeID 解析路徑上的 :id
func recipeID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, common.NewValidationError("invalid recipe id: " + c.Param("id"))
	}
	return uint(id), nil
}

// ListRecipes 列出所有食譜（含食材）
func (h *Handler) ListRecipes(c *gin.Context) {
	recipes, err := h.library.ListRecipes(c.Request.Context())
	if err != nil {
		common.LogError("列出食譜失敗",
			zap.Error(err),
			zap.String("request_id", common.RequestID(c)),
		)
		common.WriteError(c, err)
		return
	}
	if recipes == nil {
		recipes = []recipeStore.Recipe{}
	}
	c.JSON(http.StatusOK, RecipeListResponse{Recipes: recipes, Count: len(recipes)})
}

// GetRecipe 取得單一食譜
func (h *Handler) GetRecipe(c *gin.Context) {
	id, err := recipeID(c)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	rec, err := h.library.GetRecipe(c.Request.Context(), id)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeleteRecipe 刪除食譜；不存在時回 404
func (h *Handler) DeleteRecipe(c *gin.Context) {
	requestID := common.RequestID(c)
	id, err := recipeID(c)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	found, err := h.library.DeleteRecipe(c.Request.Context(), id)
	if err != nil {
		common.LogError("刪除食譜失敗",
			zap.Error(err),
			zap.Uint("recipe_id", id),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, err)
		return
	}
	if !found {
		common.WriteError(c, common.ErrRecipeNotFound)
		return
	}

	common.LogInfo("食譜已刪除",
		zap.Uint("recipe_id", id),
		zap.String("request_id", requestID),
	)
	c.JSON(http.StatusOK, gin.H{"recipe_id": id, "deleted": true})
}

// StarRecipe 收藏食譜
func (h *Handler) StarRecipe(c *gin.Context) {
	id, err := recipeID(c)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	if err := h.library.StarRecipe(c.Request.Context(), recipeStore.DefaultUserID, id); err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, StarResponse{RecipeID: id, Starred: true})
}

// UnstarRecipe 取消收藏
func (h *Handler) UnstarRecipe(c *gin.Context) {
	id, err := recipeID(c)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	if err := h.library.UnstarRecipe(c.Request.Context(), recipeStore.DefaultUserID, id); err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, StarResponse{RecipeID: id, Starred: false})
}

// ListStarred 預設使用者收藏的食譜 id，最新的在前
func (h *Handler) ListStarred(c *gin.Context) {
	ids, err := h.library.ListStarred(c.Request.Context(), recipeStore.DefaultUserID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	if ids == nil {
		ids = []uint{}
	}
	c.JSON(http.StatusOK, gin.H{"recipe_ids": ids})
}
