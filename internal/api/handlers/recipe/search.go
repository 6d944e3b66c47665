package recipe

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/core/search"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// Searcher 食譜查詢流程
type Searcher interface {
	Run(ctx context.Context, req search.Request) (*search.Result, error)
}

// HandleSearch 處理 /recipes/search
func HandleSearch(searcher Searcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := common.RequestID(c)

		var req search.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			common.LogWarn("請求格式無效",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			common.WriteError(c, common.ErrInvalidRequest.Wrap(err))
			return
		}

		result, err := searcher.Run(c.Request.Context(), req)
		if err != nil {
			common.LogError("食譜查詢失敗",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			common.WriteError(c, err)
			return
		}

		common.LogInfo("食譜查詢完成",
			zap.String("request_id", requestID),
			zap.String("mode", string(result.Mode)),
			zap.Int("recipes", len(result.FilteredRecipes)),
		)
		c.JSON(http.StatusOK, result)
	}
}
