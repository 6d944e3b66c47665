package recipe

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/core/catalog"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// CatalogRequest 從網址收錄食譜
type CatalogRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// Cataloger 食譜收錄流程
type Cataloger interface {
	Run(ctx context.Context, url string) (*catalog.Result, error)
}

// HandleCatalog 處理 /recipes/catalog；收錄成功回 201，擷取或驗證失敗回 422 並附上流程結果
func HandleCatalog(cataloger Cataloger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := common.RequestID(c)

		var req CatalogRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.LogWarn("請求格式無效",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			common.WriteError(c, common.ErrInvalidRequest.Wrap(err))
			return
		}

		common.LogInfo("開始處理食譜收錄請求",
			zap.String("request_id", requestID),
			zap.String("url", req.URL),
		)

		result, err := cataloger.Run(c.Request.Context(), req.URL)
		if err != nil {
			common.LogError("食譜收錄失敗",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			common.WriteError(c, err)
			return
		}

		if !result.Success {
			c.JSON(http.StatusUnprocessableEntity, result)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}
