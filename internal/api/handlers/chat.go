package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/core/orchestrator"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// Orchestrator 對話入口
type Orchestrator interface {
	Handle(ctx context.Context, req orchestrator.Request) (*orchestrator.Result, error)
}

// ChatHandler 對話處理器
type ChatHandler struct {
	orchestrator Orchestrator
}

// NewChatHandler 創建對話處理器
func NewChatHandler(o Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: o}
}

// Chat 依意圖查詢或收錄食譜；流程內的失敗以回覆文字呈現，仍回 200
func (h *ChatHandler) Chat(c *gin.Context) {
	requestID := common.RequestID(c)

	var req orchestrator.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	common.LogInfo("收到對話請求",
		zap.String("request_id", requestID),
		zap.Int("message_length", len(req.Message)),
	)

	result, err := h.orchestrator.Handle(c.Request.Context(), req)
	if err != nil {
		common.LogError("對話處理失敗",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
