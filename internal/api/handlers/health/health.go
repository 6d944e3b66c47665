package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/core/ai/queue"
	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// readyTimeout 就緒檢查中資料庫 ping 的期限
const readyTimeout = 2 * time.Second

// Pinger 可被就緒檢查探測的依賴
type Pinger func(ctx context.Context) error

// QueueReporter 回報模型請求隊列狀態
type QueueReporter interface {
	GetQueueStatus() queue.Status
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Runtime   map[string]interface{} `json:"runtime"`
}

// Handler 健康檢查處理器
type Handler struct {
	version string
	db      Pinger
	queue   QueueReporter
}

// NewHandler 建立健康檢查處理器；db 為 nil 時就緒檢查一律通過
func NewHandler(version string, db Pinger, q QueueReporter) *Handler {
	return &Handler{version: version, db: db, queue: q}
}

// HealthCheck 服務狀態與執行期資訊
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.queue != nil {
		status := h.queue.GetQueueStatus()
		resp.Queue = &status
	}

	c.JSON(http.StatusOK, resp)
}

// ReadinessCheck 資料庫可連線才算就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		if err := h.db(ctx); err != nil {
			common.LogWarn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"database": err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "ok",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
