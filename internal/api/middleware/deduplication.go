package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/RyanJuricic26/chef-ai/internal/pkg/common"
)

// defaultDedupWindow 未設定時的去重時間窗
const defaultDedupWindow = time.Second

// requestCache 最近見過的 POST 請求指紋
type requestCache struct {
	mu        sync.Mutex
	requests  map[string]time.Time
	window    time.Duration
	lastSweep time.Time
}

// sweep 清掉過期的指紋，每 10 個時間窗最多一次
func (rc *requestCache) sweep(now time.Time) {
	if now.Sub(rc.lastSweep) < 10*rc.window {
		return
	}
	for k, t := range rc.requests {
		if now.Sub(t) > rc.window {
			delete(rc.requests, k)
		}
	}
	rc.lastSweep = now
}

// seen 記錄指紋，並回報時間窗內是否已出現過
func (rc *requestCache) seen(fingerprint string, now time.Time) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.sweep(now)
	if last, ok := rc.requests[fingerprint]; ok && now.Sub(last) <= rc.window {
		return true
	}
	rc.requests[fingerprint] = now
	return false
}

// Deduplication 擋下時間窗內重複送出的相同 POST（同路徑、同內容），
// 避免重複觸發模型呼叫或重複收錄同一份食譜
func Deduplication(window time.Duration) gin.HandlerFunc {
	if window <= 0 {
		window = defaultDedupWindow
	}
	cache := &requestCache{
		requests:  make(map[string]time.Time),
		window:    window,
		lastSweep: time.Now(),
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		fingerprint := c.Request.Method + ":" + c.Request.URL.Path
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrorResponse{
					Code:    common.ErrCodeInvalidRequest,
					Message: "Failed to read request body",
				})
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))

			hash := sha256.Sum256(body)
			fingerprint += ":" + hex.EncodeToString(hash[:])
		}

		if cache.seen(fingerprint, time.Now()) {
			common.LogWarn("Duplicate request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Code:    common.ErrCodeTooManyRequests,
				Message: "Request too frequent",
			})
			return
		}

		c.Next()
	}
}
