package common

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// RequestID 取得或補上 X-Request-ID；優先使用 requestid 中間件產生的值
func RequestID(c *gin.Context) string {
	if id := requestid.Get(c); id != "" {
		return id
	}
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = GenerateUUID()
		c.Header("X-Request-ID", requestID)
	}
	return requestID
}

// WriteError 依錯誤類型寫入錯誤響應
func WriteError(c *gin.Context, err error) {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrRequestTimeout) {
		err = ErrRequestTimeout.Wrap(err)
	}

	status := StatusOf(err)
	resp := ErrorResponse{Code: ErrCodeInternalError, Message: http.StatusText(status)}

	var ce *CustomError
	switch {
	case errors.As(err, &ce):
		resp.Code = ce.Code
		resp.Message = ce.Message
		if ce.Err != nil && gin.Mode() == gin.DebugMode {
			resp.Details = ce.Err.Error()
		}
	case IsValidationError(err):
		resp.Code = ErrCodeInvalidRequest
		resp.Message = err.Error()
	}

	c.AbortWithStatusJSON(status, resp)
}
