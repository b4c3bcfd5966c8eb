package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/creditline/internal/loan/domain"
	"github.com/wyfcoding/creditline/pkg/logger"
)

// Response 统一响应体，code 为 HTTP 状态码乘以 100，成功时为 0
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "ok", Data: data})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: http.StatusBadRequest * 100, Message: msg, Reason: "INVALID_ARGUMENT"})
}

// statusOf 领域错误分类到 HTTP 状态码
func statusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := statusOf(err)
	resp := Response{Code: status * 100, Message: err.Error()}

	var de *domain.Error
	if errors.As(err, &de) {
		resp.Reason = de.Code
	}
	if status == http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		if de == nil {
			resp.Message = "internal server error"
		}
	}
	c.JSON(status, resp)
}
