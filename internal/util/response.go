package util

import (
	"errors"
	"net/http"

	"mkwa_fitness_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageResponse 分页响应结构
type PageResponse struct {
	List  interface{} `json:"list"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// BusinessError 根据错误类型写出对应的 HTTP 响应。
// 并发冲突返回 409 并携带可重试提示；存储不可用返回 503。
func BusinessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, ErrMemberNotFound),
		errors.Is(err, ErrGoalNotFound),
		errors.Is(err, ErrAchievementNotFound),
		errors.Is(err, ErrLeaderboardNotFound):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrMemberNotActive),
		errors.Is(err, ErrGoalNotActive),
		errors.Is(err, ErrAlreadyParticipating),
		errors.Is(err, ErrNotParticipating),
		errors.Is(err, ErrAlreadyAwarded),
		errors.Is(err, ErrStaleActivity):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrConcurrencyConflict):
		c.Header("Retry-After", "1")
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrStorageUnavailable):
		Error(c, http.StatusServiceUnavailable, err.Error())
	default:
		LogInternalError(c, err)
	}
}
