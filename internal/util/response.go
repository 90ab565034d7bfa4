package util

import (
	"errors"
	"net/http"
	"school_quiz_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
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

func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error",
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	InternalServerError(c)
}

// HandleServiceError 将业务错误映射为 HTTP 响应
func HandleServiceError(c *gin.Context, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		BadRequest(c, ve.Reason)
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, ErrTestNotFound),
		errors.Is(err, ErrQuestionNotFound),
		errors.Is(err, ErrAttemptNotFound),
		errors.Is(err, ErrQuestionNotInAttempt):
		Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrCertificateUnavailable):
		Error(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		Unauthorized(c)
	case errors.Is(err, ErrAttemptFinished),
		errors.Is(err, ErrAttemptNotFinished),
		errors.Is(err, ErrTimeExpired):
		Conflict(c, err.Error())
	default:
		LogInternalError(c, err)
	}
}
