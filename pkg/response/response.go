package response

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/apperr"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/logger"
)

// Response is the envelope every endpoint returns.
type Response struct {
	IsSuccess bool   `json:"isSuccess"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Result    any    `json:"result"`
}

// ErrorResult is the result body of a failed request.
type ErrorResult struct {
	ErrorCode string `json:"errorCode"`
	Data      any    `json:"data"`
}

func Success(c *gin.Context, result any) {
	c.JSON(http.StatusOK, Response{IsSuccess: true, Code: http.StatusOK, Message: "success", Result: result})
}

func Created(c *gin.Context, result any) {
	c.JSON(http.StatusCreated, Response{IsSuccess: true, Code: http.StatusCreated, Message: "created", Result: result})
}

func Fail(c *gin.Context, status int, errorCode, message string, data any) {
	c.AbortWithStatusJSON(status, Response{
		IsSuccess: false,
		Code:      status,
		Message:   message,
		Result:    ErrorResult{ErrorCode: errorCode, Data: data},
	})
}

func BadRequest(c *gin.Context, message string) {
	Fail(c, http.StatusBadRequest, apperr.CodeBadRequest, message, nil)
}

func Unauthorized(c *gin.Context, errorCode, message string) {
	Fail(c, http.StatusUnauthorized, errorCode, message, nil)
}

func TooManyRequests(c *gin.Context) {
	Fail(c, http.StatusTooManyRequests, apperr.CodeTooMany, "too many requests", nil)
}

// InternalError hides err from the client; it is logged and sent to Sentry.
func InternalError(c *gin.Context, err error) {
	logger.FromGin(c).Error("internal error", zap.Error(err))
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	_ = c.Error(err)
	Fail(c, http.StatusInternalServerError, apperr.CodeInternal, "internal server error", nil)
}

// Error writes err using its apperr kind and code.
func Error(c *gin.Context, err error) {
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal {
		InternalError(c, err)
		return
	}
	Fail(c, e.Kind.HTTPStatus(), e.Code, e.Message, nil)
}
