package apperr

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errDTO struct {
	Error *Error `json:"error"`
}

func Body(code Code, msg string) errDTO {
	return errDTO{Error: &Error{Code: code, Message: msg}}
}

// Respond writes err as the JSON error body. Unexpected errors are logged and
// replaced with a generic message.
func Respond(c *gin.Context, log *zap.Logger, err error) {
	var e *Error
	if errors.As(err, &e) && e.Code != CodeInternal {
		c.JSON(ToHTTPStatus(err), errDTO{Error: e})
		return
	}
	if log != nil {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(ToHTTPStatus(err), Body(CodeInternal, "internal error"))
}

// BadJSON is the response for a body that failed to bind.
func BadJSON(c *gin.Context, code Code, msg string) {
	c.JSON(ToHTTPStatus(&Error{Code: code}), Body(code, msg))
}
