package middleware

import (
	"errors"
	"net/http"

	"herbal-market-backend/internal/delivery/http/response"
	"herbal-market-backend/pkg/apperror"
	"herbal-market-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Err != nil {
				logger.Log.Error("request failed",
					"kind", appErr.Kind,
					"path", c.FullPath(),
					"request_id", requestIDOf(c),
					"error", appErr.Err,
				)
			}
			response.Error(c, appErr.Code, appErr.Message, gin.H{"kind": appErr.Kind})
			return
		}

		// Never expose internal error details to clients
		logger.Log.Error("unexpected error", "path", c.FullPath(), "request_id", requestIDOf(c), "error", err)
		response.Error(c, http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", gin.H{"kind": apperror.KindInternal})
	}
}
