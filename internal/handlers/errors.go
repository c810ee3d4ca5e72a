package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/charlesng35/mediaplatform/pkg/errors"
	"github.com/charlesng35/mediaplatform/pkg/logger"
	"github.com/charlesng35/mediaplatform/pkg/response"
)

// respondError renders err through the API envelope. Server side failures,
// including integrity errors, are logged with the underlying cause.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.WithModule("http").Error("request failed",
			zap.String("code", appErr.Code),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	response.Error(c, appErr)
}
