package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insintel/internal/middleware"
	"github.com/xxxsen/insintel/internal/pkg/errcode"
	appErr "github.com/xxxsen/insintel/internal/pkg/errors"
	"github.com/xxxsen/insintel/internal/pkg/response"
)

func requestLogger(c *gin.Context) *zap.Logger {
	return logutil.GetLogger(c.Request.Context()).With(
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
	)
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestLogger(c).Warn("request failed", zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrBusy):
		response.Error(c, errcode.ErrBusy, err.Error())
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
