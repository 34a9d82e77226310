package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xxxsen/insintel/internal/model"
	"github.com/xxxsen/insintel/internal/pkg/response"
	"github.com/xxxsen/insintel/internal/service"
)

type QueryHandler struct {
	queries *service.QueryService
}

func NewQueryHandler(queries *service.QueryService) *QueryHandler {
	return &QueryHandler{queries: queries}
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req model.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		requestLogger(c).Warn("decode query request failed", zap.Error(err))
		response.Fail(c, http.StatusInternalServerError, service.MsgQueryFailed)
		return
	}
	resp, err := h.queries.Query(c.Request.Context(), req.Query)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, service.MsgQueryFailed)
		return
	}
	response.Relay(c, resp.StatusCode, resp.Body)
}
