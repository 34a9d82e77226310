package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/insintel/internal/job"
	"github.com/xxxsen/insintel/internal/pkg/response"
)

type HealthHandler struct {
	probe *job.ProbeStatus
}

func NewHealthHandler(probe *job.ProbeStatus) *HealthHandler {
	return &HealthHandler{probe: probe}
}

func (h *HealthHandler) Get(c *gin.Context) {
	data := gin.H{"status": "ok"}
	if h.probe != nil {
		data["backend"] = h.probe.Snapshot()
	}
	response.Success(c, data)
}
