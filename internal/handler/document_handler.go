package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/insintel/internal/pkg/errors"
	"github.com/xxxsen/insintel/internal/pkg/response"
	"github.com/xxxsen/insintel/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
	maxUpload int64
}

func NewDocumentHandler(documents *service.DocumentService, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, maxUpload: maxUpload}
}

// Upload accepts a single "file" field and/or repeated "files" fields and
// forwards all of them in one backend call.
func (h *DocumentHandler) Upload(c *gin.Context) {
	limitBody(c.Writer, c.Request, h.maxUpload)
	files, err := readUploadFiles(c, fieldFile, fieldFiles)
	if err != nil {
		if errors.Is(err, appErr.ErrTooLarge) {
			response.Fail(c, http.StatusBadRequest, uploadTooLargeMessage(h.maxUpload))
			return
		}
		requestLogger(c).Error("read upload form failed", zap.Error(err))
		response.Fail(c, http.StatusInternalServerError, service.MsgUploadFailed)
		return
	}
	if len(files) == 0 {
		response.Fail(c, http.StatusBadRequest, service.MsgNoFile)
		return
	}
	resp, err := h.documents.Upload(c.Request.Context(), files)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, service.MsgUploadFailed)
		return
	}
	response.Relay(c, resp.StatusCode, resp.Body)
}

func (h *DocumentHandler) List(c *gin.Context) {
	resp := h.documents.List(c.Request.Context())
	response.Relay(c, resp.StatusCode, resp.Body)
}

func (h *DocumentHandler) DeleteAll(c *gin.Context) {
	resp, err := h.documents.DeleteAll(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, service.MsgDeleteFailed)
		return
	}
	response.Relay(c, resp.StatusCode, resp.Body)
}
