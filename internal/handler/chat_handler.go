package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xxxsen/insintel/internal/chat"
	"github.com/xxxsen/insintel/internal/middleware"
	"github.com/xxxsen/insintel/internal/pkg/errcode"
	appErr "github.com/xxxsen/insintel/internal/pkg/errors"
	"github.com/xxxsen/insintel/internal/pkg/response"
	"github.com/xxxsen/insintel/internal/web"
)

type ChatHandler struct {
	viewer    *chat.Viewer
	renderer  *web.Renderer
	maxUpload int64
}

func NewChatHandler(viewer *chat.Viewer, renderer *web.Renderer, maxUpload int64) *ChatHandler {
	return &ChatHandler{viewer: viewer, renderer: renderer, maxUpload: maxUpload}
}

func (h *ChatHandler) Index(c *gin.Context) {
	sess := middleware.GetChatSession(c)
	page := h.viewer.Build(sess.Snapshot())
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if err := h.renderer.RenderIndex(c.Writer, page); err != nil {
		requestLogger(c).Error("render chat page failed", zap.Error(err))
	}
}

// State exposes the session snapshot for scripted clients.
func (h *ChatHandler) State(c *gin.Context) {
	response.Success(c, middleware.GetChatSession(c).Snapshot())
}

func (h *ChatHandler) Upload(c *gin.Context) {
	sess := middleware.GetChatSession(c)
	limitBody(c.Writer, c.Request, h.maxUpload)
	files, err := readUploadFiles(c, fieldFiles, fieldFile)
	if err != nil {
		if errors.Is(err, appErr.ErrTooLarge) {
			sess.Alert(uploadTooLargeMessage(h.maxUpload))
		} else {
			requestLogger(c).Warn("read chat upload failed", zap.Error(err))
		}
		h.back(c)
		return
	}
	// the page polls while the upload runs
	if err := sess.StartUpload(c.Request.Context(), files); err != nil {
		requestLogger(c).Warn("chat upload rejected", zap.Error(err))
	}
	h.back(c)
}

func (h *ChatHandler) Query(c *gin.Context) {
	sess := middleware.GetChatSession(c)
	if err := sess.StartQuery(c.Request.Context(), c.PostForm("query")); err != nil {
		requestLogger(c).Warn("chat query rejected", zap.Error(err))
	}
	h.back(c)
}

func (h *ChatHandler) ToggleReference(c *gin.Context) {
	h.indexAction(c, middleware.GetChatSession(c).ToggleReference)
}

func (h *ChatHandler) RemoveRecent(c *gin.Context) {
	h.indexAction(c, middleware.GetChatSession(c).RemoveRecent)
}

func (h *ChatHandler) ClearDocuments(c *gin.Context) {
	if err := middleware.GetChatSession(c).ClearDocuments(c.Request.Context()); err != nil {
		requestLogger(c).Warn("clear documents failed", zap.Error(err))
	}
	h.back(c)
}

func (h *ChatHandler) DismissAlerts(c *gin.Context) {
	middleware.GetChatSession(c).DismissAlerts()
	h.back(c)
}

func (h *ChatHandler) indexAction(c *gin.Context, fn func(int) error) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid index")
		return
	}
	if err := fn(index); err != nil {
		handleError(c, err)
		return
	}
	h.back(c)
}

func (h *ChatHandler) back(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}
