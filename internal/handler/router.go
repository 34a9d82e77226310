package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Documents   *DocumentHandler
	Queries     *QueryHandler
	Chat        *ChatHandler
	Health      *HealthHandler
	ChatSession gin.HandlerFunc
	Metrics     http.Handler
}

func RegisterRoutes(root *gin.RouterGroup, deps RouterDeps) {
	api := root.Group("/api")
	api.POST("/documents", deps.Documents.Upload)
	api.GET("/documents", deps.Documents.List)
	api.DELETE("/documents", deps.Documents.DeleteAll)
	api.POST("/query", deps.Queries.Query)
	api.GET("/health", deps.Health.Get)

	if deps.Metrics != nil {
		root.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	chatGroup := root.Group("")
	chatGroup.Use(deps.ChatSession)
	chatGroup.GET("/", deps.Chat.Index)
	chatGroup.GET("/api/chat/state", deps.Chat.State)
	chatGroup.POST("/chat/upload", deps.Chat.Upload)
	chatGroup.POST("/chat/query", deps.Chat.Query)
	chatGroup.POST("/chat/references/:index/toggle", deps.Chat.ToggleReference)
	chatGroup.POST("/chat/recent/:index/remove", deps.Chat.RemoveRecent)
	chatGroup.POST("/chat/documents/clear", deps.Chat.ClearDocuments)
	chatGroup.POST("/chat/alerts/dismiss", deps.Chat.DismissAlerts)
}
