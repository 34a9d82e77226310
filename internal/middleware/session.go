package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insintel/internal/chat"
	"github.com/xxxsen/insintel/internal/pkg/jwt"
)

const (
	SessionCookieName     = "insintel_session"
	ContextChatSessionKey = "chat_session"

	defaultInitialRefreshTimeout = 5 * time.Second
)

// ChatSession binds a chat.Session to the request. The cookie carries a
// signed session id; a missing, forged or expired cookie starts a new session.
// A new session loads the document list within refreshTimeout; on expiry it
// starts empty.
func ChatSession(manager *chat.Manager, secret []byte, ttl, refreshTimeout time.Duration) gin.HandlerFunc {
	if refreshTimeout <= 0 {
		refreshTimeout = defaultInitialRefreshTimeout
	}
	return func(c *gin.Context) {
		var current string
		if raw, err := c.Cookie(SessionCookieName); err == nil && raw != "" {
			if claims, err := jwt.ParseSessionToken(raw, secret); err == nil {
				current = claims.SessionID
			}
		}
		id, sess, created := manager.Acquire(current)
		if created {
			token, err := jwt.GenerateSessionToken(id, secret, ttl)
			if err != nil {
				logutil.GetLogger(c.Request.Context()).Error("issue session token failed", zap.Error(err))
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     SessionCookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(ttl / time.Second),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			ctx, cancel := context.WithTimeout(c.Request.Context(), refreshTimeout)
			sess.RefreshDocuments(ctx)
			cancel()
		}
		c.Set(ContextChatSessionKey, sess)
		c.Next()
	}
}

func GetChatSession(c *gin.Context) *chat.Session {
	v, _ := c.Get(ContextChatSessionKey)
	sess, _ := v.(*chat.Session)
	return sess
}
