package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insintel/internal/chat"
	"github.com/xxxsen/insintel/internal/model"
)

type nopBackend struct {
	listCalls int
	hang      bool
}

func (b *nopBackend) Upload(ctx context.Context, files []model.UploadFile) error { return nil }

func (b *nopBackend) Documents(ctx context.Context) model.DocumentList {
	b.listCalls++
	if b.hang {
		<-ctx.Done()
		return model.DocumentList{Message: "No documents loaded", Documents: []model.Document{}}
	}
	return model.DocumentList{Documents: []model.Document{{Filename: "a.xlsx"}}}
}

func (b *nopBackend) ClearDocuments(ctx context.Context) error { return nil }

func (b *nopBackend) Ask(ctx context.Context, query string) (*model.QueryResult, error) {
	return &model.QueryResult{}, nil
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name      string
		allowlist []string
		origin    string
		method    string
		wantAllow string
		wantCode  int
	}{
		{name: "allow all", origin: "http://a.test", method: http.MethodGet, wantAllow: "*", wantCode: http.StatusOK},
		{name: "listed", allowlist: []string{" http://a.test "}, origin: "http://a.test", method: http.MethodGet, wantAllow: "http://a.test", wantCode: http.StatusOK},
		{name: "unlisted", allowlist: []string{"http://a.test"}, origin: "http://b.test", method: http.MethodGet, wantCode: http.StatusOK},
		{name: "preflight", origin: "http://a.test", method: http.MethodOptions, wantAllow: "*", wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tt.allowlist))
			r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
			r.OPTIONS("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
			req := httptest.NewRequest(tt.method, "/x", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tt.wantCode, w.Code)
			require.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "abc", seen)
}

func TestChatSessionCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	backend := &nopBackend{}
	manager := chat.NewManager(backend, 10, time.Hour)
	secret := []byte("test-secret")

	r := gin.New()
	r.Use(ChatSession(manager, secret, time.Hour, time.Second))
	var got *chat.Session
	r.GET("/", func(c *gin.Context) {
		got = GetChatSession(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, got)
	first := got
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, SessionCookieName, cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, 1, backend.listCalls)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Same(t, first, got)
	require.Empty(t, w.Result().Cookies())
	require.Equal(t, 1, backend.listCalls)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "forged"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.NotSame(t, first, got)
	require.Len(t, w.Result().Cookies(), 1)
	require.Equal(t, 2, manager.Len())
}

func TestChatSessionBoundsInitialRefresh(t *testing.T) {
	gin.SetMode(gin.TestMode)
	backend := &nopBackend{hang: true}
	manager := chat.NewManager(backend, 10, time.Hour)

	r := gin.New()
	r.Use(ChatSession(manager, []byte("test-secret"), time.Hour, 50*time.Millisecond))
	var got *chat.Session
	r.GET("/", func(c *gin.Context) {
		got = GetChatSession(c)
		c.Status(http.StatusOK)
	})

	start := time.Now()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Less(t, time.Since(start), time.Second)
	require.Equal(t, 1, backend.listCalls)
	require.Empty(t, got.Snapshot().Documents)
}
