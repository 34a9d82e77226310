package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insintel/internal/backend"
	"github.com/xxxsen/insintel/internal/chat"
	"github.com/xxxsen/insintel/internal/job"
	"github.com/xxxsen/insintel/internal/metrics"
	"github.com/xxxsen/insintel/internal/middleware"
	"github.com/xxxsen/insintel/internal/service"
	"github.com/xxxsen/insintel/internal/web"
)

type receivedPart struct {
	Field       string
	Filename    string
	ContentType string
	Data        string
}

// fakeBackend plays the document/query service.
type fakeBackend struct {
	mu         sync.Mutex
	status     map[string]int
	bodies     map[string]string
	parts      []receivedPart
	queries    []string
	listCalls  int
	uploadHits int
	gates      map[string]chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{status: map[string]int{}, bodies: map[string]string{}, gates: map[string]chan struct{}{}}
}

// hold makes requests to key wait until the returned func is called.
func (f *fakeBackend) hold(key string) func() {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[key] = gate
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (f *fakeBackend) calls() (list int, uploads int, queries []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.uploadHits, append([]string(nil), f.queries...)
}

func (f *fakeBackend) receivedParts() []receivedPart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]receivedPart(nil), f.parts...)
}

func (f *fakeBackend) set(key string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[key] = status
	f.bodies[key] = body
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	gate := f.gates[key]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch key {
	case "POST /documents/":
		f.uploadHits++
		reader, err := r.MultipartReader()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			data, _ := io.ReadAll(part)
			f.parts = append(f.parts, receivedPart{
				Field:       part.FormName(),
				Filename:    part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Data:        string(data),
			})
		}
	case "GET /documents/":
		f.listCalls++
	case "POST /query/":
		var req struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.queries = append(f.queries, req.Query)
	}
	status, ok := f.status[key]
	if !ok {
		status = http.StatusOK
	}
	body := f.bodies[key]
	if body == "" {
		body = "{}"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

type testEnv struct {
	backend *fakeBackend
	server  *httptest.Server
	router  *gin.Engine
	metrics *metrics.Recorder
}

func newTestEnv(t *testing.T, maxUpload int64) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fb := newFakeBackend()
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	recorder := metrics.New()
	client := backend.New(srv.URL, backend.WithMetrics(recorder))
	documents := service.NewDocumentService(client, nil, recorder)
	queries := service.NewQueryService(client)
	manager := chat.NewManager(chat.NewServiceBackend(documents, queries), 10, time.Hour)
	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	router := gin.New()
	router.Use(middleware.RequestID())
	RegisterRoutes(router.Group("/"), RouterDeps{
		Documents:   NewDocumentHandler(documents, maxUpload),
		Queries:     NewQueryHandler(queries),
		Chat:        NewChatHandler(chat.NewViewer(200), renderer, maxUpload),
		Health:      NewHealthHandler(job.NewProbeStatus()),
		ChatSession: middleware.ChatSession(manager, []byte("secret"), time.Hour, time.Second),
		Metrics:     recorder.Handler(),
	})
	return &testEnv{backend: fb, server: srv, router: router, metrics: recorder}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type filePart struct {
	field, name, contentType, data string
}

func multipartRequest(t *testing.T, path string, parts ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.name+`"`)
		if p.contentType != "" {
			h.Set("Content-Type", p.contentType)
		}
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = io.WriteString(w, p.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
