package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insintel/internal/model"
	appErr "github.com/xxxsen/insintel/internal/pkg/errors"
	"github.com/xxxsen/insintel/internal/service"
)

type UploadStatus string

const (
	StatusIdle      UploadStatus = "idle"
	StatusUploading UploadStatus = "uploading"
	StatusSuccess   UploadStatus = "success"
	StatusError     UploadStatus = "error"
)

const (
	acceptedExt        = ".xlsx"
	defaultStatusReset = 3 * time.Second
)

type Entry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// State is a point-in-time copy of a Session.
type State struct {
	Documents        []model.Document `json:"documents"`
	DocumentsMessage string           `json:"documents_message,omitempty"`
	Recent           []string         `json:"recent"`
	History          []Entry          `json:"history"`
	References       []string         `json:"references"`
	Expanded         []bool           `json:"expanded"`
	UploadStatus     UploadStatus     `json:"upload_status"`
	Querying         bool             `json:"querying"`
	PendingQuestion  string           `json:"pending_question,omitempty"`
	QueryError       string           `json:"query_error,omitempty"`
	Alerts           []string         `json:"alerts"`
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

func WithStatusReset(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.statusReset = d
		}
	}
}

// Session holds the chat state of one browser. Backend calls run without the
// lock held; the uploading status and querying flag guard against overlap.
type Session struct {
	mu          sync.Mutex
	backend     Backend
	now         func() time.Time
	statusReset time.Duration

	documents        []model.Document
	documentsMessage string
	recent           []string
	history          []Entry
	references       []string
	expanded         map[int]bool
	uploadStatus     UploadStatus
	uploadDoneAt     time.Time
	querying         bool
	pendingQuestion  string
	queryErr         string
	alerts           []string
}

func NewSession(backend Backend, opts ...Option) *Session {
	s := &Session{
		backend:      backend,
		now:          time.Now,
		statusReset:  defaultStatusReset,
		documents:    []model.Document{},
		expanded:     map[int]bool{},
		uploadStatus: StatusIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectFiles uploads the .xlsx members of files as one batch and waits for
// the result. Every other file raises an alert and is dropped. With nothing
// accepted the call is a no-op.
func (s *Session) SelectFiles(ctx context.Context, files []model.UploadFile) error {
	accepted, err := s.beginUpload(files)
	if err != nil || len(accepted) == 0 {
		return err
	}
	return s.finishUpload(ctx, accepted)
}

// StartUpload is SelectFiles with the backend call moved to a goroutine.
// Validation and the uploading transition happen before it returns, so a
// snapshot taken right after already reads StatusUploading.
func (s *Session) StartUpload(ctx context.Context, files []model.UploadFile) error {
	accepted, err := s.beginUpload(files)
	if err != nil || len(accepted) == 0 {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		_ = s.finishUpload(ctx, accepted)
	}()
	return nil
}

func (s *Session) beginUpload(files []model.UploadFile) ([]model.UploadFile, error) {
	accepted := make([]model.UploadFile, 0, len(files))
	var rejected []string
	for _, f := range files {
		if !IsExcelFile(f.Filename) {
			rejected = append(rejected, fmt.Sprintf("%s is not an Excel (.xlsx) file", f.Filename))
			continue
		}
		accepted = append(accepted, f)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, rejected...)
	if len(accepted) == 0 {
		return nil, nil
	}
	if s.uploadStatus == StatusUploading {
		return nil, appErr.ErrBusy
	}
	s.uploadStatus = StatusUploading
	return accepted, nil
}

func (s *Session) finishUpload(ctx context.Context, accepted []model.UploadFile) error {
	logger := logutil.GetLogger(ctx).With(zap.Int("accepted", len(accepted)))
	if err := s.backend.Upload(ctx, accepted); err != nil {
		logger.Error("chat upload failed", zap.Error(err))
		s.mu.Lock()
		s.uploadStatus = StatusError
		s.mu.Unlock()
		return err
	}

	names := make([]string, 0, len(accepted))
	for _, f := range accepted {
		names = append(names, f.Filename)
	}
	s.mu.Lock()
	s.uploadStatus = StatusSuccess
	s.uploadDoneAt = s.now()
	s.recent = names
	s.mu.Unlock()
	logger.Info("chat upload finished")

	s.RefreshDocuments(ctx)
	return nil
}

// SubmitQuery asks one question and waits for the answer. References are
// cleared before the backend is called and only refilled on success.
func (s *Session) SubmitQuery(ctx context.Context, text string) error {
	if err := s.beginQuery(text); err != nil {
		return err
	}
	return s.finishQuery(ctx, text)
}

// StartQuery is SubmitQuery with the backend call moved to a goroutine.
func (s *Session) StartQuery(ctx context.Context, text string) error {
	if err := s.beginQuery(text); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		_ = s.finishQuery(ctx, text)
	}()
	return nil
}

func (s *Session) beginQuery(text string) error {
	if strings.TrimSpace(text) == "" {
		return appErr.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.querying {
		return appErr.ErrBusy
	}
	s.querying = true
	s.pendingQuestion = text
	s.queryErr = ""
	s.references = nil
	s.expanded = map[int]bool{}
	return nil
}

func (s *Session) finishQuery(ctx context.Context, text string) error {
	res, err := s.backend.Ask(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.querying = false
	s.pendingQuestion = ""
	if err != nil {
		logutil.GetLogger(ctx).Error("chat query failed", zap.Error(err))
		s.queryErr = service.MsgQueryFailed
		return err
	}
	s.history = append(s.history, Entry{Question: text, Answer: res.Response})
	s.references = append([]string(nil), res.Sources...)
	return nil
}

// ToggleReference flips the expanded flag of reference i only.
func (s *Session) ToggleReference(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.references) {
		return appErr.ErrInvalid
	}
	s.expanded[i] = !s.expanded[i]
	return nil
}

// RefreshDocuments replaces the local document list with the backend's.
func (s *Session) RefreshDocuments(ctx context.Context) {
	list := s.backend.Documents(ctx)
	docs := list.Documents
	if docs == nil {
		docs = []model.Document{}
	}
	s.mu.Lock()
	s.documents = docs
	s.documentsMessage = list.Message
	s.mu.Unlock()
}

// ClearDocuments deletes every backend document, then refreshes.
func (s *Session) ClearDocuments(ctx context.Context) error {
	if err := s.backend.ClearDocuments(ctx); err != nil {
		s.mu.Lock()
		s.alerts = append(s.alerts, service.MsgDeleteFailed)
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.recent = nil
	s.mu.Unlock()
	s.RefreshDocuments(ctx)
	return nil
}

// RemoveRecent drops one entry of the local upload echo. The backend keeps
// the document.
func (s *Session) RemoveRecent(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.recent) {
		return appErr.ErrInvalid
	}
	s.recent = append(s.recent[:i:i], s.recent[i+1:]...)
	return nil
}

// Alert queues a message shown until DismissAlerts.
func (s *Session) Alert(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, msg)
}

// DismissAlerts clears queued alerts and the last query error. Alerts stay
// on the page until then.
func (s *Session) DismissAlerts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = nil
	s.queryErr = ""
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetStatusLocked()

	st := State{
		Documents:        append([]model.Document{}, s.documents...),
		DocumentsMessage: s.documentsMessage,
		Recent:           append([]string{}, s.recent...),
		History:          append([]Entry{}, s.history...),
		References:       append([]string{}, s.references...),
		Expanded:         make([]bool, len(s.references)),
		UploadStatus:     s.uploadStatus,
		Querying:         s.querying,
		PendingQuestion:  s.pendingQuestion,
		QueryError:       s.queryErr,
		Alerts:           append([]string{}, s.alerts...),
	}
	for i := range st.Expanded {
		st.Expanded[i] = s.expanded[i]
	}
	return st
}

func (s *Session) resetStatusLocked() {
	if s.uploadStatus == StatusSuccess && !s.now().Before(s.uploadDoneAt.Add(s.statusReset)) {
		s.uploadStatus = StatusIdle
	}
}

// IsExcelFile reports whether name carries the .xlsx extension, ignoring case.
func IsExcelFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), acceptedExt)
}
