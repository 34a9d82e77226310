package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insintel/internal/backend"
	"github.com/xxxsen/insintel/internal/metrics"
	"github.com/xxxsen/insintel/internal/model"
)

type DocumentBackend interface {
	UploadDocuments(ctx context.Context, files []model.UploadFile) (*backend.Response, error)
	ListDocuments(ctx context.Context) (*backend.Response, error)
	DeleteDocuments(ctx context.Context) (*backend.Response, error)
}

type Archiver interface {
	Archive(ctx context.Context, files []model.UploadFile) ([]string, error)
}

type DocumentService struct {
	backend  DocumentBackend
	archiver Archiver
	metrics  *metrics.Recorder
}

func NewDocumentService(b DocumentBackend, archiver Archiver, m *metrics.Recorder) *DocumentService {
	return &DocumentService{backend: b, archiver: archiver, metrics: m}
}

// Upload relays files to the ingestion endpoint. Every failure collapses into
// ErrUploadFailed; the cause stays wrapped for logging only.
func (s *DocumentService) Upload(ctx context.Context, files []model.UploadFile) (*backend.Response, error) {
	logger := logutil.GetLogger(ctx).With(zap.Int("files", len(files)))
	resp, err := s.backend.UploadDocuments(ctx, files)
	if err != nil {
		logger.Error("upload documents failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	logger.Info("documents uploaded", zap.Int("status", resp.StatusCode))
	if s.archiver != nil {
		if _, err := s.archiver.Archive(ctx, files); err != nil {
			logger.Warn("archive uploaded documents failed", zap.Error(err))
		}
	}
	return resp, nil
}

// List never fails: backend trouble is answered with the empty-state body
// {"message":"No documents loaded","documents":[]} and status 200.
func (s *DocumentService) List(ctx context.Context) *backend.Response {
	resp, err := s.backend.ListDocuments(ctx)
	if err == nil {
		return resp
	}
	logutil.GetLogger(ctx).Warn("list documents failed, answering empty list", zap.Error(err))
	s.metrics.IncMaskedList()
	return emptyListResponse()
}

// Documents is List decoded for the chat view.
func (s *DocumentService) Documents(ctx context.Context) model.DocumentList {
	resp := s.List(ctx)
	var out model.DocumentList
	if err := resp.Decode(&out); err != nil {
		logutil.GetLogger(ctx).Warn("decode document list failed", zap.Error(err))
		return emptyList()
	}
	if out.Documents == nil {
		out.Documents = []model.Document{}
	}
	return out
}

func (s *DocumentService) DeleteAll(ctx context.Context) (*backend.Response, error) {
	resp, err := s.backend.DeleteDocuments(ctx)
	if err != nil {
		logutil.GetLogger(ctx).Error("delete documents failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}
	logutil.GetLogger(ctx).Info("documents deleted", zap.Int("status", resp.StatusCode))
	return resp, nil
}

func emptyList() model.DocumentList {
	return model.DocumentList{Message: MsgNoDocuments, Documents: []model.Document{}}
}

func emptyListResponse() *backend.Response {
	body, _ := json.Marshal(emptyList())
	return &backend.Response{StatusCode: http.StatusOK, Body: body}
}
