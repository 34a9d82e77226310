package chat

import (
	"context"

	"github.com/xxxsen/insintel/internal/model"
	"github.com/xxxsen/insintel/internal/service"
)

// Backend is what a Session needs from the proxy layer.
type Backend interface {
	Upload(ctx context.Context, files []model.UploadFile) error
	Documents(ctx context.Context) model.DocumentList
	ClearDocuments(ctx context.Context) error
	Ask(ctx context.Context, query string) (*model.QueryResult, error)
}

type serviceBackend struct {
	documents *service.DocumentService
	queries   *service.QueryService
}

// NewServiceBackend routes chat actions through the same services that back
// the /api/documents and /api/query routes.
func NewServiceBackend(documents *service.DocumentService, queries *service.QueryService) Backend {
	return &serviceBackend{documents: documents, queries: queries}
}

func (b *serviceBackend) Upload(ctx context.Context, files []model.UploadFile) error {
	_, err := b.documents.Upload(ctx, files)
	return err
}

func (b *serviceBackend) Documents(ctx context.Context) model.DocumentList {
	return b.documents.Documents(ctx)
}

func (b *serviceBackend) ClearDocuments(ctx context.Context) error {
	_, err := b.documents.DeleteAll(ctx)
	return err
}

func (b *serviceBackend) Ask(ctx context.Context, query string) (*model.QueryResult, error) {
	return b.queries.Ask(ctx, query)
}
