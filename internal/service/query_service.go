package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insintel/internal/backend"
	"github.com/xxxsen/insintel/internal/model"
)

type QueryBackend interface {
	Query(ctx context.Context, query string) (*backend.Response, error)
}

type QueryService struct {
	backend QueryBackend
}

func NewQueryService(b QueryBackend) *QueryService {
	return &QueryService{backend: b}
}

// Query relays the question as-is; emptiness is the caller's concern.
func (s *QueryService) Query(ctx context.Context, query string) (*backend.Response, error) {
	resp, err := s.backend.Query(ctx, query)
	if err != nil {
		logutil.GetLogger(ctx).Error("query failed", zap.Int("query_len", len(query)), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return resp, nil
}

// Ask is Query decoded into the {response, sources} shape.
func (s *QueryService) Ask(ctx context.Context, query string) (*model.QueryResult, error) {
	resp, err := s.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	var out model.QueryResult
	if err := resp.Decode(&out); err != nil {
		logutil.GetLogger(ctx).Error("decode query result failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return &out, nil
}
