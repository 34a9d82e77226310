package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insintel/internal/backend"
	"github.com/xxxsen/insintel/internal/model"
)

type fakeBackend struct {
	uploadResp *backend.Response
	uploadErr  error
	listResp   *backend.Response
	listErr    error
	deleteResp *backend.Response
	deleteErr  error
	queryResp  *backend.Response
	queryErr   error

	uploaded [][]model.UploadFile
	queries  []string
}

func (f *fakeBackend) UploadDocuments(ctx context.Context, files []model.UploadFile) (*backend.Response, error) {
	f.uploaded = append(f.uploaded, files)
	return f.uploadResp, f.uploadErr
}

func (f *fakeBackend) ListDocuments(ctx context.Context) (*backend.Response, error) {
	return f.listResp, f.listErr
}

func (f *fakeBackend) DeleteDocuments(ctx context.Context) (*backend.Response, error) {
	return f.deleteResp, f.deleteErr
}

func (f *fakeBackend) Query(ctx context.Context, query string) (*backend.Response, error) {
	f.queries = append(f.queries, query)
	return f.queryResp, f.queryErr
}

type fakeArchiver struct {
	files [][]model.UploadFile
	err   error
}

func (a *fakeArchiver) Archive(ctx context.Context, files []model.UploadFile) ([]string, error) {
	a.files = append(a.files, files)
	return nil, a.err
}

func TestUploadPassesResponseThrough(t *testing.T) {
	fb := &fakeBackend{uploadResp: &backend.Response{StatusCode: http.StatusCreated, Body: []byte(`{"message":"ok"}`)}}
	arch := &fakeArchiver{err: errors.New("disk full")}
	svc := NewDocumentService(fb, arch, nil)

	files := []model.UploadFile{{Field: "file", Filename: "a.xlsx", Data: []byte("x")}}
	resp, err := svc.Upload(context.Background(), files)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, arch.files, 1)
}

func TestUploadFailureCollapses(t *testing.T) {
	cause := &backend.StatusError{Op: backend.OpUploadDocuments, StatusCode: 400, Detail: "not a spreadsheet"}
	arch := &fakeArchiver{}
	svc := NewDocumentService(&fakeBackend{uploadErr: cause}, arch, nil)

	_, err := svc.Upload(context.Background(), []model.UploadFile{{Filename: "a.xlsx"}})
	require.ErrorIs(t, err, ErrUploadFailed)
	require.True(t, backend.IsStatus(err))
	require.Empty(t, arch.files)
}

func TestListMasksFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "transport", err: &backend.TransportError{Op: backend.OpListDocuments, Err: errors.New("refused")}},
		{name: "status", err: &backend.StatusError{Op: backend.OpListDocuments, StatusCode: 500}},
		{name: "bad body", err: backend.ErrInvalidBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewDocumentService(&fakeBackend{listErr: tt.err}, nil, nil)
			resp := svc.List(context.Background())
			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.JSONEq(t, `{"message":"No documents loaded","documents":[]}`, string(resp.Body))
		})
	}
}

func TestListPassesThrough(t *testing.T) {
	body := []byte(`{"documents":[{"filename":"a.xlsx","size":12}]}`)
	svc := NewDocumentService(&fakeBackend{listResp: &backend.Response{StatusCode: 200, Body: body}}, nil, nil)
	resp := svc.List(context.Background())
	require.Equal(t, body, resp.Body)

	docs := svc.Documents(context.Background())
	require.Len(t, docs.Documents, 1)
	require.Equal(t, "a.xlsx", docs.Documents[0].Filename)
	require.NotNil(t, docs.Documents[0].Size)
	require.Equal(t, int64(12), *docs.Documents[0].Size)
}

func TestDocumentsHandlesMissingList(t *testing.T) {
	svc := NewDocumentService(&fakeBackend{listResp: &backend.Response{StatusCode: 200, Body: []byte(`{"message":"empty"}`)}}, nil, nil)
	docs := svc.Documents(context.Background())
	require.NotNil(t, docs.Documents)
	require.Empty(t, docs.Documents)
	require.Equal(t, "empty", docs.Message)
}

func TestDeleteAll(t *testing.T) {
	svc := NewDocumentService(&fakeBackend{deleteResp: &backend.Response{StatusCode: 200, Body: []byte(`{}`)}}, nil, nil)
	resp, err := svc.DeleteAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	svc = NewDocumentService(&fakeBackend{deleteErr: backend.ErrInvalidBody}, nil, nil)
	_, err = svc.DeleteAll(context.Background())
	require.ErrorIs(t, err, ErrDeleteFailed)
}
