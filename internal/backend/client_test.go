package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/insintel/internal/metrics"
	"github.com/xxxsen/insintel/internal/model"
)

func TestUploadDocumentsForwardsAllParts(t *testing.T) {
	type seenPart struct {
		field, filename, contentType, body string
	}
	var parts []seenPart
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/documents/", r.URL.Path)
		reader, err := r.MultipartReader()
		require.NoError(t, err)
		for {
			p, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			data, _ := io.ReadAll(p)
			parts = append(parts, seenPart{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(data)})
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	resp, err := c.UploadDocuments(context.Background(), []model.UploadFile{
		{Field: "files", Filename: "a.xlsx", ContentType: "application/zip", Data: []byte("A")},
		{Field: "files", Filename: `b"q.xlsx`, Data: []byte("B")},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.JSONEq(t, `{"message":"ok"}`, string(resp.Body))
	require.Len(t, parts, 2)
	require.Equal(t, "files", parts[0].field)
	require.Equal(t, "a.xlsx", parts[0].filename)
	require.Equal(t, "application/zip", parts[0].contentType)
	require.Equal(t, "A", parts[0].body)
	require.Equal(t, `b"q.xlsx`, parts[1].filename)
	require.Equal(t, "application/octet-stream", parts[1].contentType)
}

func TestUploadDocumentsRequiresFiles(t *testing.T) {
	_, err := New("http://127.0.0.1:1").UploadDocuments(context.Background(), nil)
	require.Error(t, err)
}

func TestQuerySendsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query/", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req model.QueryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "what changed?", req.Query)
		_, _ = w.Write([]byte(`{"response":"Answer text","sources":["Doc A p.12"]}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL + "/").Query(context.Background(), "what changed?")
	require.NoError(t, err)
	var out model.QueryResult
	require.NoError(t, resp.Decode(&out))
	require.Equal(t, "Answer text", out.Response)
	require.Equal(t, []string{"Doc A p.12"}, out.Sources)
}

func TestStatusErrorCarriesDetail(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{name: "string detail", body: `{"detail":"bad sheet"}`, detail: "bad sheet"},
		{name: "list detail", body: `{"detail":[{"msg":"x"}]}`, detail: `[{"msg":"x"}]`},
		{name: "plain body", body: "boom", detail: "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).DeleteDocuments(context.Background())
			require.Error(t, err)
			var se *StatusError
			require.ErrorAs(t, err, &se)
			require.Equal(t, http.StatusUnprocessableEntity, se.StatusCode)
			require.Equal(t, tt.detail, se.Detail)
			require.False(t, IsTransport(err))
		})
	}
}

func TestNonJSONSuccessIsInvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).ListDocuments(context.Background())
	require.ErrorIs(t, err, ErrInvalidBody)
}

func TestTransportErrorRecordsMetric(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	rec := metrics.New()
	_, err := New(url, WithMetrics(rec)).ListDocuments(context.Background())
	require.True(t, IsTransport(err))
	require.Equal(t, float64(1), testutil.ToFloat64(rec.Requests().WithLabelValues(OpListDocuments, metrics.OutcomeTransport)))
}

func TestWithTimeoutKeepsCustomClient(t *testing.T) {
	transport := &http.Transport{}
	custom := &http.Client{Transport: transport}
	for _, opts := range [][]Option{
		{WithHTTPClient(custom), WithTimeout(5 * time.Second)},
		{WithTimeout(5 * time.Second), WithHTTPClient(&http.Client{Transport: transport, Timeout: 5 * time.Second})},
	} {
		c := New("http://backend.test", opts...)
		require.Same(t, transport, c.http.Transport)
		require.Equal(t, 5*time.Second, c.http.Timeout)
	}
	require.Zero(t, custom.Timeout)
}

func TestProbeRecordedSeparately(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/documents/", r.URL.Path)
		_, _ = w.Write([]byte(`{"documents":[]}`))
	}))
	defer srv.Close()

	rec := metrics.New()
	_, err := New(srv.URL, WithMetrics(rec)).Probe(context.Background())
	require.NoError(t, err)
	require.Equal(t, float64(1), testutil.ToFloat64(rec.Requests().WithLabelValues(OpProbe, metrics.OutcomeOK)))
	require.Equal(t, float64(0), testutil.ToFloat64(rec.Requests().WithLabelValues(OpListDocuments, metrics.OutcomeOK)))
}
