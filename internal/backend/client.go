package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insintel/internal/metrics"
	"github.com/xxxsen/insintel/internal/model"
)

const (
	documentsPath = "/documents/"
	queryPath     = "/query/"

	OpUploadDocuments = "upload_documents"
	OpListDocuments   = "list_documents"
	OpDeleteDocuments = "delete_documents"
	OpQuery           = "query"
	OpProbe           = "probe"
)

type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) Decode(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

type Client struct {
	baseURL string
	http    *http.Client
	metrics *metrics.Recorder
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every backend call; zero keeps calls unbounded. The
// client set by WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) UploadDocuments(ctx context.Context, files []model.UploadFile) (*Response, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: no files", OpUploadDocuments)
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		part, err := writer.CreatePart(partHeader(f))
		if err != nil {
			return nil, fmt.Errorf("%s: create part: %w", OpUploadDocuments, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("%s: write part: %w", OpUploadDocuments, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%s: close multipart: %w", OpUploadDocuments, err)
	}
	return c.do(ctx, OpUploadDocuments, http.MethodPost, documentsPath, body, writer.FormDataContentType())
}

func (c *Client) ListDocuments(ctx context.Context) (*Response, error) {
	return c.do(ctx, OpListDocuments, http.MethodGet, documentsPath, nil, "")
}

// Probe reads the document list for health checks. It is recorded under its
// own operation so relay metrics stay clean.
func (c *Client) Probe(ctx context.Context) (*Response, error) {
	return c.do(ctx, OpProbe, http.MethodGet, documentsPath, nil, "")
}

func (c *Client) DeleteDocuments(ctx context.Context) (*Response, error) {
	return c.do(ctx, OpDeleteDocuments, http.MethodDelete, documentsPath, nil, "")
}

func (c *Client) Query(ctx context.Context, query string) (*Response, error) {
	data, err := json.Marshal(model.QueryRequest{Query: query})
	if err != nil {
		return nil, err
	}
	return c.do(ctx, OpQuery, http.MethodPost, queryPath, bytes.NewReader(data), "application/json")
}

func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*Response, error) {
	start := time.Now()
	resp, err := c.roundTrip(ctx, op, method, path, body, contentType)
	c.metrics.ObserveBackend(op, outcomeOf(err), time.Since(start))
	if err != nil {
		logutil.GetLogger(ctx).Debug("backend call failed",
			zap.String("op", op),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
	}
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Detail: extractDetail(data)}
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidBody)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func partHeader(f model.UploadFile) textproto.MIMEHeader {
	field := f.Field
	if field == "" {
		field = "file"
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(f.Filename)))
	h.Set("Content-Type", contentType)
	return h
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case IsTransport(err):
		return metrics.OutcomeTransport
	case IsStatus(err):
		return metrics.OutcomeStatus
	default:
		return metrics.OutcomeBadBody
	}
}
