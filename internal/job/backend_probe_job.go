package job

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insintel/internal/backend"
)

type Prober interface {
	Probe(ctx context.Context) (*backend.Response, error)
}

type ProbeResult struct {
	Checked   bool      `json:"checked"`
	Reachable bool      `json:"reachable"`
	CheckedAt time.Time `json:"checked_at,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	Error     string    `json:"error,omitempty"`
}

// ProbeStatus holds the outcome of the most recent backend probe.
type ProbeStatus struct {
	mu     sync.RWMutex
	result ProbeResult
}

func NewProbeStatus() *ProbeStatus {
	return &ProbeStatus{}
}

func (s *ProbeStatus) Snapshot() ProbeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

func (s *ProbeStatus) set(r ProbeResult) {
	s.mu.Lock()
	s.result = r
	s.mu.Unlock()
}

// BackendProbeJob lists documents to check that the backend answers.
type BackendProbeJob struct {
	prober  Prober
	status  *ProbeStatus
	timeout time.Duration
	now     func() time.Time
}

const defaultProbeTimeout = 10 * time.Second

// NewBackendProbeJob bounds every probe; a non-positive timeout falls back to
// defaultProbeTimeout.
func NewBackendProbeJob(prober Prober, status *ProbeStatus, timeout time.Duration) *BackendProbeJob {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &BackendProbeJob{prober: prober, status: status, timeout: timeout, now: time.Now}
}

func (j *BackendProbeJob) Name() string {
	return "backend_probe"
}

func (j *BackendProbeJob) Run(ctx context.Context) error {
	if j.prober == nil || j.status == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	start := j.now()
	_, err := j.prober.Probe(ctx)
	result := ProbeResult{
		Checked:   true,
		Reachable: err == nil,
		CheckedAt: start,
		LatencyMS: j.now().Sub(start).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
		logutil.GetLogger(ctx).Warn("backend probe failed", zap.Error(err))
	}
	j.status.set(result)
	return err
}
