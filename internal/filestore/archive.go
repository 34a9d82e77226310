package filestore

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insintel/internal/model"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Archiver keeps a copy of every filing that reached the backend.
type Archiver struct {
	store Store
	now   func() time.Time
}

func NewArchiver(store Store) *Archiver {
	return &Archiver{store: store, now: time.Now}
}

func (a *Archiver) Archive(ctx context.Context, files []model.UploadFile) ([]string, error) {
	if a == nil || a.store == nil {
		return nil, nil
	}
	logger := logutil.GetLogger(ctx).With(zap.String("store", a.store.Type()))
	keys := make([]string, 0, len(files))
	for _, f := range files {
		key := a.buildKey(f.Filename)
		if err := a.store.Save(ctx, key, NopCloser(bytes.NewReader(f.Data)), f.Size()); err != nil {
			return keys, fmt.Errorf("archive %s: %w", f.Filename, err)
		}
		logger.Debug("filing archived", zap.String("filename", f.Filename), zap.String("key", key))
		keys = append(keys, key)
	}
	return keys, nil
}

func (a *Archiver) buildKey(filename string) string {
	name := unsafeNameChars.ReplaceAllString(filepath.Base(filename), "_")
	if name == "" || name == "." || name == "_" {
		name = "upload"
	}
	return a.now().UTC().Format("20060102") + "/" + uuid.NewString() + "_" + name
}
