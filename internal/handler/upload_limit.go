package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	appErr "github.com/xxxsen/insintel/internal/pkg/errors"
)

func formatUploadLimit(bytes int64) string {
	const mb = 1024 * 1024
	if bytes <= 0 {
		return "0MB"
	}
	value := bytes / mb
	if value <= 0 {
		value = 1
	}
	return strconv.FormatInt(value, 10) + "MB"
}

func uploadTooLargeMessage(limit int64) string {
	return "file too large (limit " + formatUploadLimit(limit) + ")"
}

func limitBody(w http.ResponseWriter, r *http.Request, limit int64) {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
}

func classifyMultipartError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return appErr.ErrTooLarge
	}
	return err
}
