package handler

import (
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/insintel/internal/model"
)

const (
	fieldFile  = "file"
	fieldFiles = "files"

	genericContentType = "application/octet-stream"
)

// readUploadFiles collects the parts of every named field, in field order.
func readUploadFiles(c *gin.Context, fields ...string) ([]model.UploadFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, classifyMultipartError(err)
	}
	var out []model.UploadFile
	for _, field := range fields {
		for _, fh := range form.File[field] {
			data, err := readPart(fh)
			if err != nil {
				return nil, err
			}
			out = append(out, model.UploadFile{
				Field:       field,
				Filename:    fh.Filename,
				ContentType: partContentType(fh.Header.Get("Content-Type"), data),
				Data:        data,
			})
		}
	}
	return out, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func partContentType(declared string, data []byte) string {
	if declared != "" && declared != genericContentType {
		return declared
	}
	return mimetype.Detect(data).String()
}
