package model

type Document struct {
	Filename string `json:"filename"`
	Size     *int64 `json:"size,omitempty"`
}

type DocumentList struct {
	Message   string     `json:"message,omitempty"`
	Documents []Document `json:"documents"`
}

// UploadFile is one file part relayed to the backend ingestion endpoint.
type UploadFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

func (f UploadFile) Size() int64 {
	return int64(len(f.Data))
}
