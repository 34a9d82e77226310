package service

import "errors"

// Public messages of the proxy routes. Backend detail never leaves the server.
const (
	MsgUploadFailed = "Failed to upload document(s)"
	MsgDeleteFailed = "Failed to delete documents"
	MsgQueryFailed  = "Failed to process query"
	MsgNoDocuments  = "No documents loaded"
	MsgNoFile       = "No file provided"
)

var (
	ErrUploadFailed = errors.New(MsgUploadFailed)
	ErrDeleteFailed = errors.New(MsgDeleteFailed)
	ErrQueryFailed  = errors.New(MsgQueryFailed)
)
