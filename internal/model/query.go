package model

type QueryRequest struct {
	Query string `json:"query"`
}

type QueryResult struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

type ErrorBody struct {
	Error string `json:"error"`
}
