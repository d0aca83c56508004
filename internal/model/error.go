package model

// AppError is the only error payload returned by the HTTP API.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage"`

	URL     string `json:"url,omitempty"`
	Line    int    `json:"line,omitempty"`    // 1-based; 0 means "not set"
	Snippet string `json:"snippet,omitempty"` // <= 200 chars
	Hint    string `json:"hint,omitempty"`

	Fields []FieldError `json:"fields,omitempty"`
}

// FieldError reports one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error AppError `json:"error"`
}
