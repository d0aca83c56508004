package template

import (
	"fmt"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
)

type TemplateError struct {
	AppError model.AppError
	Cause    error
}

func (e *TemplateError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *TemplateError) Unwrap() error { return e.Cause }

func templateError(source, code, message string, line int, snippet string) error {
	return &TemplateError{
		AppError: model.AppError{
			Code:    code,
			Message: message,
			Stage:   "validate_template",
			URL:     source,
			Line:    line,
			Snippet: snippet,
			Hint:    Anchor,
		},
	}
}
