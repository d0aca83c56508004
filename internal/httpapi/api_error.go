package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/John-Robertt/bgpfilter-go/internal/fetch"
	"github.com/John-Robertt/bgpfilter-go/internal/logging"
	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/render"
	"github.com/John-Robertt/bgpfilter-go/internal/rules"
	"github.com/John-Robertt/bgpfilter-go/internal/store"
	"github.com/John-Robertt/bgpfilter-go/internal/template"
)

// APIError is used by the HTTP layer for request validation and a few
// HTTP-specific errors.
type APIError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *APIError) Unwrap() error { return e.Cause }

func apiError(status int, app model.AppError, cause error) error {
	return &APIError{Status: status, AppError: app, Cause: cause}
}

func requestError(code, message, hint string) error {
	return apiError(http.StatusBadRequest, model.AppError{
		Code:    code,
		Message: message,
		Stage:   "validate_request",
		Hint:    hint,
	}, nil)
}

// errorPayload maps err onto a status and payload.
func errorPayload(err error) (int, model.AppError) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status, ae.AppError
	}

	var fe *fetch.FetchError
	if errors.As(err, &fe) {
		return fe.Status, fe.AppError
	}

	// User content errors => 422.
	var ve *rules.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, ve.AppError()
	}

	var re *render.RenderError
	if errors.As(err, &re) {
		return http.StatusUnprocessableEntity, re.AppError
	}

	var te *template.TemplateError
	if errors.As(err, &te) {
		return http.StatusUnprocessableEntity, te.AppError
	}

	var ie *store.IndexError
	if errors.As(err, &ie) {
		return http.StatusNotFound, ie.AppError()
	}

	// Fallback: internal bug.
	return http.StatusInternalServerError, model.AppError{
		Code:    "INTERNAL_ERROR",
		Message: "服务端内部错误",
		Stage:   "internal",
		Hint:    err.Error(),
	}
}

func (s *server) writeErrorFromErr(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	status, app := errorPayload(err)
	s.metrics.incAppError(app.Stage, app.Code)

	log := logging.FromCtx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("code", app.Code), zap.String("stage", app.Stage), zap.Error(err))
	} else {
		log.Debug("request rejected", zap.String("code", app.Code), zap.String("stage", app.Stage), zap.Error(err))
	}
	WriteError(w, status, app)
}
