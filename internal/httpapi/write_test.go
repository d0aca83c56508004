package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
)

func TestWriteError_JSONShapeAndHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusUnprocessableEntity, model.AppError{
		Code:    "RULE_VALIDATE_ERROR",
		Message: "规则校验失败",
		Stage:   "validate_rule",
		Line:    3,
		Fields: []model.FieldError{
			{Field: "prefix", Message: "前缀格式不正确"},
		},
	})

	if got, want := rr.Code, http.StatusUnprocessableEntity; got != want {
		t.Fatalf("status = %d, want %d", got, want)
	}
	if got, want := rr.Header().Get("Content-Type"), "application/json; charset=utf-8"; got != want {
		t.Fatalf("Content-Type = %q, want %q", got, want)
	}

	var resp model.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nbody=%q", err, rr.Body.String())
	}
	if resp.Error.Code != "RULE_VALIDATE_ERROR" {
		t.Fatalf("code = %q, want %q", resp.Error.Code, "RULE_VALIDATE_ERROR")
	}
	if resp.Error.Stage != "validate_rule" {
		t.Fatalf("stage = %q, want %q", resp.Error.Stage, "validate_rule")
	}
	if resp.Error.Line != 3 {
		t.Fatalf("line = %d, want %d", resp.Error.Line, 3)
	}
	if len(resp.Error.Fields) != 1 || resp.Error.Fields[0].Field != "prefix" {
		t.Fatalf("fields = %+v", resp.Error.Fields)
	}
}

func TestWriteText(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteText(rr, http.StatusOK, "ok\n")
	if got, want := rr.Header().Get("Content-Type"), "text/plain; charset=utf-8"; got != want {
		t.Fatalf("Content-Type = %q, want %q", got, want)
	}
	if rr.Body.String() != "ok\n" {
		t.Fatalf("body = %q", rr.Body.String())
	}
}
