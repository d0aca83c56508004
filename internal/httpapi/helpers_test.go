package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
)

var fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func testOptions(opt Options) Options {
	if opt.Now == nil {
		opt.Now = func() time.Time { return fixedNow }
	}
	if opt.Location == nil {
		opt.Location = time.UTC
	}
	return opt
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal response: %v\nbody=%q", err, rr.Body.String())
	}
	return v
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) model.AppError {
	t.Helper()
	return decode[model.ErrorResponse](t, rr).Error
}
