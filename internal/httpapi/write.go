package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
)

func WriteText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, e model.AppError) {
	WriteJSON(w, status, model.ErrorResponse{Error: e})
}
