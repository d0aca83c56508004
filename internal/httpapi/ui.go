package httpapi

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"net/http"
	"time"
)

// The editor is a single static page; all state lives behind /api/rules.
//
//go:embed ui/index.html
var editorHTML []byte

// editorETag changes whenever the embedded page does.
var editorETag = func() string {
	sum := sha256.Sum256(editorHTML)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

func handleEditor(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("ETag", editorETag)
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	http.ServeContent(w, r, "index.html", time.Time{}, bytes.NewReader(editorHTML))
}
