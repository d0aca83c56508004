package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/store"
)

const exportText = `# jan/02/2026 10:00:00 by RouterOS 7.14
/routing/filter/rule
add chain=bgp-in rule="if (dst == 10.0.0.0/8) { reject; }" comment="Block private IP space"
/routing/filter/rule add chain=bgp-out rule="if (dst == 203.0.113.0/24) { accept; }"
/routing/filter/rule add chain=bgp-in prefix=300.0.0.0/8 action=accept
`

func TestImport_Text(t *testing.T) {
	st := store.New()
	mux := NewMux(testOptions(Options{Store: st}))

	rr := do(t, mux, http.MethodPost, "/api/import", map[string]any{"text": exportText})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[importResponse](t, rr)

	// The menu header alone is a candidate without a rule; the bare "add"
	// line has no command path and is not a candidate.
	require.Equal(t, 1, resp.ImportedCount)
	require.Equal(t, 5, resp.Lines)
	require.Equal(t, 3, resp.Candidates)
	require.Equal(t, []int{2, 5}, resp.Skipped)
	require.Equal(t, "成功导入 1 条规则", resp.Message)
	require.Equal(t, "bgp-out", resp.Imported[0].Group)
	require.Equal(t, "203.0.113.0/24", resp.Imported[0].Prefix)
	require.Equal(t, model.ActionAccept, resp.Imported[0].Action)
	require.Equal(t, 1, st.Len())
}

func TestImport_EmptyIsNotAnError(t *testing.T) {
	st := store.New()
	mux := NewMux(testOptions(Options{Store: st}))

	rr := do(t, mux, http.MethodPost, "/api/import", map[string]any{"text": "   \n"})
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[importResponse](t, rr)
	require.Equal(t, 0, resp.ImportedCount)
	require.Equal(t, "请先粘贴 RouterOS 命令", resp.Message)
	require.Empty(t, resp.Imported)

	rr = do(t, mux, http.MethodPost, "/api/import", map[string]any{"text": "/ip address add address=192.0.2.1/24"})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "输入中没有找到有效的 BGP filter 命令", decode[importResponse](t, rr).Message)
	require.Equal(t, 0, st.Len())
}

func TestParse_DoesNotTouchStore(t *testing.T) {
	st := store.New()
	mux := NewMux(testOptions(Options{Store: st}))

	rr := do(t, mux, http.MethodPost, "/api/parse", map[string]any{
		"text": `/routing/filter/rule add chain=bgp-in rule="if (dst == 10.0.0.0/8) { reject; }"`,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, 1, decode[importResponse](t, rr).ImportedCount)
	require.Equal(t, 0, st.Len())
}

func TestImport_URL(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`/routing/filter/rule add chain=bgp-in rule="if (dst == 10.0.0.0/8) { reject; }"` + "\n"))
	}))
	defer up.Close()

	st := store.New()
	mux := NewMux(testOptions(Options{Store: st}))

	rr := do(t, mux, http.MethodPost, "/api/import", map[string]any{"url": up.URL + "/export.rsc"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, 1, decode[importResponse](t, rr).ImportedCount)
	require.Equal(t, model.ActionReject, st.All()[0].Action)
}

func TestImport_URLErrors(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer up.Close()

	mux := NewMux(testOptions(Options{}))

	rr := do(t, mux, http.MethodPost, "/api/import", map[string]any{"url": up.URL})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status=%d, want=502 body=%s", rr.Code, rr.Body.String())
	}
	if app := decodeError(t, rr); app.Code != "FETCH_FAILED" || app.Stage != "fetch_config" {
		t.Fatalf("app=%+v", app)
	}

	rr = do(t, mux, http.MethodPost, "/api/import", map[string]any{"url": "file:///etc/passwd"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want=400", rr.Code)
	}

	rr = do(t, mux, http.MethodPost, "/api/import", map[string]any{"url": up.URL, "text": "x"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("text+url status=%d, want=400", rr.Code)
	}
}

func TestImport_URLRateLimited(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# empty\n"))
	}))
	defer up.Close()

	mux := NewMux(testOptions(Options{ImportRate: rate.Every(time.Hour), ImportBurst: 1}))

	rr := do(t, mux, http.MethodPost, "/api/import", map[string]any{"url": up.URL})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, mux, http.MethodPost, "/api/import", map[string]any{"url": up.URL})
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.Equal(t, "RATE_LIMITED", decodeError(t, rr).Code)

	// Pasted text never waits on the bucket.
	rr = do(t, mux, http.MethodPost, "/api/import", map[string]any{"text": "x"})
	require.Equal(t, http.StatusOK, rr.Code)
}
