package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/jorgenskogmo/webpub/internal/build"
	"github.com/jorgenskogmo/webpub/internal/config"
	"github.com/jorgenskogmo/webpub/internal/history"
	"github.com/jorgenskogmo/webpub/internal/livereload"
)

type staticStatus build.Status

func (s staticStatus) Status() build.Status { return build.Status(s) }

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDirectory = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.OutputDirectory, "a"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDirectory, "index.html"),
		[]byte("<html><body><h1>Home</h1></body></html>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDirectory, "a", "index.html"),
		[]byte("<p>no body tag</p>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputDirectory, "styles.css"),
		[]byte("body{}</body>"), 0o600))

	ts := httptest.NewServer(New(cfg, opts).Handler())
	t.Cleanup(ts.Close)
	return ts, cfg
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestStatic_InjectsScriptIntoHTML(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	resp, body := get(t, ts.URL+"/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `<script src="/livereload.js"></script></body>`)

	resp, body = get(t, ts.URL+"/a/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(body, "<p>no body tag</p>"))
	require.Contains(t, body, "/livereload.js")
}

func TestStatic_LeavesOtherContentAlone(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	resp, body := get(t, ts.URL+"/styles.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "body{}</body>", body)

	resp, body = get(t, ts.URL+"/missing/")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NotContains(t, body, "livereload")
}

func TestScriptRoute(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	resp, body := get(t, ts.URL+livereload.ScriptPath)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "javascript")
	require.Equal(t, livereload.Script, body)
}

func TestStatusRoute(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ts, _ := newTestServer(t, Options{Status: staticStatus{
		Site:        "demo",
		CompletedAt: &at,
		Builds:      3,
		Last:        &history.Record{ID: "b1", Outcome: "succeeded"},
	}})

	resp, body := get(t, ts.URL+PathStatus)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Equal(t, "demo", got["site"])
	require.Equal(t, false, got["building"])
	require.EqualValues(t, 3, got["builds"])
	require.Equal(t, "b1", got["last"].(map[string]any)["id"])
}

func TestBuildsRoute(t *testing.T) {
	store, err := history.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		require.NoError(t, store.Record(context.Background(), history.Record{
			ID:        "b" + strconv.Itoa(i),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Outcome:   "succeeded",
			Trigger:   "watch",
		}))
	}
	ts, _ := newTestServer(t, Options{History: store})

	resp, body := get(t, ts.URL+PathBuilds+"?limit=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got []history.Record
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	require.Len(t, got, 2)
	require.Equal(t, "b2", got[0].ID)

	resp, _ = get(t, ts.URL+PathBuilds+"?limit=x")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestOptionalRoutesDisabled(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	for _, p := range []string{PathStatus, PathBuilds, PathMetrics} {
		resp, _ := get(t, ts.URL+p)
		require.Equal(t, http.StatusNotFound, resp.StatusCode, p)
	}
}

func TestMetricsRoute(t *testing.T) {
	ts, _ := newTestServer(t, Options{Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("webpub_builds_total 1\n"))
	})})

	resp, body := get(t, ts.URL+PathMetrics)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "webpub_builds_total")
}

func TestWebSocketReload(t *testing.T) {
	hub := livereload.NewHub()
	ts, _ := newTestServer(t, Options{Hub: hub})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + PathLiveReload
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil) //nolint:bodyclose // body is not used by websocket handshakes
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	sent, dropped := hub.Broadcast(livereload.ReloadMessage)
	require.Equal(t, 1, sent)
	require.Zero(t, dropped)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, livereload.ReloadMessage, string(msg))
}

func TestSSEReload(t *testing.T) {
	hub := livereload.NewHub()
	ts, _ := newTestServer(t, Options{Hub: hub})

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+PathLiveReloadEvents, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	hub.Broadcast(livereload.ReloadMessage)

	r := bufio.NewReader(resp.Body)
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			require.Equal(t, "data: reload\n", line)
			return
		}
	}
}

func TestListenFree_SkipsBusyPort(t *testing.T) {
	busy, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = busy.Close() }()
	port := busy.Addr().(*net.TCPAddr).Port

	ln, err := ListenFree(t.Context(), port)
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()
	require.NotEqual(t, port, ln.Addr().(*net.TCPAddr).Port)
}

func TestStartStop(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDirectory = t.TempDir()
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	cfg.DevServerPort = ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	s := New(cfg, Options{Hub: livereload.NewHub()})
	require.NoError(t, s.Start(t.Context()))
	require.NotEmpty(t, s.URL())

	resp, _ := get(t, s.URL()+livereload.ScriptPath)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
