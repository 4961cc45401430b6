package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/yndnr/gatecam/internal/server/httpserver/handler"
)

// syncBuffer is a bytes.Buffer safe for the daemon's concurrent loggers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type result struct {
	stdout string
	stderr string
	err    error
}

// runApp runs the CLI with args (without the program name).
func runApp(t *testing.T, ctx context.Context, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr syncBuffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)

	err := app.RunContext(ctx, append([]string{"gatecam"}, args...))
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// testEnv is a data directory with a config file using the in-process broker.
type testEnv struct {
	dir    string
	config string
}

func (e testEnv) path(name string) string { return filepath.Join(e.dir, name) }

func newTestEnv(t *testing.T, extra string) testEnv {
	t.Helper()
	dir := t.TempDir()
	content := `
broker:
  url: "memory://local"
photo:
  dir: "` + filepath.Join(dir, "photos") + `"
audit:
  path: "` + filepath.Join(dir, "rfid_log.db") + `"
export:
  path: "` + filepath.Join(dir, "rfid_log_daily.csv") + `"
access:
  secret: "door-secret"
  authorized_file: "` + filepath.Join(dir, "authorized_uids.json") + `"
  reader: "` + filepath.Join(dir, "cards.txt") + `"
  cooldown: 1ms
  relay_duration: 10ms
http:
  enabled: false
log:
  level: debug
  format: text
` + extra
	path := filepath.Join(dir, "gatecam.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return testEnv{dir: dir, config: path}
}

// fakeDaemon serves canned envelopes for the HTTP API.
func fakeDaemon(t *testing.T, routes map[string]func() (int, any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		status, data := route()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(handler.NewResponse("req-test", data))
	}))
	t.Cleanup(srv.Close)
	return srv
}
