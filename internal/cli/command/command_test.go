package command

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/gatecam/internal/access"
	"github.com/yndnr/gatecam/internal/core/domain"
	"github.com/yndnr/gatecam/internal/server/httpserver/handler"
	"github.com/yndnr/gatecam/internal/storage/audit"
	"github.com/yndnr/gatecam/pkg/uidhash"
)

func exitCode(err error) int {
	var exit cli.ExitCoder
	if errors.As(err, &exit) {
		return exit.ExitCode()
	}
	return -1
}

func TestVersion(t *testing.T) {
	res := runApp(t, context.Background(), "", "-o", "json", "version")
	if res.err != nil {
		t.Fatalf("version error = %v", res.err)
	}
	var info struct {
		Version   string `json:"version"`
		GoVersion string `json:"go_version"`
	}
	if err := json.Unmarshal([]byte(res.stdout), &info); err != nil {
		t.Fatalf("output %q: %v", res.stdout, err)
	}
	if info.GoVersion != runtime.Version() || info.Version == "" {
		t.Errorf("info = %+v", info)
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	res := runApp(t, context.Background(), "", "-o", "xml", "version")
	if exitCode(res.err) != 2 {
		t.Errorf("err = %v, want exit code 2", res.err)
	}
}

func TestConfigShow(t *testing.T) {
	env := newTestEnv(t, "")
	res := runApp(t, context.Background(), "", "--config", env.config, "config", "show")
	if res.err != nil {
		t.Fatalf("config show error = %v", res.err)
	}
	for _, want := range []string{"url: memory://local", "cooldown: 1ms", "client_id: \"\""} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("output missing %q:\n%s", want, res.stdout)
		}
	}
	if strings.Contains(res.stdout, "door-secret") {
		t.Error("secret printed in clear")
	}
}

func TestConfigCheck(t *testing.T) {
	env := newTestEnv(t, "")
	res := runApp(t, context.Background(), "", "--config", env.config, "config", "check")
	if res.err != nil || !strings.Contains(res.stdout, "configuration OK") {
		t.Errorf("check = %v, %q", res.err, res.stdout)
	}

	t.Setenv("GATECAM_BROKER_QOS", "7")
	res = runApp(t, context.Background(), "", "--config", env.config, "config", "check")
	if exitCode(res.err) != 2 || !strings.Contains(res.err.Error(), "broker.qos") {
		t.Errorf("invalid config err = %v", res.err)
	}
}

func TestEnroll(t *testing.T) {
	env := newTestEnv(t, "")
	if err := os.WriteFile(env.path("uids.txt"), []byte("04A1B2C3\n\n  04FFFFFF  \n"), 0o600); err != nil {
		t.Fatal(err)
	}

	res := runApp(t, context.Background(), "", "--config", env.config, "-o", "json", "enroll", "--uid", "413369794588")
	if res.err != nil {
		t.Fatalf("enroll error = %v (%s)", res.err, res.stderr)
	}
	var out EnrollResult
	json.Unmarshal([]byte(res.stdout), &out)
	if out.Entries != 1 || out.Added != 1 {
		t.Errorf("first enroll = %+v", out)
	}

	res = runApp(t, context.Background(), "", "--config", env.config, "-o", "json",
		"enroll", "--from", env.path("uids.txt"), "--uid", "413369794588")
	if res.err != nil {
		t.Fatal(res.err)
	}
	json.Unmarshal([]byte(res.stdout), &out)
	if out.Entries != 3 || out.Added != 2 {
		t.Errorf("merge enroll = %+v", out)
	}

	hasher, _ := uidhash.New([]byte("door-secret"))
	allow, err := access.LoadAllowlist(env.path("authorized_uids.json"), hasher, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, uid := range []string{"413369794588", "04A1B2C3", "04FFFFFF"} {
		if !allow.Authorize(uid) {
			t.Errorf("%s not authorized", uid)
		}
	}

	res = runApp(t, context.Background(), "7788\n", "--config", env.config, "-o", "json",
		"enroll", "--from", "-", "--replace")
	if res.err != nil {
		t.Fatal(res.err)
	}
	json.Unmarshal([]byte(res.stdout), &out)
	if out.Entries != 1 {
		t.Errorf("replace enroll = %+v", out)
	}
}

func TestEnroll_Errors(t *testing.T) {
	env := newTestEnv(t, "")
	if res := runApp(t, context.Background(), "", "--config", env.config, "enroll"); exitCode(res.err) != 2 {
		t.Errorf("no uids: err = %v", res.err)
	}

	t.Setenv("GATECAM_ACCESS_SECRET", "")
	res := runApp(t, context.Background(), "", "--config", env.config, "enroll", "--uid", "1")
	if exitCode(res.err) != 2 {
		t.Errorf("no secret: err = %v", res.err)
	}
}

func seedAudit(t *testing.T, path string) {
	t.Helper()
	store, err := audit.OpenSQLite(path, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, uid := range []string{"413369794588", "04FFFFFF"} {
		rec, _ := domain.NewAuditRecord(base.Add(time.Duration(i)*time.Minute), uid, i == 0, domain.AuditOutcomeTimeout, "")
		if err := store.Record(context.Background(), rec); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, "")
	seedAudit(t, env.path("rfid_log.db"))

	res := runApp(t, context.Background(), "", "--config", env.config, "-o", "json", "export")
	if res.err != nil {
		t.Fatalf("export error = %v", res.err)
	}
	var out ExportResult
	json.Unmarshal([]byte(res.stdout), &out)
	if out.Rows != 2 || out.Path != env.path("rfid_log_daily.csv") {
		t.Errorf("result = %+v", out)
	}

	data, err := os.ReadFile(out.Path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || lines[0] != "timestamp,uid,authorized,photo" {
		t.Errorf("csv =\n%s", data)
	}
}

func TestAudit_Local(t *testing.T) {
	env := newTestEnv(t, "")
	seedAudit(t, env.path("rfid_log.db"))

	res := runApp(t, context.Background(), "", "--config", env.config, "audit", "-n", "1")
	if res.err != nil {
		t.Fatal(res.err)
	}
	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	if len(lines) != 2 || !strings.Contains(lines[1], "04FFFFFF") {
		t.Errorf("audit table =\n%s", res.stdout)
	}
}

func TestAudit_Remote(t *testing.T) {
	srv := fakeDaemon(t, map[string]func() (int, any){
		"GET /v1/audit": func() (int, any) {
			return http.StatusOK, handler.AuditList{Records: []handler.AuditRecord{{UID: "04A1", Photo: "EMPTY"}}, Count: 1}
		},
	})
	res := runApp(t, context.Background(), "", "--server", srv.URL, "-o", "json", "audit")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !strings.Contains(res.stdout, `"uid": "04A1"`) {
		t.Errorf("stdout = %s", res.stdout)
	}
}

func TestStatus(t *testing.T) {
	connected := true
	srv := fakeDaemon(t, map[string]func() (int, any){
		"GET /healthz": func() (int, any) {
			if connected {
				return http.StatusOK, handler.HealthResponse{Status: "ok", BrokerConnected: true}
			}
			return http.StatusServiceUnavailable, handler.HealthResponse{Status: "degraded"}
		},
	})

	res := runApp(t, context.Background(), "", "--server", srv.URL, "status")
	if res.err != nil || !strings.Contains(res.stdout, "broker_connected") {
		t.Errorf("status = %v\n%s", res.err, res.stdout)
	}

	connected = false
	res = runApp(t, context.Background(), "", "--server", srv.URL, "status")
	if exitCode(res.err) != 1 {
		t.Errorf("degraded status err = %v, want exit 1", res.err)
	}

	res = runApp(t, context.Background(), "", "--server", "127.0.0.1:1", "status")
	if exitCode(res.err) != 1 {
		t.Errorf("unreachable err = %v, want exit 1", res.err)
	}
}

func TestCapture_Remote(t *testing.T) {
	srv := fakeDaemon(t, map[string]func() (int, any){
		"POST /v1/captures": func() (int, any) {
			return http.StatusOK, handler.CaptureResponse{Outcome: "success", Path: "/data/photo_x.jpg"}
		},
	})
	res := runApp(t, context.Background(), "", "--server", srv.URL, "-o", "json", "capture")
	if res.err != nil {
		t.Fatal(res.err)
	}
	if !strings.Contains(res.stdout, "/data/photo_x.jpg") {
		t.Errorf("stdout = %s", res.stdout)
	}
}

func TestCapture_LocalTimeout(t *testing.T) {
	env := newTestEnv(t, "")
	res := runApp(t, context.Background(), "", "--config", env.config, "-o", "json", "capture", "--timeout", "100ms")
	if exitCode(res.err) != 1 {
		t.Fatalf("err = %v, want exit 1", res.err)
	}
	var out handler.CaptureResponse
	if err := json.Unmarshal([]byte(res.stdout), &out); err != nil {
		t.Fatalf("stdout %q: %v", res.stdout, err)
	}
	if out.Outcome != "timeout" || out.Path != "" {
		t.Errorf("outcome = %+v", out)
	}
}
