package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/themecheck/pkg/errors"
)

// captureOutput redirects console output to a buffer for the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := out
	out = &buf
	t.Cleanup(func() { out = prev })
	return &buf
}

func execute(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var logs bytes.Buffer
	code := New(&logs, log.InfoLevel).Run(context.Background(), args)
	return code, logs.String()
}

func TestExitCodes(t *testing.T) {
	captureOutput(t)
	cacheFile := filepath.Join(t.TempDir(), "cache.json")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no command", nil, errors.ExitUsage},
		{"unknown command", []string{"crawl"}, errors.ExitUsage},
		{"zero limit", []string{"run", "0"}, errors.ExitUsage},
		{"leading zero", []string{"run", "01"}, errors.ExitUsage},
		{"not a number", []string{"run", "ten"}, errors.ExitUsage},
		{"negative", []string{"run", "-3"}, errors.ExitUsage},
		{"two limits", []string{"run", "1", "2"}, errors.ExitUsage},
		{"unknown flag", []string{"run", "--fast"}, errors.ExitUsage},
		{"clean with argument", []string{"clean", "now"}, errors.ExitUsage},
		{"cache without subcommand", []string{"cache"}, errors.ExitUsage},
		{"missing config file", []string{"clean", "--config", filepath.Join(t.TempDir(), "none.toml")}, errors.ExitUsage},
		{"bad redis url", []string{"clean", "--redis-url", "http://localhost"}, errors.ExitUsage},
		{"clean", []string{"clean", "--cache-file", cacheFile}, errors.ExitOK},
		{"version", []string{"--version"}, errors.ExitOK},
		{"completion", []string{"completion", "bash"}, errors.ExitOK},
		{"completion for unknown shell", []string{"completion", "tcsh"}, errors.ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, logs := execute(t, tt.args...); got != tt.want {
				t.Errorf("Run(%q) = %d, want %d\n%s", tt.args, got, tt.want, logs)
			}
		})
	}
}

func TestUsageErrorPrintsUsage(t *testing.T) {
	stdout := captureOutput(t)
	code, stderr := execute(t, "run", "abc")
	if code != errors.ExitUsage {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(stderr, "limit must be a positive integer") {
		t.Errorf("stderr = %q", stderr)
	}
	if !strings.Contains(stdout.String(), "run [limit]") {
		t.Errorf("usage not printed: %q", stdout.String())
	}
}

func TestClean(t *testing.T) {
	stdout := captureOutput(t)
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte(`{"https://hexo.io/themes/":"<html></html>"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if code, logs := execute(t, "clean", "--cache-file", path); code != 0 {
		t.Fatalf("clean exit = %d\n%s", code, logs)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("cache file still exists: %v", err)
	}
	if !strings.Contains(stdout.String(), "Removed response cache") {
		t.Errorf("output = %q", stdout.String())
	}

	stdout.Reset()
	if code, _ := execute(t, "clean", "--cache-file", path); code != 0 {
		t.Fatalf("second clean exit = %d", code)
	}
	if !strings.Contains(stdout.String(), "Cache is empty") {
		t.Errorf("output = %q", stdout.String())
	}
}

func TestCachePath(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "themecheck.toml")
	if err := os.WriteFile(cfgPath, []byte("cache_file = \"from-config.json\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"cache", "path", "--config", cfgPath}, "from-config.json"},
		{[]string{"cache", "path", "--config", cfgPath, "--cache-file", "flag.json"}, "flag.json"},
		{[]string{"cache", "path", "--redis-url", "redis://localhost:6379/2"}, "redis:themecheck:cache"},
	}
	for _, tt := range tests {
		stdout := captureOutput(t)
		if code, logs := execute(t, tt.args...); code != 0 {
			t.Fatalf("Run(%q) exit = %d\n%s", tt.args, code, logs)
		}
		if got := strings.TrimSpace(stdout.String()); got != tt.want {
			t.Errorf("Run(%q) printed %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestRunWithoutTargets(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/themes/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<ul id="plugin-list">
			<li><a class="plugin-name" href="https://gitlab.com/acme/b">beta</a></li>
			<li><a class="plugin-name" href="https://gitlab.com/acme/a">alpha</a></li>
		</ul>`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	stdout := captureOutput(t)
	dir := t.TempDir()
	cacheFile := filepath.Join(dir, "cache.json")
	reportFile := filepath.Join(dir, "report.json")
	metricsFile := filepath.Join(dir, "metrics.prom")

	code, logs := execute(t, "run", "5",
		"--catalog-url", srv.URL+"/themes/",
		"--cache-file", cacheFile,
		"--report", reportFile,
		"--metrics-file", metricsFile,
		"--rps", "0",
	)
	if code != 0 {
		t.Fatalf("run exit = %d\n%s", code, logs)
	}

	summary := stdout.String()
	for _, want := range []string{"discovered", "menu", "N/A"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}

	data, err := os.ReadFile(cacheFile)
	if err != nil {
		t.Fatalf("cache not written: %v", err)
	}
	if !strings.Contains(string(data), srv.URL+"/themes/") {
		t.Errorf("cache does not contain the catalog: %s", data)
	}

	var rep struct {
		RunID  string `json:"run_id"`
		Themes []struct {
			Name    string `json:"name"`
			Outcome string `json:"outcome"`
		} `json:"themes"`
		Stats struct {
			Discovered int `json:"discovered"`
			Targeted   int `json:"targeted"`
		} `json:"stats"`
	}
	data, err = os.ReadFile(reportFile)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("report is not JSON: %v", err)
	}
	if rep.RunID == "" || rep.Stats.Discovered != 2 || rep.Stats.Targeted != 0 {
		t.Errorf("report = %+v", rep)
	}
	if len(rep.Themes) != 2 || rep.Themes[0].Name != "alpha" || rep.Themes[0].Outcome != "skipped" {
		t.Errorf("report themes = %+v", rep.Themes)
	}

	metrics, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics not written: %v", err)
	}
	if !strings.Contains(string(metrics), "themecheck_stage_runs_total") {
		t.Errorf("metrics missing stage counter:\n%s", metrics)
	}
}

func TestRunCatalogFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	captureOutput(t)

	code, _ := execute(t, "run",
		"--catalog-url", srv.URL+"/themes/",
		"--cache-file", filepath.Join(t.TempDir(), "cache.json"),
		"--rps", "0",
	)
	if code != errors.ExitFatal {
		t.Errorf("exit = %d, want %d", code, errors.ExitFatal)
	}
}

func TestRenderRulesTable(t *testing.T) {
	var buf bytes.Buffer
	renderRules(&buf, nil)
	if !strings.Contains(strings.ToUpper(buf.String()), "VIOLATED") {
		t.Errorf("table header missing:\n%s", buf.String())
	}
}
