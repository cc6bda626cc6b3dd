package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/applist/internal/config"
	"github.com/rshade/applist/internal/tui"
)

// fakeBackend serves json-server style pages over a fixed record set.
type fakeBackend struct {
	mu       sync.Mutex
	total    int
	failPage int
	pages    []int
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("_page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("_limit"))

	b.mu.Lock()
	b.pages = append(b.pages, page)
	fail := b.failPage >= 0 && page == b.failPage
	b.mu.Unlock()

	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	records := make([]string, 0, limit)
	for i := page * limit; i < (page+1)*limit && i < b.total; i++ {
		records = append(records, fmt.Sprintf(`{
			"guid": "app-%02d",
			"company": "Company %02d",
			"first_name": "First%02d",
			"last_name": "Last",
			"email": "app%02d@example.com",
			"loan_amount": %d,
			"date_created": "2024-01-15T10:30:00Z",
			"expiry_date": "2024-12-15T23:59:59Z"
		}`, i, i, i, i, 1000*(i+1)))
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, "[%s]", strings.Join(records, ","))
}

func (b *fakeBackend) failOn(page int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failPage = page
}

func (b *fakeBackend) requested() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.pages...)
}

func newBackend(t *testing.T, total int) (*fakeBackend, string) {
	t.Helper()
	b := &fakeBackend{total: total, failPage: -1}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, srv.URL + "/api/applications"
}

// isolateEnv keeps the host's config, .env and APPLIST_* variables out of the test.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(config.EnvHome, home)
	t.Chdir(t.TempDir())
	for _, name := range []string{
		config.EnvBaseURL, config.EnvPageSize, config.EnvDedup, config.EnvStopOnEmpty,
		config.EnvOutput, config.EnvLogFormat, config.EnvLogFile, config.EnvMetricsAddr,
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	t.Setenv(config.EnvLogLevel, "error")
	return home
}

func execute(t *testing.T, mode tui.OutputMode, args ...string) (string, string, error) {
	t.Helper()
	return executeApp(t, &app{detectMode: func() tui.OutputMode { return mode }}, args...)
}

func executeApp(t *testing.T, a *app, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd("test", a)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestList_TableFirstPage(t *testing.T) {
	isolateEnv(t)
	backend, url := newBackend(t, 12)

	out, _, err := execute(t, tui.OutputPlain, "--base-url", url, "list")

	require.NoError(t, err)
	assert.Equal(t, []int{0}, backend.requested())
	assert.Contains(t, out, "Company")
	assert.Contains(t, out, "Application Date")
	assert.Contains(t, out, "Expiry date")
	assert.Contains(t, out, "-------")
	assert.Contains(t, out, "Company 00")
	assert.Contains(t, out, "Company 04")
	assert.NotContains(t, out, "Company 05")
	assert.Contains(t, out, "£1,000")
	assert.Contains(t, out, "15-01-2024")
	assert.Contains(t, out, "15-12-2024")
	assert.Contains(t, out, "5 applications from 1 of 1 pages; next page 1")
}

func TestList_JSONAccumulatesPages(t *testing.T) {
	isolateEnv(t)
	backend, url := newBackend(t, 12)

	out, _, err := execute(t, tui.OutputPlain, "--base-url", url, "list", "--pages", "3", "--output", "json")

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, backend.requested())

	var env struct {
		Applications []struct {
			ID         string `json:"id"`
			Company    string `json:"company"`
			Name       string `json:"name"`
			LoanAmount string `json:"loan_amount"`
		} `json:"applications"`
		Summary struct {
			PagesLoaded   int `json:"pages_loaded"`
			RecordsLoaded int `json:"records_loaded"`
			NextPage      int `json:"next_page"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	require.Len(t, env.Applications, 12)
	for i, app := range env.Applications {
		assert.Equal(t, fmt.Sprintf("Company %02d", i), app.Company)
	}
	assert.Equal(t, "app-11", env.Applications[11].ID)
	assert.Equal(t, "First00 Last", env.Applications[0].Name)
	assert.Equal(t, "£12,000", env.Applications[11].LoanAmount)
	assert.Equal(t, 3, env.Summary.PagesLoaded)
	assert.Equal(t, 12, env.Summary.RecordsLoaded)
	assert.Equal(t, 3, env.Summary.NextPage)
}

func TestList_ParallelNDJSON(t *testing.T) {
	isolateEnv(t)
	backend, url := newBackend(t, 12)

	out, _, err := execute(t, tui.OutputPlain,
		"--base-url", url, "list", "--pages", "4", "--parallel", "--output", "ndjson")

	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, backend.requested())
	assert.Equal(t, 0, backend.requested()[0], "initial load settles before the rest")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 12)
	companies := make([]string, 0, len(lines))
	for _, line := range lines {
		var row map[string]string
		require.NoError(t, json.Unmarshal([]byte(line), &row))
		companies = append(companies, row["company"])
	}
	assert.Equal(t, "Company 00", companies[0])
	assert.Contains(t, companies, "Company 11")
}

func TestList_FailedPageIsRetried(t *testing.T) {
	isolateEnv(t)
	backend, url := newBackend(t, 12)
	backend.failOn(1)

	out, stderr, err := execute(t, tui.OutputPlain, "--base-url", url, "list", "--pages", "3")

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 1}, backend.requested())
	assert.Contains(t, stderr, "Warning: page 1: unsuccessful response (status 500)")
	assert.Contains(t, out, "5 applications from 1 of 3 pages; next page 1; failed pages [1 1]")
}

func TestList_StrictFailsOnFailedPage(t *testing.T) {
	isolateEnv(t)
	backend, url := newBackend(t, 12)
	backend.failOn(0)

	_, _, err := execute(t, tui.OutputPlain, "--base-url", url, "list", "--strict")

	assert.ErrorIs(t, err, ErrPagesFailed)
}

func TestList_StopOnEmpty(t *testing.T) {
	isolateEnv(t)
	backend, url := newBackend(t, 7)

	out, _, err := execute(t, tui.OutputPlain, "--base-url", url, "list", "--pages", "10", "--stop-on-empty")

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, backend.requested())
	assert.Contains(t, out, "no more pages")
}

func TestList_PageSizeFlag(t *testing.T) {
	isolateEnv(t)
	backend, url := newBackend(t, 12)

	out, _, err := execute(t, tui.OutputPlain, "--base-url", url, "--page-size", "10", "list", "-o", "ndjson")

	require.NoError(t, err)
	assert.Equal(t, []int{0}, backend.requested())
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 10)
}

func TestList_ConfigFileDefaults(t *testing.T) {
	home := isolateEnv(t)
	backend, url := newBackend(t, 12)
	cfg := fmt.Sprintf("api:\n  base_url: %s\n  page_size: 3\noutput:\n  default_format: ndjson\n", url)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(cfg), 0o600))

	out, _, err := execute(t, tui.OutputPlain, "list")

	require.NoError(t, err)
	assert.Equal(t, []int{0}, backend.requested())
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func TestList_EmptyBackend(t *testing.T) {
	isolateEnv(t)
	_, url := newBackend(t, 0)

	out, _, err := execute(t, tui.OutputPlain, "--base-url", url, "list")

	require.NoError(t, err)
	assert.Contains(t, out, "No applications loaded.")
}

func TestList_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "bad format", args: []string{"list", "--output", "xml"}, want: "unknown output format"},
		{name: "zero pages", args: []string{"list", "--pages", "0"}, want: "pages must be between"},
		{name: "bad page size", args: []string{"--page-size", "0", "list"}, want: "api.page_size"},
		{name: "bad url", args: []string{"--base-url", "not a url", "list"}, want: "api.base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			_, _, err := execute(t, tui.OutputPlain, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRoot_DefaultsToListWithoutTerminal(t *testing.T) {
	isolateEnv(t)
	_, url := newBackend(t, 3)

	out, _, err := execute(t, tui.OutputPlain, "--base-url", url)

	require.NoError(t, err)
	assert.Contains(t, out, "Company 02")
}

func TestBrowse_RequiresTerminal(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, tui.OutputPlain, "browse")

	assert.ErrorIs(t, err, ErrNotInteractive)
}

func TestList_MetricsServer(t *testing.T) {
	isolateEnv(t)
	_, url := newBackend(t, 3)

	_, _, err := execute(t, tui.OutputPlain, "--base-url", url, "--metrics-addr", "127.0.0.1:0", "list")

	require.NoError(t, err)
}

func TestList_StrictFailureReleasesResources(t *testing.T) {
	isolateEnv(t)
	logFile := filepath.Join(t.TempDir(), "applist.log")
	t.Setenv(config.EnvLogFile, logFile)
	backend, url := newBackend(t, 12)
	backend.failOn(0)
	a := &app{detectMode: func() tui.OutputMode { return tui.OutputPlain }}

	_, _, err := executeApp(t, a,
		"--base-url", url, "--metrics-addr", "127.0.0.1:0", "list", "--strict")

	require.ErrorIs(t, err, ErrPagesFailed)
	assert.Nil(t, a.stopMetrics, "metrics server left running")
	assert.Nil(t, a.logResult, "log file left open")
	assert.FileExists(t, logFile)
}

func TestSetup_MetricsListenFailureClosesLog(t *testing.T) {
	isolateEnv(t)
	t.Setenv(config.EnvLogFile, filepath.Join(t.TempDir(), "applist.log"))
	_, url := newBackend(t, 3)

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = busy.Close() })
	a := &app{detectMode: func() tui.OutputMode { return tui.OutputPlain }}

	_, _, err = executeApp(t, a, "--base-url", url, "--metrics-addr", busy.Addr().String(), "list")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on")
	assert.Nil(t, a.stopMetrics)
	assert.Nil(t, a.logResult, "log file left open")
}

func TestCleanup_Idempotent(t *testing.T) {
	isolateEnv(t)
	_, url := newBackend(t, 3)
	a := &app{detectMode: func() tui.OutputMode { return tui.OutputPlain }}

	_, _, err := executeApp(t, a, "--base-url", url, "--metrics-addr", "127.0.0.1:0", "list")
	require.NoError(t, err)

	cmd := newRootCmd("test", a)
	cmd.SetContext(context.Background())
	assert.NoError(t, a.cleanup(cmd))
}

func TestConfigInit(t *testing.T) {
	home := isolateEnv(t)
	path := filepath.Join(home, "config.yaml")

	out, _, err := execute(t, tui.OutputPlain, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration initialized at "+path)
	assert.FileExists(t, path)

	_, _, err = execute(t, tui.OutputPlain, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = execute(t, tui.OutputPlain, "config", "init", "--force")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().API, cfg.API)
	assert.Equal(t, config.DefaultConfig().Output, cfg.Output)
}

func TestConfigInit_IgnoresBrokenConfig(t *testing.T) {
	home := isolateEnv(t)
	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [broken"), 0o600))

	_, _, err := execute(t, tui.OutputPlain, "config", "init", "--force")

	require.NoError(t, err)
}

func TestConfigShow(t *testing.T) {
	isolateEnv(t)

	out, _, err := execute(t, tui.OutputPlain,
		"--base-url", "https://loans.example.com/api/applications", "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "base_url: https://loans.example.com/api/applications")
	assert.Contains(t, out, "page_size: 5")
}
