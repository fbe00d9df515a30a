package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitdesk/packages/executor"
)

// resetFlags restores every flag to its default so commands can run more
// than once in a process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, dataDir string, args ...string) (int, string) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	code := run(append([]string{"--data-dir", dataDir, "--no-color"}, args...))
	return code, out.String()
}

func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fail":
			w.WriteHeader(http.StatusInternalServerError)
		case "/text":
			_, _ = w.Write([]byte("not json"))
		default:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"name":   "ada",
				"method": r.Method,
				"query":  r.URL.RawQuery,
				"token":  r.Header.Get("X-Token"),
			})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		raw     string
		key     string
		value   string
		wantErr bool
	}{
		{"Accept: application/json", "Accept", "application/json", false},
		{"X-Time:12:30", "X-Time", "12:30", false},
		{"Empty:", "Empty", "", false},
		{"no colon", "", "", true},
		{": value", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			h, err := parseHeader(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.key, h.Key)
			assert.Equal(t, tt.value, h.Value)
		})
	}
}

func TestParseQueryParam(t *testing.T) {
	p, err := parseQueryParam("page=2")
	require.NoError(t, err)
	assert.Equal(t, "query", p.Type)
	assert.Equal(t, "page", p.Key)
	assert.Equal(t, "2", p.Value)

	p, err = parseQueryParam("filter=a=b")
	require.NoError(t, err)
	assert.Equal(t, "a=b", p.Value)

	_, err = parseQueryParam("page")
	assert.Error(t, err)
}

func TestReadBody(t *testing.T) {
	body, err := readBody("")
	require.NoError(t, err)
	assert.Nil(t, body)

	body, err = readBody(`{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, *body)

	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"b":2}`), 0644))
	body, err = readBody("@" + path)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, *body)

	_, err = readBody("@" + filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestResultExit(t *testing.T) {
	codeOf := func(err error) int {
		if err == nil {
			return ExitSuccess
		}
		return err.(*exitError).code
	}

	assert.Equal(t, ExitSuccess, codeOf(resultExit(executor.Success(200, nil))))
	assert.Equal(t, ExitFailure, codeOf(resultExit(executor.HTTPError(404))))
	assert.Equal(t, ExitTransportError, codeOf(resultExit(executor.TransportError("refused"))))
	assert.Equal(t, ExitCancelled, codeOf(resultExit(executor.Cancelled())))
}

func TestRunCommand(t *testing.T) {
	srv := upstream(t)
	dataDir := t.TempDir()

	t.Run("success", func(t *testing.T) {
		code, out := execute(t, dataDir, "run", "get", srv.URL+"/users")
		assert.Equal(t, ExitSuccess, code, out)
		assert.Contains(t, out, "200 OK")
		assert.Contains(t, out, `"name": "ada"`)
	})

	t.Run("select", func(t *testing.T) {
		code, out := execute(t, dataDir, "run", "GET", srv.URL+"/users", "--select", "body.name")
		assert.Equal(t, ExitSuccess, code, out)
		assert.Equal(t, "ada\n", out)
	})

	t.Run("select missing path", func(t *testing.T) {
		code, _ := execute(t, dataDir, "run", "GET", srv.URL+"/users", "--select", "body.nope")
		assert.Equal(t, ExitFailure, code)
	})

	t.Run("json output", func(t *testing.T) {
		code, out := execute(t, dataDir, "-o", "json", "run", "POST", srv.URL+"/users", "-d", `{"x":1}`)
		assert.Equal(t, ExitSuccess, code, out)

		var result map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &result))
		assert.Equal(t, "success", result["kind"])
		assert.Equal(t, "POST", result["body"].(map[string]any)["method"])
	})

	t.Run("http error", func(t *testing.T) {
		code, out := execute(t, dataDir, "run", "GET", srv.URL+"/fail")
		assert.Equal(t, ExitFailure, code)
		assert.Contains(t, out, "500 Internal Server Error")
	})

	t.Run("unparseable body", func(t *testing.T) {
		code, out := execute(t, dataDir, "run", "GET", srv.URL+"/text")
		assert.Equal(t, ExitTransportError, code)
		assert.Contains(t, out, "Failed to parse response")
	})

	t.Run("unsupported method", func(t *testing.T) {
		code, out := execute(t, dataDir, "run", "TRACE", srv.URL)
		assert.Equal(t, ExitUsageError, code)
		assert.Contains(t, out, "unsupported method")
	})

	t.Run("bad header", func(t *testing.T) {
		code, _ := execute(t, dataDir, "run", "GET", srv.URL, "-H", "nocolon")
		assert.Equal(t, ExitUsageError, code)
	})

	t.Run("history recorded", func(t *testing.T) {
		code, out := execute(t, dataDir, "history", "--stats")
		assert.Equal(t, ExitSuccess, code, out)
		assert.Contains(t, out, "Total:")
	})
}

func TestLibraryWorkflow(t *testing.T) {
	srv := upstream(t)
	dataDir := t.TempDir()

	code, out := execute(t, dataDir, "-o", "json", "collection", "add", "Users")
	require.Equal(t, ExitSuccess, code, out)
	var collection struct{ ID string }
	require.NoError(t, json.Unmarshal([]byte(out), &collection))
	require.NotEmpty(t, collection.ID)

	code, out = execute(t, dataDir, "-o", "json", "request", "add",
		"--collection", collection.ID,
		"--name", "Search",
		"--method", "get",
		"--url", srv.URL+"/search",
		"-q", "q=ada",
		"-p", "X-Token: secret")
	require.Equal(t, ExitSuccess, code, out)
	var saved struct {
		ID     string
		Method string
	}
	require.NoError(t, json.Unmarshal([]byte(out), &saved))
	assert.Equal(t, "GET", saved.Method)

	code, out = execute(t, dataDir, "-o", "json", "send", saved.ID)
	require.Equal(t, ExitSuccess, code, out)
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	body := result["body"].(map[string]any)
	assert.Equal(t, "q=ada", body["query"])
	assert.Equal(t, "secret", body["token"])

	code, out = execute(t, dataDir, "request", "update", saved.ID, "--name", "Search v2")
	require.Equal(t, ExitSuccess, code, out)

	code, out = execute(t, dataDir, "list")
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "Users")
	assert.Contains(t, out, "Search v2")
	assert.Contains(t, out, "1 collections, 1 requests")

	code, _ = execute(t, dataDir, "send", "missing")
	assert.Equal(t, ExitUsageError, code)

	code, _ = execute(t, dataDir, "request", "add", "--name", "No url", "--method", "GET")
	assert.Equal(t, ExitUsageError, code)

	code, out = execute(t, dataDir, "history", "--clear")
	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "Deleted 1 entries")
}

func TestEnvFile(t *testing.T) {
	srv := upstream(t)
	dataDir := t.TempDir()

	t.Setenv("HITDESK_TEST_TOKEN", "")
	require.NoError(t, os.Unsetenv("HITDESK_TEST_TOKEN"))

	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("HITDESK_TEST_TOKEN=from-dotenv\n"), 0o644))

	code, out := execute(t, dataDir, "-o", "json", "request", "add",
		"--name", "Me",
		"--method", "GET",
		"--url", srv.URL+"/me",
		"-p", "X-Token: {{$HITDESK_TEST_TOKEN}}")
	require.Equal(t, ExitSuccess, code, out)
	var saved struct{ ID string }
	require.NoError(t, json.Unmarshal([]byte(out), &saved))

	code, out = execute(t, dataDir, "-o", "json", "--env-file", envFile, "send", saved.ID)
	require.Equal(t, ExitSuccess, code, out)
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "from-dotenv", result["body"].(map[string]any)["token"])

	code, _ = execute(t, dataDir, "--env-file", filepath.Join(t.TempDir(), "missing.env"), "list")
	assert.Equal(t, ExitConfigError, code)
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	code, out := execute(t, "workspace", "init")
	require.Equal(t, ExitSuccess, code, out)

	data, err := os.ReadFile(filepath.Join(dir, "hitdesk.yaml"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "dataDir: workspace"), string(data))

	_, err = os.Stat(filepath.Join(dir, "workspace", "api.json"))
	assert.NoError(t, err)

	code, _ = execute(t, "workspace", "init")
	assert.Equal(t, ExitUsageError, code)

	code, out = execute(t, "workspace", "init", "--force")
	assert.Equal(t, ExitSuccess, code, out)
}

func TestOutputFlagValidation(t *testing.T) {
	code, out := execute(t, t.TempDir(), "-o", "xml", "list")
	assert.Equal(t, ExitUsageError, code)
	assert.Contains(t, out, "unknown output format")
}

func TestVersion(t *testing.T) {
	code, out := execute(t, t.TempDir(), "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "hitdesk version")
}

func TestRunInterruptible_SignalBeforeExecutionCancels(t *testing.T) {
	sigCh := make(chan os.Signal, 1)
	sigCh <- os.Interrupt

	var cancels atomic.Int32
	result := runInterruptible(sigCh, func() error {
		cancels.Add(1)
		return executor.ErrNoActiveRequest
	}, func(ctx context.Context) executor.Result {
		select {
		case <-ctx.Done():
			return executor.Cancelled()
		case <-time.After(5 * time.Second):
			return executor.Success(200, nil)
		}
	})

	assert.Equal(t, executor.KindCancelled, result.Kind)
	assert.Equal(t, int32(1), cancels.Load())
}

func TestRunInterruptible_HandlesRepeatedSignals(t *testing.T) {
	sigCh := make(chan os.Signal)
	release := make(chan struct{})

	var cancels atomic.Int32
	finished := make(chan executor.Result, 1)
	go func() {
		finished <- runInterruptible(sigCh, func() error {
			cancels.Add(1)
			return nil
		}, func(ctx context.Context) executor.Result {
			<-release
			return executor.Cancelled()
		})
	}()

	for i := 0; i < 3; i++ {
		select {
		case sigCh <- os.Interrupt:
		case <-time.After(5 * time.Second):
			t.Fatalf("signal %d was not received", i+1)
		}
	}
	close(release)

	select {
	case result := <-finished:
		assert.Equal(t, executor.KindCancelled, result.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("execution did not return")
	}
	assert.Equal(t, int32(3), cancels.Load())
}
