package commands

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunarlog/cycle-engine/api"
	"github.com/lunarlog/cycle-engine/backup"
	"github.com/lunarlog/cycle-engine/cycle"
	"github.com/lunarlog/cycle-engine/store/sqlite"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand("test", "none", "today")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestCommands_ToggleExportImport(t *testing.T) {
	t.Setenv("LUNARLOG_LOG_LEVEL", "error")
	dir := t.TempDir()
	db := filepath.Join(dir, "cycles.db")

	assert.Equal(t, "Period started\n", run(t, "toggle", "--db", db, "--date", "2024-01-01"))
	assert.Equal(t, "Period ended\n", run(t, "toggle", "--db", db, "--date", "2024-01-05"))

	exported := run(t, "export", "--db", db)
	assert.Contains(t, exported, `"start_date": "2024-01-01"`)
	assert.Contains(t, exported, `"end_date": "2024-01-05"`)

	file := filepath.Join(dir, "backup.yaml")
	run(t, "export", "--db", db, "--out", file)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "start_date:")

	other := filepath.Join(dir, "restored.db")
	assert.Equal(t, "restored 1 cycles\n", run(t, "import", file, "--db", other))

	summary := run(t, "summary", "--db", other, "--date", "2024-01-12")
	assert.Contains(t, summary, "Day 12 of Cycle")
	assert.Contains(t, summary, "Likely Fertile Window")

	assert.Contains(t, run(t, "migrate", "--db", other), "schema version 2")
}

func TestCommands_JSONFlagOnlyOnSummary(t *testing.T) {
	t.Setenv("LUNARLOG_LOG_LEVEL", "error")
	db := filepath.Join(t.TempDir(), "cycles.db")

	run(t, "toggle", "--db", db, "--date", "2024-01-01")
	assert.Contains(t, run(t, "summary", "--db", db, "--date", "2024-01-03", "--json"), `"has_data"`)

	for _, name := range []string{"toggle", "migrate", "export"} {
		cmd := newRootCommand("test", "none", "today")
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{name, "--db", db, "--json"})
		assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "unknown flag: --json", name)
	}
}

func TestServe_OpenStreamDoesNotDelayShutdown(t *testing.T) {
	// GIVEN: A client is connected to the cycle stream
	// WHEN: The server is asked to stop
	// THEN: The stream ends and shutdown completes cleanly right away

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	router := api.NewRouter(api.NewHandler(cycle.NewRepository(store), store), api.RouterOptions{})
	server := &http.Server{Handler: router, WriteTimeout: 15 * time.Second}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, server, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/cycles/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "id: 1\n", line)

	start := time.Now()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.Less(t, time.Since(start), 5*time.Second)
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown blocked by open stream")
	}
}

func TestResolveFormat(t *testing.T) {
	f, err := resolveFormat("", "cycles.yml")
	require.NoError(t, err)
	assert.Equal(t, backup.FormatYAML, f)

	f, err = resolveFormat("", "cycles.json")
	require.NoError(t, err)
	assert.Equal(t, backup.FormatJSON, f)

	f, err = resolveFormat("yaml", "cycles.json")
	require.NoError(t, err)
	assert.Equal(t, backup.FormatYAML, f)

	_, err = resolveFormat("toml", "")
	assert.ErrorIs(t, err, backup.ErrUnknownFormat)
}
