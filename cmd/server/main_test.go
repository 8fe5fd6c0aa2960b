package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/exec"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

const serverProcessEnv = "SITEBOOK_TEST_SERVER_PROCESS"

// TestMain lets the test binary stand in for the server binary when started
// as a subprocess.
func TestMain(m *testing.M) {
	if os.Getenv(serverProcessEnv) == "1" {
		main()
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func startStdioServer(t *testing.T, ctx context.Context) *sdkmcp.ClientSession {
	t.Helper()

	cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=^$")
	cmd.Env = append(os.Environ(),
		serverProcessEnv+"=1",
		"SITEBOOK_CONFIG_PATH=",
		"SITEBOOK_TRANSPORT=stdio",
		"SITEBOOK_DB_PATH=:memory:",
		"SITEBOOK_LOG_LEVEL=error",
		"SITEBOOK_LOG_PATH=",
		"SITEBOOK_CATALOG_ID=site",
	)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	require.NoError(t, err, "Failed to connect to server")
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any, out any) {
	t.Helper()
	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "tools/call %s failed", name)
	require.False(t, result.IsError, "%s returned error: %v", name, result.Content)
	if out == nil {
		return
	}
	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

// TestStdioProtocolCompliance drives the server binary over stdio with the
// SDK client. Any log line on stdout would break the JSON-RPC stream.
func TestStdioProtocolCompliance(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session := startStdioServer(t, ctx)

	t.Run("ServerInfo", func(t *testing.T) {
		initResult := session.InitializeResult()
		require.NotNil(t, initResult)
		require.NotNil(t, initResult.ServerInfo)
		require.Equal(t, "sitebook", initResult.ServerInfo.Name)
		require.Equal(t, "0.1.0", initResult.ServerInfo.Version)
	})

	t.Run("ListTools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err, "tools/list failed")

		toolNames := make(map[string]bool)
		for _, tool := range tools.Tools {
			toolNames[tool.Name] = true
		}
		for _, name := range []string{
			"checklist_open",
			"checklist_patch",
			"checklist_commit_all",
			"tree_get",
			"tree_copy_project",
			"project_number_unique",
		} {
			require.True(t, toolNames[name], "Missing expected tool: %s", name)
		}
	})

	t.Run("ChecklistRoundTrip", func(t *testing.T) {
		callTool(t, ctx, session, "checklist_open", map[string]any{"project_id": "1010-01"}, nil)
		callTool(t, ctx, session, "checklist_patch", map[string]any{
			"project_id": "1010-01",
			"record_id":  "item-1",
			"fields":     map[string]any{"status": "Done"},
		}, nil)

		var committed struct {
			Result struct {
				Committed []string `json:"committed"`
			} `json:"result"`
			Checklist struct {
				Dirty     bool                      `json:"dirty"`
				Persisted map[string]map[string]any `json:"persisted"`
			} `json:"checklist"`
		}
		callTool(t, ctx, session, "checklist_commit_all", map[string]any{"project_id": "1010-01"}, &committed)
		require.Equal(t, []string{"item-1"}, committed.Result.Committed)
		require.False(t, committed.Checklist.Dirty)
		require.Equal(t, "Done", committed.Checklist.Persisted["item-1"]["status"])
	})

	t.Run("TreeUsesConfiguredCatalog", func(t *testing.T) {
		var tree struct {
			CatalogID string           `json:"catalog_id"`
			Tree      []map[string]any `json:"tree"`
		}
		callTool(t, ctx, session, "tree_get", map[string]any{}, &tree)
		require.Equal(t, "site", tree.CatalogID)
		require.Len(t, tree.Tree, 1)
	})
}

func TestEnsureDBDir(t *testing.T) {
	require.NoError(t, ensureDBDir(":memory:"))
	require.NoError(t, ensureDBDir("sitebook.db"))

	dir := t.TempDir()
	require.NoError(t, ensureDBDir(dir+"/nested/data/sitebook.db"))
	info, err := os.Stat(dir + "/nested/data")
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestRunHTTP_ShutsDownOnCancel(t *testing.T) {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "sitebook", Version: "test"}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- runHTTP(ctx, slog.New(slog.DiscardHandler), server, "127.0.0.1:0")
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runHTTP did not return after cancel")
	}
}
