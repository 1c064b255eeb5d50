package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/askdocs/ask/internal"
)

// stubInference serves the embeddings and chat endpoints the default
// backend talks to: a fixed embedding vector and a small streamed
// reply.
func stubInference(t *testing.T, reply string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embedding": []float64{0.5, 0.5, 0.5},
		})
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"message":{"role":"assistant","content":%q},"done":false}`+"\n", reply)
		fmt.Fprintln(w, `{"done":true}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// setupWorkspace initializes a workspace whose config points at the
// stub server and returns its root.
func setupWorkspace(t *testing.T, serverURL string) string {
	t.Helper()

	root := t.TempDir()
	ws := internal.WorkspaceAt(root)

	if err := os.MkdirAll(ws.StateDir, 0755); err != nil {
		t.Fatalf("mkdir state: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "data"), 0755); err != nil {
		t.Fatalf("mkdir corpus: %v", err)
	}

	cfg := internal.DefaultConfig()
	cfg.Inference.BaseURL = serverURL
	if err := internal.SaveConfig(ws, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	if err := internal.InitHistory(ws); err != nil {
		t.Fatalf("init history: %v", err)
	}

	return root
}

// execute runs the root command with args and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd("test")
	root.SetArgs(args)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.Execute()
	return out.String(), err
}

func TestRootCmdHasSubcommands(t *testing.T) {
	root := NewRootCmd("test")

	want := []string{"init", "ingest", "chat", "search", "summarize", "log", "diff", "watch", "provider"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestRootCmdVersion(t *testing.T) {
	root := NewRootCmd("1.2.3")
	root.SetArgs([]string{"--version"})

	var out bytes.Buffer
	root.SetOut(&out)

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := out.String(); got == "" {
		t.Error("no version output")
	}
}

func TestUninitializedWorkspaceFails(t *testing.T) {
	empty := t.TempDir()

	_, err := execute(t, "search", "anything", "--dir", empty)
	if err == nil {
		t.Fatal("expected error for uninitialized workspace")
	}
}
