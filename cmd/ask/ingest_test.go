package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/askdocs/ask/internal"
)

func TestIngestCmd(t *testing.T) {
	srv := stubInference(t, "ok")
	root := setupWorkspace(t, srv.URL)

	file := filepath.Join(root, "data", "notes.md")
	if err := os.WriteFile(file, []byte("Go has goroutines. Channels connect them."), 0644); err != nil {
		t.Fatalf("write corpus file: %v", err)
	}

	out, err := execute(t, "ingest", "--dir", root)
	if err != nil {
		t.Fatalf("execute: %v\noutput: %s", err, out)
	}

	if !strings.Contains(out, "Ingested 1 files") {
		t.Errorf("unexpected output: %s", out)
	}

	dbPath := filepath.Join(root, ".ask", "database.json")
	if !internal.SnapshotExists(dbPath) {
		t.Error("snapshot not written")
	}
}

func TestIngestCmdCommitsSnapshot(t *testing.T) {
	srv := stubInference(t, "ok")
	root := setupWorkspace(t, srv.URL)

	file := filepath.Join(root, "data", "a.md")
	if err := os.WriteFile(file, []byte("One sentence."), 0644); err != nil {
		t.Fatalf("write corpus file: %v", err)
	}

	out, err := execute(t, "ingest", "--dir", root, "-m", "first load")
	if err != nil {
		t.Fatalf("execute: %v\noutput: %s", err, out)
	}

	logOut, err := execute(t, "log", "--oneline", "--dir", root)
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	if !strings.Contains(logOut, "first load") {
		t.Errorf("commit message missing from log: %s", logOut)
	}
}

func TestIngestCmdEmptyCorpus(t *testing.T) {
	srv := stubInference(t, "ok")
	root := setupWorkspace(t, srv.URL)

	out, err := execute(t, "ingest", "--dir", root)
	if err != nil {
		t.Fatalf("execute: %v\noutput: %s", err, out)
	}

	if !strings.Contains(out, "Ingested 0 files") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestIngestCmdJSON(t *testing.T) {
	srv := stubInference(t, "ok")
	root := setupWorkspace(t, srv.URL)

	file := filepath.Join(root, "data", "a.md")
	if err := os.WriteFile(file, []byte("One sentence."), 0644); err != nil {
		t.Fatalf("write corpus file: %v", err)
	}

	out, err := execute(t, "ingest", "--dir", root, "--json")
	if err != nil {
		t.Fatalf("execute: %v\noutput: %s", err, out)
	}

	if !strings.Contains(out, `"files": 1`) {
		t.Errorf("unexpected JSON output: %s", out)
	}
}
