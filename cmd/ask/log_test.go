package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setupHistoryTest(t *testing.T) string {
	t.Helper()

	srv := stubInference(t, "ok")
	root := setupWorkspace(t, srv.URL)

	for i, name := range []string{"first.md", "second.md"} {
		file := filepath.Join(root, "data", name)
		if err := os.WriteFile(file, []byte("Document number "+name+"."), 0644); err != nil {
			t.Fatalf("write corpus file %d: %v", i, err)
		}
		if _, err := execute(t, "ingest", "--dir", root, "-m", "add "+name); err != nil {
			t.Fatalf("ingest %d: %v", i, err)
		}
	}

	return root
}

func TestLogCmd(t *testing.T) {
	root := setupHistoryTest(t)

	out, err := execute(t, "log", "--dir", root)
	if err != nil {
		t.Fatalf("log: %v", err)
	}

	if !strings.Contains(out, "add first.md") {
		t.Errorf("missing first commit: %s", out)
	}
	if !strings.Contains(out, "add second.md") {
		t.Errorf("missing second commit: %s", out)
	}
}

func TestLogCmdOneline(t *testing.T) {
	root := setupHistoryTest(t)

	out, err := execute(t, "log", "--oneline", "--dir", root)
	if err != nil {
		t.Fatalf("log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 oneline entries, got %d: %v", len(lines), lines)
	}
	for _, line := range lines {
		if !strings.Contains(line, " ") {
			t.Errorf("oneline entry missing space: %q", line)
		}
	}
}

func TestLogCmdLimit(t *testing.T) {
	root := setupHistoryTest(t)

	out, err := execute(t, "log", "-n", "1", "--oneline", "--dir", root)
	if err != nil {
		t.Fatalf("log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Errorf("expected 1 entry with -n 1, got %d: %v", len(lines), lines)
	}
	// newest first
	if !strings.Contains(lines[0], "add second.md") {
		t.Errorf("expected newest commit first: %q", lines[0])
	}
}

func TestLogCmdJSON(t *testing.T) {
	root := setupHistoryTest(t)

	out, err := execute(t, "log", "--json", "--dir", root)
	if err != nil {
		t.Fatalf("log: %v", err)
	}

	if !strings.Contains(out, `"hash"`) || !strings.Contains(out, `"message"`) {
		t.Errorf("unexpected JSON output: %s", out)
	}
}
