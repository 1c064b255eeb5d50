package internal

import (
	"os"
	"path/filepath"
)

const StateDirName = ".ask"

// Workspace locates the state directory holding the config, the
// snapshot database and the snapshot history.
type Workspace struct {
	Root     string // directory the corpus lives under
	StateDir string // .ask directory path
}

func (w Workspace) ConfigPath() string {
	return filepath.Join(w.StateDir, "config.yaml")
}

func (w Workspace) DatabasePath() string {
	return filepath.Join(w.StateDir, "database.json")
}

func (w Workspace) HistoryPath() string {
	return filepath.Join(w.StateDir, "history")
}

func (w Workspace) Initialized() bool {
	info, err := os.Stat(w.StateDir)
	return err == nil && info.IsDir()
}

// ResolveWorkspace walks up from the working directory looking for an
// existing .ask directory; when none exists it anchors a fresh
// workspace at the working directory itself.
func ResolveWorkspace() Workspace {
	cwd, err := os.Getwd()
	if err != nil {
		return Workspace{Root: ".", StateDir: StateDirName}
	}

	dir := cwd
	for {
		stateDir := filepath.Join(dir, StateDirName)
		info, err := os.Stat(stateDir)
		if err == nil && info.IsDir() {
			return Workspace{Root: dir, StateDir: stateDir}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return Workspace{Root: cwd, StateDir: filepath.Join(cwd, StateDirName)}
}

// WorkspaceAt anchors a workspace at an explicit root, bypassing the
// upward search. Used by init and by tests.
func WorkspaceAt(root string) Workspace {
	return Workspace{Root: root, StateDir: filepath.Join(root, StateDirName)}
}
