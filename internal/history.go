package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	DefaultBranch = "main"
	DefaultAuthor = "ask"
	DefaultEmail  = "ask@local"

	snapshotFilename = "database.json"
)

// SnapshotCommit is one recorded version of the database snapshot.
type SnapshotCommit struct {
	Hash      string
	Message   string
	Timestamp time.Time
}

// History versions the database snapshot in a git store under the
// state directory, so every ingestion run stays inspectable through
// log and diff.
type History struct {
	repo     *git.Repository
	worktree *git.Worktree
	stateDir string
}

func InitHistory(ws Workspace) error {
	fs := osfs.New(ws.HistoryPath())
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(ws.StateDir)

	repo, err := git.Init(storage, wt)
	if err != nil {
		return fmt.Errorf("init history: %w", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("get config: %w", err)
	}
	cfg.Init.DefaultBranch = DefaultBranch
	if err := repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("set config: %w", err)
	}

	return nil
}

func OpenHistory(ws Workspace) (*History, error) {
	fs := osfs.New(ws.HistoryPath())
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(ws.StateDir)

	repo, err := git.Open(storage, wt)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	// The worktree is the whole state dir; only the snapshot is
	// versioned, everything else stays invisible to status.
	worktree.Excludes = []gitignore.Pattern{
		gitignore.ParsePattern("/*", nil),
		gitignore.ParsePattern("!/"+snapshotFilename, nil),
	}

	return &History{repo: repo, worktree: worktree, stateDir: ws.StateDir}, nil
}

// CommitSnapshot records the current database.json. A clean worktree
// is not an error; it simply commits nothing and returns nil.
func (h *History) CommitSnapshot(ctx context.Context, message string) (*SnapshotCommit, error) {
	if _, err := h.worktree.Add(snapshotFilename); err != nil {
		return nil, fmt.Errorf("stage snapshot: %w", err)
	}

	status, err := h.worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	if status.IsClean() {
		return nil, nil
	}

	hash, err := h.worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  DefaultAuthor,
			Email: DefaultEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}

	commit, err := h.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}

	return toSnapshotCommit(commit), nil
}

func (h *History) Log(ctx context.Context, limit int) ([]*SnapshotCommit, error) {
	iter, err := h.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	defer iter.Close()

	var commits []*SnapshotCommit
	count := 0

	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && count >= limit {
			return io.EOF
		}
		commits = append(commits, toSnapshotCommit(c))
		count++
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, err
	}

	return commits, nil
}

// Diff returns the patch from ref to HEAD, or the uncommitted snapshot
// changes when ref is empty.
func (h *History) Diff(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return h.diffWorktreeVsHead()
	}

	head, err := h.repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}

	headCommit, err := h.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("get HEAD commit: %w", err)
	}

	resolved, err := h.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("resolve ref: %w", err)
	}

	targetCommit, err := h.repo.CommitObject(*resolved)
	if err != nil {
		return "", fmt.Errorf("get target commit: %w", err)
	}

	headTree, err := headCommit.Tree()
	if err != nil {
		return "", fmt.Errorf("get HEAD tree: %w", err)
	}

	targetTree, err := targetCommit.Tree()
	if err != nil {
		return "", fmt.Errorf("get target tree: %w", err)
	}

	changes, err := targetTree.Diff(headTree)
	if err != nil {
		return "", fmt.Errorf("diff trees: %w", err)
	}

	patch, err := changes.Patch()
	if err != nil {
		return "", fmt.Errorf("get patch: %w", err)
	}

	return patch.String(), nil
}

// diffWorktreeVsHead builds a pseudo-diff of the on-disk snapshot
// against the last committed version.
func (h *History) diffWorktreeVsHead() (string, error) {
	status, err := h.worktree.Status()
	if err != nil {
		return "", fmt.Errorf("get status: %w", err)
	}
	if status.IsClean() {
		return "", nil
	}

	current, err := os.ReadFile(filepath.Join(h.stateDir, snapshotFilename))
	if os.IsNotExist(err) {
		current = nil
	} else if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}

	head, err := h.repo.Head()
	if err != nil {
		// No commits yet, the whole snapshot is new.
		return additionDiff(string(current)), nil
	}

	headCommit, err := h.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("get HEAD commit: %w", err)
	}

	headTree, err := headCommit.Tree()
	if err != nil {
		return "", fmt.Errorf("get HEAD tree: %w", err)
	}

	var old string
	if f, treeErr := headTree.File(snapshotFilename); treeErr == nil {
		old, err = f.Contents()
		if err != nil {
			return "", fmt.Errorf("read committed snapshot: %w", err)
		}
	}

	if old == "" {
		return additionDiff(string(current)), nil
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "--- a/%s\n+++ b/%s\n", snapshotFilename, snapshotFilename)
	for _, line := range strings.Split(old, "\n") {
		fmt.Fprintf(&buf, "-%s\n", line)
	}
	for _, line := range strings.Split(string(current), "\n") {
		fmt.Fprintf(&buf, "+%s\n", line)
	}
	return buf.String(), nil
}

func additionDiff(content string) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "--- /dev/null\n+++ b/%s\n", snapshotFilename)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(&buf, "+%s\n", line)
	}
	return buf.String()
}

func toSnapshotCommit(c *object.Commit) *SnapshotCommit {
	return &SnapshotCommit{
		Hash:      c.Hash.String(),
		Message:   strings.TrimSpace(c.Message),
		Timestamp: c.Author.When,
	}
}
