package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	historyDir    = ".history"
	DefaultBranch = "main"
	DefaultAuthor = "insights"
	DefaultEmail  = "insights@local"
)

// History versions the insights root in a git repository whose object
// store lives under <root>/.history, keeping the worktree free of a .git
// directory.
type History struct {
	repo     *git.Repository
	worktree *git.Worktree
	rootPath string
}

// Commit is one recorded change to the insights root.
type Commit struct {
	Hash    string
	Message string
	Author  string
	When    time.Time
}

// HasHistory reports whether the insights root is version-tracked.
func HasHistory(root string) bool {
	_, err := os.Stat(filepath.Join(root, historyDir))
	return err == nil
}

func OpenHistory(root string) (*History, error) {
	storePath := filepath.Join(root, historyDir)
	if _, err := os.Stat(storePath); os.IsNotExist(err) {
		return nil, ErrNoHistory
	}

	storage := filesystem.NewStorage(osfs.New(storePath), cache.NewObjectLRUDefault())
	repo, err := git.Open(storage, osfs.New(root))
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	return &History{repo: repo, worktree: worktree, rootPath: root}, nil
}

func InitHistory(root string) (*History, error) {
	storePath := filepath.Join(root, historyDir)
	if _, err := os.Stat(storePath); err == nil {
		return nil, fmt.Errorf("%w: history already initialized", ErrAlreadyExists)
	}
	if err := os.MkdirAll(storePath, 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	storage := filesystem.NewStorage(osfs.New(storePath), cache.NewObjectLRUDefault())
	repo, err := git.Init(storage, osfs.New(root))
	if err != nil {
		return nil, fmt.Errorf("init history: %w", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		return nil, fmt.Errorf("get config: %w", err)
	}
	cfg.Init.DefaultBranch = DefaultBranch
	if err := repo.SetConfig(cfg); err != nil {
		return nil, fmt.Errorf("set config: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	// Keep the object store and vector data out of the worktree.
	ignore := historyDir + "/\nvectors.db\nvectors/\n"
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte(ignore), 0644); err != nil {
		return nil, fmt.Errorf("write gitignore: %w", err)
	}

	return &History{repo: repo, worktree: worktree, rootPath: root}, nil
}

// CommitAll stages every change under the root and commits it. A clean
// worktree returns nil without creating a commit.
func (h *History) CommitAll(message string) (*Commit, error) {
	status, err := h.worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	if status.IsClean() {
		return nil, nil
	}

	if err := h.worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return nil, fmt.Errorf("stage changes: %w", err)
	}

	hash, err := h.worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  DefaultAuthor,
			Email: DefaultEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	commit, err := h.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get commit: %w", err)
	}
	return toCommit(commit), nil
}

func (h *History) Log(limit int) ([]*Commit, error) {
	iter, err := h.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("get log: %w", err)
	}
	defer iter.Close()

	var commits []*Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && len(commits) >= limit {
			return io.EOF
		}
		commits = append(commits, toCommit(c))
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, err
	}
	return commits, nil
}

// FileAtHead returns the committed content of a file relative to the
// insights root, or ErrNotFound if HEAD does not know it.
func (h *History) FileAtHead(relPath string) (string, error) {
	head, err := h.repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}

	commit, err := h.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("get commit: %w", err)
	}

	file, err := commit.File(filepath.ToSlash(relPath))
	if err == object.ErrFileNotFound {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}

	return file.Contents()
}

func toCommit(c *object.Commit) *Commit {
	return &Commit{
		Hash:    c.Hash.String(),
		Message: strings.TrimSpace(c.Message),
		Author:  c.Author.Name,
		When:    c.Author.When,
	}
}
