// File: internal/skills/store.go

// Package skills manages the markdown playbook library the agent can
// consult mid-run. Each .md file under the store directory is one skill,
// addressed by its extension-stripped relative path.
package skills

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"go.uber.org/zap"
)

// Store reads skills from a directory tree of markdown files.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore builds a store over dir. The directory does not need to exist;
// a missing directory simply means an empty library.
func NewStore(dir string, logger *zap.Logger) *Store {
	return &Store{dir: dir, logger: logger.Named("skills")}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// List returns the sorted skill names: relative paths with the .md
// extension stripped, slash-separated on every platform.
func (s *Store) List() ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		rel = strings.TrimSuffix(rel, filepath.Ext(rel))
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list skills in %s: %w", s.dir, err)
	}
	sort.Strings(names)
	return names, nil
}

// Read returns the markdown body of the named skill. Unknown names produce
// a text listing the available skills so the model can self-correct on the
// next step instead of failing the run.
func (s *Store) Read(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid skill name %q", name)
	}

	path := filepath.Join(s.dir, clean+".md")
	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to read skill %q: %w", name, err)
	}

	available, listErr := s.List()
	if listErr != nil {
		return "", fmt.Errorf("skill %q not found", name)
	}
	return fmt.Sprintf("skill %q not found. Available: %v", name, available), nil
}

// IndexHint renders the one-line library summary embedded into the system
// prompt. Empty when the library is empty.
func (s *Store) IndexHint() string {
	names, err := s.List()
	if err != nil || len(names) == 0 {
		return ""
	}
	return fmt.Sprintf("Available skills (use read_skill to load one): %s", strings.Join(names, ", "))
}

// SyncFromGit clones repoURL into the store directory, or pulls when the
// directory is already a clone. Already-up-to-date is success.
func (s *Store) SyncFromGit(ctx context.Context, repoURL string) error {
	if _, err := os.Stat(filepath.Join(s.dir, ".git")); err == nil {
		repo, err := git.PlainOpen(s.dir)
		if err != nil {
			return fmt.Errorf("failed to open skills repo at %s: %w", s.dir, err)
		}
		wt, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to open skills worktree: %w", err)
		}
		err = wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull skills from %s: %w", repoURL, err)
		}
		s.logger.Info("Skills library updated", zap.String("repo", repoURL))
		return nil
	}

	_, err := git.PlainCloneContext(ctx, s.dir, false, &git.CloneOptions{
		URL:   repoURL,
		Depth: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to clone skills from %s: %w", repoURL, err)
	}
	s.logger.Info("Skills library cloned", zap.String("repo", repoURL), zap.String("dir", s.dir))
	return nil
}
