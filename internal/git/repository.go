package git

import (
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	pcErrors "github.com/bashhack/periodic-commit/internal/errors"
)

// DetachedHead is the branch name reported when HEAD points at a commit.
// It matches what `git rev-parse --abbrev-ref HEAD` prints.
const DetachedHead = "HEAD"

// CommitSummary is a one-line view of a commit.
type CommitSummary struct {
	Hash    string
	Subject string
}

// Inspector reads repository state without touching the index.
type Inspector interface {
	CurrentBranch() (string, error)
	RecentCommits(n int) ([]CommitSummary, error)
}

// Repository reads refs and history through go-git.
type Repository struct {
	path string
	repo *gogit.Repository
}

var _ Inspector = (*Repository)(nil)

// OpenRepository opens the repository containing path, searching parent
// directories for the .git directory.
func OpenRepository(path string) (*Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, pcErrors.Wrap(pcErrors.ErrNotGitRepository, path)
		}
		return nil, pcErrors.Wrap(pcErrors.ErrGitOperationFailed, fmt.Sprintf("open repository %s: %v", path, err))
	}
	return &Repository{path: path, repo: repo}, nil
}

// Path returns the path the repository was opened from.
func (r *Repository) Path() string {
	return r.path
}

// IsRepository reports whether path is inside a git work tree.
// A missing repository is (false, nil); anything else unexpected is an error.
func IsRepository(path string) (bool, error) {
	_, err := OpenRepository(path)
	if err == nil {
		return true, nil
	}
	if pcErrors.Is(err, pcErrors.ErrNotGitRepository) {
		return false, nil
	}
	return false, err
}

// CurrentBranch returns the short name of the branch HEAD points to, or
// DetachedHead. Unborn branches (no commits yet) still report their name.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", pcErrors.NewGitError("rev-parse", []string{"--abbrev-ref", "HEAD"},
			pcErrors.Wrap(pcErrors.ErrGitOperationFailed, err.Error()), "")
	}

	if head.Type() == plumbing.SymbolicReference {
		return head.Target().Short(), nil
	}
	return DetachedHead, nil
}

// RecentCommits returns up to n commits reachable from HEAD, newest first.
// A repository without commits yields an empty slice.
func (r *Repository) RecentCommits(n int) ([]CommitSummary, error) {
	if n <= 0 {
		return nil, nil
	}

	if _, err := r.repo.Head(); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, pcErrors.Wrap(pcErrors.ErrGitOperationFailed, err.Error())
	}

	iter, err := r.repo.Log(&gogit.LogOptions{})
	if err != nil {
		return nil, pcErrors.Wrap(pcErrors.ErrGitOperationFailed, err.Error())
	}
	defer iter.Close()

	commits := make([]CommitSummary, 0, n)
	err = iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, CommitSummary{
			Hash:    c.Hash.String()[:7],
			Subject: firstLine(c.Message),
		})
		if len(commits) >= n {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, pcErrors.Wrap(pcErrors.ErrGitOperationFailed, err.Error())
	}

	return commits, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
