package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcErrors "github.com/bashhack/periodic-commit/internal/errors"
)

// setupTestRepo creates a repository in a temp dir with an unborn branch
// named branch. Tests are skipped when git is not installed.
func setupTestRepo(t *testing.T, branch string) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	t.Setenv("GIT_CONFIG_GLOBAL", os.DevNull)
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "Test User")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test User")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")

	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "checkout", "-q", "-b", branch)
	return dir
}

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return string(out)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestOpenRepositoryNotARepo(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenRepository(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, pcErrors.ErrNotGitRepository)

	ok, err := IsRepository(dir)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenRepositoryFromSubdirectory(t *testing.T) {
	dir := setupTestRepo(t, "INSTA-5-test")
	sub := filepath.Join(dir, "pkg", "inner")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	ok, err := IsRepository(sub)
	require.NoError(t, err)
	assert.True(t, ok)

	repo, err := OpenRepository(sub)
	require.NoError(t, err)
	assert.Equal(t, sub, repo.Path())
}

func TestCurrentBranchUnborn(t *testing.T) {
	dir := setupTestRepo(t, "INSTA-5-test")

	repo, err := OpenRepository(dir)
	require.NoError(t, err)

	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, "INSTA-5-test", branch)

	commits, err := repo.RecentCommits(3)
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestCurrentBranchDetached(t *testing.T) {
	dir := setupTestRepo(t, "INSTA-5-test")
	writeFile(t, dir, "a.txt", "a\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "first")
	runGit(t, dir, "checkout", "-q", "--detach")

	repo, err := OpenRepository(dir)
	require.NoError(t, err)

	branch, err := repo.CurrentBranch()
	require.NoError(t, err)
	assert.Equal(t, DetachedHead, branch)
}

func TestRecentCommits(t *testing.T) {
	dir := setupTestRepo(t, "INSTA-5-test")
	for i, msg := range []string{"first", "second\n\nwith a body", "third"} {
		writeFile(t, dir, "f.txt", string(rune('a'+i)))
		runGit(t, dir, "add", ".")
		runGit(t, dir, "commit", "-q", "-m", msg)
	}

	repo, err := OpenRepository(dir)
	require.NoError(t, err)

	commits, err := repo.RecentCommits(2)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "third", commits[0].Subject)
	assert.Equal(t, "second", commits[1].Subject)
	assert.Len(t, commits[0].Hash, 7)

	all, err := repo.RecentCommits(10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestExecExecutorCapturesOutput(t *testing.T) {
	dir := setupTestRepo(t, "INSTA-5-test")
	writeFile(t, dir, "a.txt", "hello\n")

	e := NewExecExecutor()
	ctx := context.Background()

	require.NoError(t, e.ExecuteWithContext(ctx, "git", "-C", dir, "add", "."))

	out, err := e.ExecuteWithContextAndOutput(ctx, "git", "-C", dir, "diff", "--cached", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "+hello")
}

func TestExecExecutorFailure(t *testing.T) {
	dir := setupTestRepo(t, "INSTA-5-test")

	e := NewExecExecutor()
	err := e.ExecuteWithContext(context.Background(), "git", "-C", dir, "no-such-subcommand")
	require.Error(t, err)
	assert.ErrorIs(t, err, pcErrors.ErrGitOperationFailed)

	var gitErr *pcErrors.GitError
	require.ErrorAs(t, err, &gitErr)
	assert.Equal(t, "no-such-subcommand", gitErr.Operation)
	assert.NotEmpty(t, gitErr.Output)

	var exitErr *exec.ExitError
	assert.ErrorAs(t, err, &exitErr)
}

func TestOperationName(t *testing.T) {
	assert.Equal(t, "commit", operationName([]string{"-C", "/repo", "commit", "-m", "x"}))
	assert.Equal(t, "add", operationName([]string{"add", "."}))
	assert.Equal(t, "diff", operationName([]string{"--no-pager", "diff"}))
	assert.Equal(t, "git", operationName(nil))
}

func TestCommitterAgainstRealRepository(t *testing.T) {
	dir := setupTestRepo(t, "INSTA-77-real-repo")
	log, stdout, _ := newTestLogger()
	generator := &mockGenerator{response: "Add readme"}

	c, err := NewCommitter(CommitterConfig{
		RepoPath:    dir,
		Period:      time.Minute,
		PrefixRegex: regexp.MustCompile(DefaultPrefixRegex),
	}, log, generator)
	require.NoError(t, err)

	ctx := context.Background()

	// nothing in the work tree yet
	require.NoError(t, c.CommitOnce(ctx))
	assert.Equal(t, 0, generator.calls())

	writeFile(t, dir, "README.md", "# demo\n")
	require.NoError(t, c.CommitOnce(ctx))
	require.Equal(t, 1, generator.calls())
	assert.Contains(t, generator.diffs[0], "+# demo")

	repo, err := OpenRepository(dir)
	require.NoError(t, err)
	commits, err := repo.RecentCommits(1)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "[INSTA-77] Add readme", commits[0].Subject)

	// clean tree again
	require.NoError(t, c.CommitOnce(ctx))
	_, made := c.Stats()
	assert.Equal(t, 1, made)

	c.PrintSummary()
	assert.Contains(t, stdout.String(), "[INSTA-77] Add readme")
}

func TestCommitNothingToCommitFromGit(t *testing.T) {
	dir := setupTestRepo(t, "INSTA-5-test")
	writeFile(t, dir, "a.txt", "a\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "first")

	log, _, _ := newTestLogger()
	c, err := NewCommitter(CommitterConfig{
		RepoPath:    dir,
		Period:      time.Minute,
		PrefixRegex: regexp.MustCompile(DefaultPrefixRegex),
	}, log, &mockGenerator{})
	require.NoError(t, err)

	err = c.commit(context.Background(), "[INSTA-5] empty")
	require.Error(t, err)
	assert.ErrorIs(t, err, pcErrors.ErrNothingToCommit)
}
