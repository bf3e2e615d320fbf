// Package testutil provides git repository fixtures for crucible tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// SetupTestRepo creates a temporary git repository on branch main with one
// commit. The repository is removed when the test completes.
func SetupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	// Resolve symlinks so paths compare equal to `git rev-parse --show-toplevel`
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	RunGit(t, dir, "init")
	RunGit(t, dir, "config", "user.email", "test@crucible.dev")
	RunGit(t, dir, "config", "user.name", "Crucible Test")
	RunGit(t, dir, "config", "commit.gpgsign", "false")
	// Plain two-way markers; the classifier expects <<<<<<< / ======= / >>>>>>> only
	RunGit(t, dir, "config", "merge.conflictStyle", "merge")

	CommitFile(t, dir, "README.md", "# Test Repository\n", "Initial commit")

	// Some systems default to master
	RunGit(t, dir, "branch", "-M", "main")

	return dir
}

// SetupTestRepoWithUpstream creates a repository whose "upstream" remote is a
// second repository sharing the initial commit. Returns both paths.
func SetupTestRepoWithUpstream(t *testing.T) (repoDir, upstreamDir string) {
	t.Helper()

	upstreamDir = SetupTestRepo(t)

	repoDir = t.TempDir()
	if resolved, err := filepath.EvalSymlinks(repoDir); err == nil {
		repoDir = resolved
	}
	RunGit(t, repoDir, "clone", "--origin", "upstream", upstreamDir, ".")
	RunGit(t, repoDir, "config", "user.email", "test@crucible.dev")
	RunGit(t, repoDir, "config", "user.name", "Crucible Test")
	RunGit(t, repoDir, "config", "commit.gpgsign", "false")
	RunGit(t, repoDir, "config", "merge.conflictStyle", "merge")

	return repoDir, upstreamDir
}

// CommitFile creates or updates a file and commits it. Returns the new commit id.
func CommitFile(t *testing.T, repoDir, path, content, message string) string {
	t.Helper()

	WriteFile(t, repoDir, path, content)
	RunGit(t, repoDir, "add", path)
	RunGit(t, repoDir, "commit", "-m", message)
	return HeadCommit(t, repoDir)
}

// WriteFile writes content to a path inside repoDir without staging it.
func WriteFile(t *testing.T, repoDir, path, content string) {
	t.Helper()

	fullPath := filepath.Join(repoDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}

// CreateBranch creates a new branch in the repository.
func CreateBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	RunGit(t, repoDir, "branch", branch)
}

// CheckoutBranch switches to a branch.
func CheckoutBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	RunGit(t, repoDir, "checkout", branch)
}

// GetCurrentBranch returns the current branch name, or "HEAD" when detached.
func GetCurrentBranch(t *testing.T, repoDir string) string {
	t.Helper()
	return RunGit(t, repoDir, "rev-parse", "--abbrev-ref", "HEAD")
}

// HeadCommit returns the full id of HEAD.
func HeadCommit(t *testing.T, repoDir string) string {
	t.Helper()
	return RunGit(t, repoDir, "rev-parse", "HEAD")
}

// ListBranches returns local branch names matching pattern.
func ListBranches(t *testing.T, repoDir, pattern string) []string {
	t.Helper()

	out := RunGit(t, repoDir, "branch", "--list", "--format=%(refname:short)", pattern)
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			branches = append(branches, line)
		}
	}
	return branches
}

// HasUncommittedChanges returns true if tracked files differ from HEAD or
// the index has staged changes. Untracked files are ignored.
func HasUncommittedChanges(t *testing.T, repoDir string) bool {
	t.Helper()
	return RunGit(t, repoDir, "status", "--porcelain", "--untracked-files=no") != ""
}

// SkipIfNoGit skips the test if git is not installed.
func SkipIfNoGit(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH, skipping test")
	}
}

// RunGit runs a git command in dir and returns its trimmed stdout.
// The test fails if git exits non-zero.
func RunGit(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Crucible Test",
		"GIT_AUTHOR_EMAIL=test@crucible.dev",
		"GIT_COMMITTER_NAME=Crucible Test",
		"GIT_COMMITTER_EMAIL=test@crucible.dev",
		"GIT_TERMINAL_PROMPT=0",
	)
	output, err := cmd.Output()
	if err != nil {
		var stderr string
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, stderr)
	}
	return strings.TrimSpace(string(output))
}
