package git

import (
	"strings"

	"github.com/Moonsong-Labs/crucible/internal/errors"
)

// Repo provides the git operations used by conflict detection and commit
// history discovery. All commands run in dir.
type Repo struct {
	dir      string
	executor Executor
}

// NewRepo creates a Repo that shells out to the git CLI.
func NewRepo(dir string) *Repo {
	return &Repo{
		dir:      dir,
		executor: NewCLIExecutor(),
	}
}

// NewRepoWithExecutor creates a Repo with a custom executor.
// This is primarily useful for testing.
func NewRepoWithExecutor(dir string, executor Executor) *Repo {
	return &Repo{
		dir:      dir,
		executor: executor,
	}
}

// Dir returns the directory commands run in.
func (r *Repo) Dir() string {
	return r.dir
}

// Run executes an arbitrary git subcommand.
func (r *Repo) Run(args ...string) (Result, error) {
	return r.executor.Run(r.dir, "git", args...)
}

// gitErr builds a GitError for a command that exited non-zero.
func (r *Repo) gitErr(message string, res Result) *errors.GitError {
	out := res.Stderr
	if strings.TrimSpace(out) == "" {
		out = res.Stdout
	}
	return errors.NewGitError(message, nil).
		WithRepository(r.dir).
		WithGitOutput(out)
}

// -----------------------------------------------------------------------------
// Repository state
// -----------------------------------------------------------------------------

// IsRepository reports whether dir is inside a git working tree.
func (r *Repo) IsRepository() bool {
	res, err := r.Run("rev-parse", "--git-dir")
	return err == nil && res.OK()
}

// TopLevel returns the absolute path of the working tree root.
func (r *Repo) TopLevel() (string, error) {
	res, err := r.Run("rev-parse", "--show-toplevel")
	if err != nil {
		return "", errors.NewGitError("failed to run git", err).WithRepository(r.dir)
	}
	if !res.OK() {
		return "", r.gitErr("failed to resolve repository root", res)
	}
	return res.Output(), nil
}

// GitDir returns the absolute path of the git directory for this working
// tree. Linked worktrees each have their own.
func (r *Repo) GitDir() (string, error) {
	res, err := r.Run("rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", errors.NewGitError("failed to run git", err).WithRepository(r.dir)
	}
	if !res.OK() {
		return "", r.gitErr("failed to resolve git directory", res)
	}
	return res.Output(), nil
}

// CurrentBranch returns the checked-out branch name. The boolean is false
// when HEAD is detached.
func (r *Repo) CurrentBranch() (string, bool, error) {
	res, err := r.Run("symbolic-ref", "-q", "--short", "HEAD")
	if err != nil {
		return "", false, errors.NewGitError("failed to run git", err).WithRepository(r.dir)
	}
	if !res.OK() {
		return "", false, nil
	}
	return res.Output(), true, nil
}

// HeadCommit returns the full id of HEAD.
func (r *Repo) HeadCommit() (string, error) {
	return r.RevParse("HEAD")
}

// RevParse resolves a revision to its full object id.
func (r *Repo) RevParse(rev string) (string, error) {
	res, err := r.Run("rev-parse", "--verify", "--quiet", rev+"^{commit}")
	if err != nil {
		return "", errors.NewGitError("failed to run git", err).WithRepository(r.dir)
	}
	if !res.OK() || res.Output() == "" {
		return "", r.gitErr("unknown revision "+rev, res).WithBranch(rev)
	}
	return res.Output(), nil
}

// VerifyRef reports whether rev resolves to an object.
func (r *Repo) VerifyRef(rev string) bool {
	res, err := r.Run("rev-parse", "--verify", "--quiet", rev)
	return err == nil && res.OK()
}

// ShortHash returns the abbreviated id git would print for rev.
func (r *Repo) ShortHash(rev string) (string, error) {
	res, err := r.Run("rev-parse", "--short", rev)
	if err != nil {
		return "", errors.NewGitError("failed to run git", err).WithRepository(r.dir)
	}
	if !res.OK() || res.Output() == "" {
		return "", r.gitErr("failed to abbreviate "+rev, res).WithBranch(rev)
	}
	return res.Output(), nil
}

// -----------------------------------------------------------------------------
// Branches
// -----------------------------------------------------------------------------

// CreateAndCheckout creates branch at HEAD and switches to it.
func (r *Repo) CreateAndCheckout(branch string) error {
	res, err := r.Run("checkout", "-b", branch)
	if err != nil {
		return errors.NewGitError("failed to run git", err).WithRepository(r.dir).WithBranch(branch)
	}
	if !res.OK() {
		if strings.Contains(res.Stderr, "already exists") {
			return errors.NewGitError("branch already exists", errors.ErrBranchExists).
				WithRepository(r.dir).
				WithBranch(branch).
				WithGitOutput(res.Stderr)
		}
		return r.gitErr("failed to create branch", res).WithBranch(branch)
	}
	return nil
}

// Checkout switches to ref, which may be a branch name or a commit id.
func (r *Repo) Checkout(ref string) error {
	res, err := r.Run("checkout", ref)
	if err != nil {
		return errors.NewGitError("failed to run git", err).WithRepository(r.dir).WithBranch(ref)
	}
	if !res.OK() {
		return r.gitErr("failed to checkout", res).WithBranch(ref)
	}
	return nil
}

// DeleteBranch force-deletes a local branch.
func (r *Repo) DeleteBranch(branch string) error {
	res, err := r.Run("branch", "-D", branch)
	if err != nil {
		return errors.NewGitError("failed to run git", err).WithRepository(r.dir).WithBranch(branch)
	}
	if !res.OK() {
		if strings.Contains(res.Stderr, "not found") {
			return errors.NewGitError("branch not found", errors.ErrBranchNotFound).
				WithRepository(r.dir).
				WithBranch(branch).
				WithGitOutput(res.Stderr)
		}
		return r.gitErr("failed to delete branch", res).WithBranch(branch)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Cherry-pick
// -----------------------------------------------------------------------------

// CherryPickNoCommit applies commit to the index and working tree without
// committing. It returns false when git could not apply it cleanly.
func (r *Repo) CherryPickNoCommit(commit string) (bool, error) {
	res, err := r.Run("cherry-pick", "--no-commit", commit)
	if err != nil {
		return false, errors.NewGitError("failed to run git", err).WithRepository(r.dir)
	}
	return res.OK(), nil
}

// AbortCherryPick aborts an in-progress cherry-pick.
func (r *Repo) AbortCherryPick() error {
	res, err := r.Run("cherry-pick", "--abort")
	if err != nil {
		return errors.NewGitError("failed to run git", err).WithRepository(r.dir)
	}
	if !res.OK() {
		return r.gitErr("failed to abort cherry-pick", res)
	}
	return nil
}

// IsCherryPickInProgress returns true if a cherry-pick is in progress.
// It asks git rather than probing .git directly so linked worktrees work.
func (r *Repo) IsCherryPickInProgress() bool {
	return r.VerifyRef("CHERRY_PICK_HEAD")
}

// ResetHard discards staged and unstaged changes to tracked files.
func (r *Repo) ResetHard() error {
	res, err := r.Run("reset", "--hard", "HEAD")
	if err != nil {
		return errors.NewGitError("failed to run git", err).WithRepository(r.dir)
	}
	if !res.OK() {
		return r.gitErr("failed to reset", res)
	}
	return nil
}

// UnmergedPaths returns files with unresolved conflicts, relative to the
// repository root, in the order git reports them.
func (r *Repo) UnmergedPaths() ([]string, error) {
	res, err := r.Run("diff", "--name-only", "--diff-filter=U", "-z")
	if err != nil {
		return nil, errors.NewGitError("failed to run git", err).WithRepository(r.dir)
	}
	if !res.OK() {
		return nil, r.gitErr("failed to list conflicting files", res)
	}

	var paths []string
	for _, p := range strings.Split(res.Stdout, "\x00") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// -----------------------------------------------------------------------------
// Remotes and history
// -----------------------------------------------------------------------------

// Remotes returns the configured remote names.
func (r *Repo) Remotes() ([]string, error) {
	res, err := r.Run("remote")
	if err != nil {
		return nil, errors.NewGitError("failed to run git", err).WithRepository(r.dir)
	}
	if !res.OK() {
		return nil, r.gitErr("failed to list remotes", res)
	}
	return splitLines(res.Stdout), nil
}

// RemotesVerbose returns the output of `git remote -v`.
func (r *Repo) RemotesVerbose() string {
	res, err := r.Run("remote", "-v")
	if err != nil {
		return ""
	}
	return res.Output()
}

// Fetch fetches from remote.
func (r *Repo) Fetch(remote string) error {
	res, err := r.Run("fetch", remote)
	if err != nil {
		return errors.NewGitError("failed to run git", err).WithRepository(r.dir)
	}
	if !res.OK() {
		return r.gitErr("failed to fetch "+remote, res)
	}
	return nil
}

// RemoteHead returns the branch the remote's HEAD points at, as
// "<remote>/<branch>". The boolean is false when the symbolic ref is unset.
func (r *Repo) RemoteHead(remote string) (string, bool) {
	res, err := r.Run("symbolic-ref", "refs/remotes/"+remote+"/HEAD")
	if err != nil || !res.OK() || res.Output() == "" {
		return "", false
	}
	return strings.TrimPrefix(res.Output(), "refs/remotes/"), true
}

// MergeBase returns the best common ancestor of a and b, or "" when none exists.
func (r *Repo) MergeBase(a, b string) string {
	res, err := r.Run("merge-base", a, b)
	if err != nil || !res.OK() {
		return ""
	}
	return res.Output()
}

// RevListReverse returns the commits in from..to, oldest first.
func (r *Repo) RevListReverse(from, to string) ([]string, error) {
	res, err := r.Run("rev-list", "--reverse", from+".."+to)
	if err != nil {
		return nil, errors.NewGitError("failed to run git", err).WithRepository(r.dir)
	}
	if !res.OK() {
		return nil, r.gitErr("failed to list commits", res).WithBranch(from + ".." + to)
	}
	return splitLines(res.Stdout), nil
}

// Subject returns the abbreviated id and subject line of commit.
func (r *Repo) Subject(commit string) (hash, subject string, err error) {
	res, runErr := r.Run("log", "-1", "--pretty=format:%h%x00%s", commit)
	if runErr != nil {
		return "", "", errors.NewGitError("failed to run git", runErr).WithRepository(r.dir)
	}
	if !res.OK() {
		return "", "", r.gitErr("failed to read commit "+commit, res)
	}
	hash, subject, _ = strings.Cut(res.Output(), "\x00")
	return hash, subject, nil
}

func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
