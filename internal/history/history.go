// Package history discovers the upstream commits not yet in the local fork
// and writes them as a commit list for conflict detection.
package history

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/spf13/afero"

	"github.com/Moonsong-Labs/crucible/internal/commitlist"
	"github.com/Moonsong-Labs/crucible/internal/errors"
	"github.com/Moonsong-Labs/crucible/internal/git"
	"github.com/Moonsong-Labs/crucible/internal/logging"
)

const (
	// DefaultRemote is the remote commits are pulled from.
	DefaultRemote = "upstream"
	// DefaultNamespace matches the conflict report namespace so both files
	// for one end commit share a directory.
	DefaultNamespace = ".claude/upstream"
	// FileName is the commit list file name.
	FileName = "commit-history.md"
)

// Compile-time check that git.Repo satisfies Repo.
var _ Repo = (*git.Repo)(nil)

// Repo is the subset of git operations history discovery needs.
type Repo interface {
	IsRepository() bool
	Remotes() ([]string, error)
	RemotesVerbose() string
	Fetch(remote string) error
	RemoteHead(remote string) (string, bool)
	VerifyRef(rev string) bool
	MergeBase(a, b string) string
	ShortHash(rev string) (string, error)
	RevListReverse(from, to string) ([]string, error)
	Subject(commit string) (hash, subject string, err error)
}

// Request is the input of one discovery.
type Request struct {
	// EndCommit defaults to the remote's default branch.
	EndCommit string `json:"endCommit,omitempty"`
}

// Result describes the written commit list.
type Result struct {
	// File is relative to the Fetcher's directory.
	File    string
	AbsPath string
	Start   string
	End     string
	Commits []commitlist.Entry
}

func (r *Result) String() string {
	return fmt.Sprintf("Successfully created %s with %d commits\nFile location: %s", r.File, len(r.Commits), r.AbsPath)
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithRemote sets the remote to read from.
func WithRemote(remote string) Option {
	return func(f *Fetcher) {
		f.remote = remote
	}
}

// WithNamespace sets the output directory, relative to the Fetcher's directory.
func WithNamespace(ns string) Option {
	return func(f *Fetcher) {
		f.namespace = ns
	}
}

// WithFs sets the filesystem the commit list is written to.
func WithFs(fs afero.Fs) Option {
	return func(f *Fetcher) {
		f.fs = fs
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// Fetcher computes the range <merge-base>..<end> against a remote.
type Fetcher struct {
	repo      Repo
	dir       string
	remote    string
	namespace string
	fs        afero.Fs
	logger    *logging.Logger
}

// New creates a Fetcher for repo, writing under dir.
func New(repo Repo, dir string, opts ...Option) (*Fetcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve directory %s: %w", dir, err)
	}

	f := &Fetcher{
		repo:      repo,
		dir:       abs,
		remote:    DefaultRemote,
		namespace: DefaultNamespace,
		fs:        afero.NewOsFs(),
		logger:    logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.WithPhase("history")
	return f, nil
}

// NewForDir creates a Fetcher backed by the git CLI in dir.
func NewForDir(dir string, opts ...Option) (*Fetcher, error) {
	return New(git.NewRepo(dir), dir, opts...)
}

// Fetch fetches the remote, resolves the range and writes
// <namespace>/<end short hash>/commit-history.md, oldest commit first.
func (f *Fetcher) Fetch(req Request) (*Result, error) {
	if !f.repo.IsRepository() {
		return nil, errors.ErrNotGitRepository
	}

	remotes, err := f.repo.Remotes()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(remotes, f.remote) {
		return nil, &remoteError{
			NotFoundError: errors.NewNotFoundError("remote", f.remote).WithCause(errors.ErrUpstreamNotFound),
			remotes:       f.repo.RemotesVerbose(),
		}
	}

	// Offline runs still work against the last fetched refs.
	if err := f.repo.Fetch(f.remote); err != nil {
		f.logger.Warn("fetch failed, using existing refs", "remote", f.remote, "error", err.Error())
	}

	defaultBranch, err := f.defaultBranch()
	if err != nil {
		return nil, err
	}

	end := req.EndCommit
	if end == "" {
		end = defaultBranch
	}

	start := f.baseCommit(defaultBranch)
	if start == "" {
		return nil, fmt.Errorf("%w: could not auto-detect base commit", errors.ErrUpstreamNotFound)
	}

	startShort, err := f.repo.ShortHash(start)
	if err != nil {
		return nil, errors.NewNotFoundError("start commit", start).WithCause(err)
	}
	endShort, err := f.repo.ShortHash(end)
	if err != nil {
		return nil, errors.NewNotFoundError("end commit", end).WithCause(err)
	}

	ids, err := f.repo.RevListReverse(start, end)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get commit range %s..%s", startShort, endShort)
	}

	commits := make([]commitlist.Entry, 0, len(ids))
	for _, id := range ids {
		hash, subject, err := f.repo.Subject(id)
		if err != nil {
			f.logger.Warn("skipping unreadable commit", "commit", id, "error", err.Error())
			continue
		}
		commits = append(commits, commitlist.Entry{Hash: hash, Message: subject})
	}

	var buf bytes.Buffer
	heading := fmt.Sprintf("Commit History from %s to %s", startShort, endShort)
	if err := commitlist.Write(&buf, heading, commits); err != nil {
		return nil, err
	}

	rel := filepath.Join(f.namespace, endShort, FileName)
	abs := rel
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(f.dir, rel)
	}
	if err := f.fs.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}
	if err := afero.WriteFile(f.fs, abs, buf.Bytes(), 0644); err != nil {
		return nil, errors.Wrap(err, "failed to write commit history")
	}

	f.logger.Info("commit history written",
		"start", startShort, "end", endShort, "commits", len(commits), "skipped", len(ids)-len(commits), "file", abs)
	return &Result{
		File:    rel,
		AbsPath: abs,
		Start:   startShort,
		End:     endShort,
		Commits: commits,
	}, nil
}

// defaultBranch prefers the remote's HEAD, then <remote>/main, then
// <remote>/master.
func (f *Fetcher) defaultBranch() (string, error) {
	if head, ok := f.repo.RemoteHead(f.remote); ok && f.repo.VerifyRef(head) {
		return head, nil
	}
	for _, name := range []string{"main", "master"} {
		candidate := f.remote + "/" + name
		if f.repo.VerifyRef(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: no %s default branch found (tried %s/main, %s/master)",
		errors.ErrUpstreamNotFound, f.remote, f.remote, f.remote)
}

// baseCommit is the merge-base of HEAD and the default branch, falling back
// to the local main or master branch.
func (f *Fetcher) baseCommit(defaultBranch string) string {
	if base := f.repo.MergeBase("HEAD", defaultBranch); base != "" {
		return base
	}
	for _, local := range []string{"main", "master"} {
		if f.repo.VerifyRef(local) {
			return f.repo.MergeBase(local, defaultBranch)
		}
	}
	return ""
}

// Message renders the text result of an invocation.
func Message(res *Result, err error) string {
	if err != nil {
		return "Error: " + err.Error()
	}
	return res.String()
}

// remoteError carries the configured remotes for the missing-remote message.
type remoteError struct {
	*errors.NotFoundError
	remotes string
}

func (e *remoteError) Error() string {
	return fmt.Sprintf("No '%s' remote found\nAvailable remotes:\n%s", e.ResourceID, e.remotes)
}

func (e *remoteError) Unwrap() error {
	return e.NotFoundError
}
