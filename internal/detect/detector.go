// Package detect is the entry point of conflict detection: it reads a commit
// list, simulates every commit on an ephemeral branch, and writes the
// conflicts report once the caller's branch is back in place.
package detect

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/Moonsong-Labs/crucible/internal/commitlist"
	"github.com/Moonsong-Labs/crucible/internal/errors"
	"github.com/Moonsong-Labs/crucible/internal/git"
	"github.com/Moonsong-Labs/crucible/internal/logging"
	"github.com/Moonsong-Labs/crucible/internal/report"
	"github.com/Moonsong-Labs/crucible/internal/simulate"
	"github.com/Moonsong-Labs/crucible/internal/workspace"
)

// DefaultNamespace is the project-local directory reports are written under.
const DefaultNamespace = ".claude/upstream"

// Compile-time check that git.Repo satisfies Repo.
var _ Repo = (*git.Repo)(nil)

// Repo is every git operation a detection run performs.
type Repo interface {
	workspace.Repo
	simulate.Repo
	TopLevel() (string, error)
	GitDir() (string, error)
	ShortHash(rev string) (string, error)
}

// Request is the input of one detection run. Relative paths are resolved
// against the Detector's directory.
type Request struct {
	CommitListFile string `json:"commitListFile"`
	// OutputFile defaults to <namespace>/<short hash of last commit>/conflicts.yaml.
	OutputFile string `json:"outputFile,omitempty"`
}

// Result summarizes a successful run.
type Result struct {
	Totals     report.Totals
	Report     *report.Report
	ReportPath string
}

func (r *Result) String() string {
	return fmt.Sprintf("Conflict detection complete!\n%s\nReport saved to: %s", r.Totals, r.ReportPath)
}

// Option configures a Detector.
type Option func(*Detector)

// WithNamespace sets the directory default report paths are built under.
func WithNamespace(ns string) Option {
	return func(d *Detector) {
		d.namespace = ns
	}
}

// WithNamingStrategy sets how ephemeral branches are named.
func WithNamingStrategy(ns *workspace.NamingStrategy) Option {
	return func(d *Detector) {
		d.naming = ns
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Detector) {
		d.logger = l
	}
}

// WithFs sets the filesystem used for the commit list, conflicted files
// and the report. Paths on it are absolute.
func WithFs(fs afero.Fs) Option {
	return func(d *Detector) {
		d.fs = fs
	}
}

// Detector runs conflict detection in one repository. Runs must not overlap.
type Detector struct {
	repo      Repo
	dir       string
	fs        afero.Fs
	namespace string
	naming    *workspace.NamingStrategy
	logger    *logging.Logger
}

// New creates a Detector operating on repo, resolving relative paths
// against dir.
func New(repo Repo, dir string, opts ...Option) (*Detector, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve directory %s: %w", dir, err)
	}

	d := &Detector{
		repo:      repo,
		dir:       abs,
		fs:        afero.NewOsFs(),
		namespace: DefaultNamespace,
		naming:    workspace.NewNamingStrategy("", nil),
		logger:    logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NewForDir creates a Detector backed by the git CLI in dir.
func NewForDir(dir string, opts ...Option) (*Detector, error) {
	return New(git.NewRepo(dir), dir, opts...)
}

// Detect runs one detection. Per-commit conflicts are data in the result,
// not errors. Errors are classified by package errors: environment, input,
// setup, or anything else for unexpected faults, including panics, which
// are recovered after the workspace has been restored.
func (d *Detector) Detect(req Request) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("detection panicked", "panic", fmt.Sprint(r))
			res, err = nil, fmt.Errorf("%w: %v", errors.ErrInternal, r)
		}
	}()

	ws := workspace.New(d.repo,
		workspace.WithNamingStrategy(d.naming),
		workspace.WithLogger(d.logger))
	if err := ws.Verify(); err != nil {
		return nil, err
	}

	entries, err := d.readCommits(req.CommitListFile)
	if err != nil {
		return nil, err
	}

	outPath := req.OutputFile
	if outPath == "" {
		outPath = report.DefaultPath(d.namespace, d.shortHash(entries[len(entries)-1].Hash))
	}
	outPath = d.resolve(outPath)

	top, err := d.repo.TopLevel()
	if err != nil {
		return nil, errors.Wrap(errors.ErrNotGitRepository, err.Error())
	}
	sim := simulate.New(d.repo, afero.NewBasePathFs(d.fs, top), d.logger)

	unlock, err := d.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	d.logger.Info("starting conflict detection", "commits", len(entries), "output", outPath)

	var rep *report.Report
	err = ws.Run(func(string) error {
		var runErr error
		rep, runErr = sim.Run(entries)
		return runErr
	})
	if err != nil {
		return nil, err
	}

	if err := rep.Write(d.fs, outPath); err != nil {
		return nil, errors.Wrapf(err, "could not save report to %s", outPath)
	}

	d.logger.Info("conflict detection complete",
		"total", rep.Totals.Total,
		"clean", rep.Totals.Clean,
		"conflicts", rep.Totals.Conflicts,
		"report", outPath)
	return &Result{Totals: rep.Totals, Report: rep, ReportPath: outPath}, nil
}

// lock claims the working tree for this run across processes.
func (d *Detector) lock() (func(), error) {
	gitDir, err := d.repo.GitDir()
	if err != nil {
		return nil, errors.Wrap(errors.ErrWorkspaceSetup, err.Error())
	}

	l := workspace.NewRunLock(gitDir)
	ok, err := l.TryLock()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrWorkspaceSetup, "could not lock %s: %v", l.Path(), err)
	}
	if !ok {
		return nil, errors.Wrap(errors.ErrWorkspaceSetup, "another conflict detection is running in this repository")
	}
	return func() {
		if err := l.Unlock(); err != nil {
			d.logger.Warn("failed to release run lock", "path", l.Path(), "error", err.Error())
		}
	}, nil
}

func (d *Detector) readCommits(file string) ([]commitlist.Entry, error) {
	if strings.TrimSpace(file) == "" {
		return nil, errors.NewValidationError("commit list file is required").WithField("commitListFile")
	}

	entries, err := commitlist.ReadFile(d.fs, d.resolve(file))
	if err != nil {
		return nil, errors.NewValidationError("could not read commit list "+file).
			WithField("commitListFile").
			WithValue(file).
			WithCause(err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w in %s", errors.ErrNoCommits, file)
	}
	return entries, nil
}

// shortHash falls back to the hash as listed when git cannot abbreviate it.
func (d *Detector) shortHash(hash string) string {
	short, err := d.repo.ShortHash(hash)
	if err != nil {
		d.logger.Warn("could not abbreviate last commit", "commit", hash, "error", err.Error())
		return hash
	}
	return short
}

func (d *Detector) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(d.dir, path)
}

// Message renders the single text result of an invocation: the three-line
// summary on success, or one "Error: " line.
func Message(res *Result, err error) string {
	if err != nil {
		return "Error: " + errorLine(err)
	}
	return res.String()
}

func errorLine(err error) string {
	msg := strings.Join(strings.Fields(err.Error()), " ")
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
