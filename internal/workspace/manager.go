// Package workspace runs repository-mutating work on a throwaway branch and
// puts the caller's checkout back afterwards, however the work ends.
package workspace

import (
	"fmt"

	"github.com/Moonsong-Labs/crucible/internal/errors"
	"github.com/Moonsong-Labs/crucible/internal/git"
	"github.com/Moonsong-Labs/crucible/internal/logging"
)

// Compile-time check that git.Repo satisfies Repo.
var _ Repo = (*git.Repo)(nil)

// Repo is the subset of git operations the manager needs.
type Repo interface {
	IsRepository() bool
	CurrentBranch() (string, bool, error)
	HeadCommit() (string, error)
	CreateAndCheckout(branch string) error
	Checkout(ref string) error
	DeleteBranch(branch string) error
	IsCherryPickInProgress() bool
	AbortCherryPick() error
	ResetHard() error
}

// Checkpoint is what HEAD pointed at before the workspace was entered: a
// branch name, or a commit id when HEAD was detached.
type Checkpoint struct {
	Ref      string
	Detached bool
}

func (c Checkpoint) String() string {
	if c.Detached {
		return "detached@" + c.Ref
	}
	return c.Ref
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamingStrategy sets a custom naming strategy.
func WithNamingStrategy(ns *NamingStrategy) Option {
	return func(m *Manager) {
		m.naming = ns
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// Manager owns one isolated run at a time. It does no locking; the caller
// must have exclusive use of the repository.
type Manager struct {
	repo   Repo
	naming *NamingStrategy
	logger *logging.Logger
}

// New creates a Manager for repo.
func New(repo Repo, opts ...Option) *Manager {
	m := &Manager{
		repo:   repo,
		naming: NewNamingStrategy("", nil),
		logger: logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.WithPhase("workspace")
	return m
}

// Verify returns ErrNotGitRepository when the directory is not inside a
// git working tree.
func (m *Manager) Verify() error {
	if !m.repo.IsRepository() {
		return errors.ErrNotGitRepository
	}
	return nil
}

// Checkpoint records the current position of HEAD.
func (m *Manager) Checkpoint() (Checkpoint, error) {
	branch, onBranch, err := m.repo.CurrentBranch()
	if err != nil {
		return Checkpoint{}, err
	}
	if onBranch {
		return Checkpoint{Ref: branch}, nil
	}

	commit, err := m.repo.HeadCommit()
	if err != nil {
		return Checkpoint{}, err
	}
	return Checkpoint{Ref: commit, Detached: true}, nil
}

// Run checkpoints HEAD, creates and switches to an ephemeral branch, calls
// fn with its name, and then restores the checkpoint and deletes the branch.
//
// Restoration runs on every exit from fn, including a panic, which keeps
// propagating afterwards. Cleanup failures are logged and never replace
// fn's error. Errors before fn runs wrap ErrNotGitRepository or
// ErrWorkspaceSetup and leave the repository untouched.
func (m *Manager) Run(fn func(branch string) error) error {
	if err := m.Verify(); err != nil {
		return err
	}

	cp, err := m.Checkpoint()
	if err != nil {
		return fmt.Errorf("%w: could not record current branch: %v", errors.ErrWorkspaceSetup, err)
	}

	branch := m.naming.BranchName()
	if err := m.repo.CreateAndCheckout(branch); err != nil {
		return fmt.Errorf("%w: could not create temporary branch %s: %v", errors.ErrWorkspaceSetup, branch, err)
	}
	m.logger.Info("entered workspace", "branch", branch, "checkpoint", cp.String())

	defer m.restore(cp, branch)
	return fn(branch)
}

// restore is best effort: every step is attempted even if an earlier one
// failed.
func (m *Manager) restore(cp Checkpoint, branch string) {
	if m.repo.IsCherryPickInProgress() {
		if err := m.repo.AbortCherryPick(); err != nil {
			m.logger.Warn("abort cherry-pick failed", "error", err.Error())
		}
	}
	if err := m.repo.ResetHard(); err != nil {
		m.logger.Warn("reset failed", "error", err.Error())
	}
	if err := m.repo.Checkout(cp.Ref); err != nil {
		m.logger.Error("restore checkpoint failed", "checkpoint", cp.String(), "error", err.Error())
	}
	if err := m.repo.DeleteBranch(branch); err != nil {
		m.logger.Warn("delete temporary branch failed", "branch", branch, "error", err.Error())
	}
	m.logger.Info("left workspace", "branch", branch, "checkpoint", cp.String())
}
