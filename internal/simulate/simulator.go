// Package simulate replays commits one at a time with a non-committing
// cherry-pick and records which of them conflict.
package simulate

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Moonsong-Labs/crucible/internal/commitlist"
	"github.com/Moonsong-Labs/crucible/internal/conflict"
	"github.com/Moonsong-Labs/crucible/internal/git"
	"github.com/Moonsong-Labs/crucible/internal/logging"
	"github.com/Moonsong-Labs/crucible/internal/report"
)

// Compile-time check that git.Repo satisfies Repo.
var _ Repo = (*git.Repo)(nil)

// Repo is the subset of git operations the simulator needs.
type Repo interface {
	CherryPickNoCommit(commit string) (bool, error)
	UnmergedPaths() ([]string, error)
	AbortCherryPick() error
	ResetHard() error
}

// Simulator replays commits against the current HEAD. It must run on a
// branch the caller is prepared to have reset; see package workspace.
type Simulator struct {
	repo   Repo
	fs     afero.Fs
	logger *logging.Logger
}

// New creates a Simulator. Conflicted paths are read from fs, which must be
// rooted at the repository top level because git reports paths relative to
// it. A nil logger discards output.
func New(repo Repo, fs afero.Fs, logger *logging.Logger) *Simulator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Simulator{
		repo:   repo,
		fs:     fs,
		logger: logger.WithPhase("simulate"),
	}
}

// NewForDir creates a Simulator whose file reads are confined to topLevel.
func NewForDir(repo Repo, topLevel string, logger *logging.Logger) *Simulator {
	return New(repo, afero.NewBasePathFs(afero.NewOsFs(), topLevel), logger)
}

// Run simulates every commit in order, strictly one after another. A
// conflict is recorded and never stops the loop. The tree is hard reset
// after each commit. An error means git itself could not be run or the tree
// could not be reset; the partial report is returned alongside it.
func (s *Simulator) Run(commits []commitlist.Entry) (*report.Report, error) {
	rep := report.New()
	for _, c := range commits {
		if err := s.simulate(c, rep); err != nil {
			return rep, err
		}
	}
	s.logger.Info("simulation finished",
		"total", rep.Totals.Total,
		"clean", rep.Totals.Clean,
		"conflicts", rep.Totals.Conflicts)
	return rep, nil
}

func (s *Simulator) simulate(c commitlist.Entry, rep *report.Report) error {
	log := s.logger.WithCommit(c.Hash)

	clean, err := s.repo.CherryPickNoCommit(c.Hash)
	if err != nil {
		return err
	}

	if clean {
		rep.RecordClean()
		log.Debug("cherry-pick clean")
		return s.repo.ResetHard()
	}

	paths, err := s.repo.UnmergedPaths()
	if err != nil {
		// Nothing to classify; the commit still counts as conflicting.
		log.Warn("could not list unmerged paths", "error", err.Error())
	}

	files := make([]report.FileConflict, 0, len(paths))
	for _, p := range paths {
		a := conflict.ClassifyFile(s.fs, filepath.FromSlash(p))
		files = append(files, report.NewFileConflict(p, a))
	}
	rep.RecordConflict(c.Hash, files)
	log.Info("cherry-pick conflicted", "files", len(files), "message", c.Message)

	// --no-commit leaves no sequencer state, so abort usually has nothing
	// to do; the reset is what cleans the tree.
	if err := s.repo.AbortCherryPick(); err != nil {
		log.Debug("abort cherry-pick", "error", err.Error())
	}
	return s.repo.ResetHard()
}
