package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Moonsong-Labs/crucible/internal/detect"
	"github.com/Moonsong-Labs/crucible/internal/workspace"
)

var detectCmd = &cobra.Command{
	Use:   "detect <commit-list-file>",
	Short: "Test which commits would conflict when cherry-picked",
	Long: `Cherry-pick every commit in the list onto an ephemeral branch created
from HEAD, without committing, and record which ones conflict.

The commit list holds one commit per line, optionally bulleted:
  - a1b2c3d Fix parser
  e4f5a6b Add tests

The report is written to <namespace>/<short hash of last commit>/conflicts.yaml
unless --output is given. Relative paths resolve against the repository.`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

var (
	detectOutput  string
	detectVerbose bool
)

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVarP(&detectOutput, "output", "o", "", "report path (default: <namespace>/<short hash>/conflicts.yaml)")
	detectCmd.Flags().BoolVarP(&detectVerbose, "verbose", "v", false, "print a per-commit summary of the report")
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	d, err := detect.NewForDir(repoDir(),
		detect.WithNamespace(cfg.Detect.Namespace),
		detect.WithNamingStrategy(workspace.NewNamingStrategy(cfg.Detect.BranchPrefix, nil)),
		detect.WithLogger(logger))
	if err != nil {
		return err
	}

	res, err := d.Detect(detect.Request{
		CommitListFile: args[0],
		OutputFile:     detectOutput,
	})
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), detect.Message(nil, err))
		return reportedError{err}
	}

	out := cmd.OutOrStdout()
	if detectVerbose {
		fmt.Fprintln(out, renderSummary(res.Report))
		fmt.Fprintln(out)
	}
	fmt.Fprintln(out, detect.Message(res, nil))
	return nil
}
