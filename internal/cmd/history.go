package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Moonsong-Labs/crucible/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Write the upstream commits not yet in this branch to a commit list",
	Long: `Fetch the upstream remote and list the commits between the merge base
of HEAD and the upstream default branch, oldest first.

The list is written to <namespace>/<short end hash>/commit-history.md in the
format accepted by 'crucible detect'.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyEnd string

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyEnd, "end", "", "last commit of the range (default: the upstream default branch)")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	f, err := history.NewForDir(repoDir(),
		history.WithRemote(cfg.History.Remote),
		history.WithNamespace(cfg.Detect.Namespace),
		history.WithLogger(logger))
	if err != nil {
		return err
	}

	res, err := f.Fetch(history.Request{EndCommit: historyEnd})
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), history.Message(nil, err))
		return reportedError{err}
	}

	fmt.Fprintln(cmd.OutOrStdout(), history.Message(res, nil))
	return nil
}
