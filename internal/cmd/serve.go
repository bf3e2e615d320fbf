package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Moonsong-Labs/crucible/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server on stdio",
	Long: `Start a Model Context Protocol (MCP) server on stdio transport.

Tools:
  - detect-conflicts: test a commit list against the current branch
  - fetch-commit-history: write the pending upstream commits to a commit list

Stdout carries the protocol; logs go to stderr or logging.dir.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	mcp.Version = Version
	srv := mcp.NewServer(mcp.ServerDeps{
		Dir:          repoDir(),
		Namespace:    cfg.Detect.Namespace,
		BranchPrefix: cfg.Detect.BranchPrefix,
		Remote:       cfg.History.Remote,
		Logger:       logger,
	})

	logger.Info("mcp server starting", "tools", srv.ListToolNames())
	return srv.Run(cmd.Context())
}
