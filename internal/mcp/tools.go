package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Moonsong-Labs/crucible/internal/detect"
	"github.com/Moonsong-Labs/crucible/internal/history"
	"github.com/Moonsong-Labs/crucible/internal/workspace"
)

// Tool name constants.
const (
	ToolNameDetectConflicts    = "detect-conflicts"
	ToolNameFetchCommitHistory = "fetch-commit-history"
)

const (
	detectConflictsDescription = "Detect which commits from a commit list would conflict when " +
		"cherry-picked onto the current branch. Writes a conflicts.yaml report."

	fetchCommitHistoryDescription = "Fetches commit history between auto-detected base and an " +
		"end commit (default: latest upstream)"
)

// DetectConflictsInput is the input schema for the detect-conflicts tool.
type DetectConflictsInput struct {
	CommitListFile string `json:"commitListFile"       jsonschema:"path to the file listing commits to test, one per line"`
	OutputFile     string `json:"outputFile,omitempty" jsonschema:"where to write the report (default: <namespace>/<short hash of last commit>/conflicts.yaml)"`
}

// FetchCommitHistoryInput is the input schema for the fetch-commit-history tool.
type FetchCommitHistoryInput struct {
	EndCommit string `json:"endCommit,omitempty" jsonschema:"last commit of the range (default: the upstream default branch)"`
}

// textResult builds a text CallToolResult. Failures set IsError but are
// never returned as protocol errors.
func textResult(text string, isError bool) (*mcpsdk.CallToolResult, any, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: text},
		},
		IsError: isError,
	}, nil, nil
}

func (s *Server) handleDetectConflicts(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input DetectConflictsInput,
) (*mcpsdk.CallToolResult, any, error) {
	s.repoMu.Lock()
	defer s.repoMu.Unlock()

	d, err := detect.NewForDir(s.deps.Dir,
		detect.WithNamespace(s.deps.Namespace),
		detect.WithNamingStrategy(workspace.NewNamingStrategy(s.deps.BranchPrefix, nil)),
		detect.WithLogger(s.logger))
	if err != nil {
		return textResult(detect.Message(nil, err), true)
	}

	res, err := d.Detect(detect.Request{
		CommitListFile: input.CommitListFile,
		OutputFile:     input.OutputFile,
	})
	if err != nil {
		s.logger.Warn("detect-conflicts failed", "error", err.Error())
	}
	return textResult(detect.Message(res, err), err != nil)
}

func (s *Server) handleFetchCommitHistory(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input FetchCommitHistoryInput,
) (res *mcpsdk.CallToolResult, out any, err error) {
	s.repoMu.Lock()
	defer s.repoMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("fetch-commit-history panicked", "panic", fmt.Sprint(r))
			res, out, err = textResult(fmt.Sprintf("Error: %v", r), true)
		}
	}()

	f, ferr := history.NewForDir(s.deps.Dir,
		history.WithRemote(s.deps.Remote),
		history.WithNamespace(s.deps.Namespace),
		history.WithLogger(s.logger))
	if ferr != nil {
		return textResult(history.Message(nil, ferr), true)
	}

	result, ferr := f.Fetch(history.Request{EndCommit: input.EndCommit})
	if ferr != nil {
		s.logger.Warn("fetch-commit-history failed", "error", ferr.Error())
	}
	return textResult(history.Message(result, ferr), ferr != nil)
}
