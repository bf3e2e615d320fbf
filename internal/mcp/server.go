// Package mcp exposes conflict detection and commit history discovery as
// Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Moonsong-Labs/crucible/internal/detect"
	"github.com/Moonsong-Labs/crucible/internal/history"
	"github.com/Moonsong-Labs/crucible/internal/logging"
	"github.com/Moonsong-Labs/crucible/internal/workspace"
)

const (
	serverName = "crucible"

	toolCount = 2
)

// Version is reported to clients; set by the cmd package.
var Version = "dev"

// ServerDeps holds the server's settings. Zero values use defaults.
type ServerDeps struct {
	// Dir is the repository working directory. Empty means ".".
	Dir string
	// Namespace is where reports and commit lists are written.
	Namespace string
	// BranchPrefix names ephemeral branches.
	BranchPrefix string
	// Remote is the upstream remote for history discovery.
	Remote string
	Logger *logging.Logger
}

// Server wraps the MCP SDK server with crucible's tools.
type Server struct {
	inner  *mcpsdk.Server
	deps   ServerDeps
	logger *logging.Logger

	// repoMu serializes tool calls; both tools mutate the same checkout.
	repoMu sync.Mutex

	mu    sync.RWMutex
	tools []string
}

// NewServer creates a server with all tools registered.
func NewServer(deps ServerDeps) *Server {
	if deps.Dir == "" {
		deps.Dir = "."
	}
	if deps.Namespace == "" {
		deps.Namespace = detect.DefaultNamespace
	}
	if deps.BranchPrefix == "" {
		deps.BranchPrefix = workspace.DefaultBranchPrefix
	}
	if deps.Remote == "" {
		deps.Remote = history.DefaultRemote
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	logger = logger.WithPhase("mcp")

	inner := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    serverName,
			Version: Version,
		},
		&mcpsdk.ServerOptions{Logger: logger.Slog()},
	)

	s := &Server{
		inner:  inner,
		deps:   deps,
		logger: logger,
		tools:  make([]string, 0, toolCount),
	}
	s.registerTools()
	return s
}

// ListToolNames returns the sorted names of all registered tools.
func (s *Server) ListToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.tools))
	copy(names, s.tools)
	sort.Strings(names)
	return names
}

// Run serves on stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on transport until ctx is canceled or the
// connection closes.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	if err := s.inner.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameDetectConflicts,
		Description: detectConflictsDescription,
	}, s.handleDetectConflicts)
	s.trackTool(ToolNameDetectConflicts)

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolNameFetchCommitHistory,
		Description: fetchCommitHistoryDescription,
	}, s.handleFetchCommitHistory)
	s.trackTool(ToolNameFetchCommitHistory)
}

func (s *Server) trackTool(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools = append(s.tools, name)
}
