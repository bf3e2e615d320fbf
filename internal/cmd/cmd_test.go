package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/Moonsong-Labs/crucible/internal/conflict"
	"github.com/Moonsong-Labs/crucible/internal/report"
	"github.com/Moonsong-Labs/crucible/internal/testutil"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	detectOutput, detectVerbose, historyEnd = "", false, ""

	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// isolateConfig keeps the user's config file and environment out of the test.
func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "crucible" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "crucible")
	}

	expectedCmds := []string{"detect", "history", "serve", "config"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}

	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}

	for _, name := range []string{"config", "repo"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}
}

func TestDetectCommand_Flags(t *testing.T) {
	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"output", "o", ""},
		{"verbose", "v", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := detectCmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("flag --%s not found", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("shorthand = %q, want %q", flag.Shorthand, tt.shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("default = %q, want %q", flag.DefValue, tt.defValue)
			}
		})
	}
}

func TestDetectCommand_RequiresCommitList(t *testing.T) {
	isolateConfig(t)

	if _, err := executeCommand(rootCmd, "detect"); err == nil {
		t.Error("detect without a commit list should fail")
	}
}

func TestRenderSummary(t *testing.T) {
	t.Run("clean", func(t *testing.T) {
		r := report.New()
		r.RecordClean()

		out := renderSummary(r)
		if !strings.Contains(out, "All commits apply cleanly") {
			t.Errorf("summary missing clean message:\n%s", out)
		}
		if !strings.Contains(out, "Total: 1, Clean: 1, Conflicts: 0") {
			t.Errorf("summary missing totals:\n%s", out)
		}
	})

	t.Run("conflicts", func(t *testing.T) {
		r := report.New()
		r.RecordConflict("abc1234", []report.FileConflict{
			report.NewFileConflict("src/app.js", conflict.Analysis{
				Type:        conflict.TypeFunction,
				Complexity:  conflict.ComplexityModerate,
				MarkerCount: 3,
			}),
		})
		r.RecordConflict("def5678", nil)

		out := renderSummary(r)
		for _, want := range []string{
			"abc1234", "src/app.js", "function_conflict", "moderate (3 markers)",
			"def5678", "no conflicted files reported",
			"Total: 2, Clean: 0, Conflicts: 2",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("summary missing %q:\n%s", want, out)
			}
		}
	})
}

func TestConfigShowCommand(t *testing.T) {
	isolateConfig(t)

	output, err := executeCommand(rootCmd, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v\nOutput: %s", err, output)
	}

	for _, want := range []string{
		"(none - using defaults)",
		"namespace: .claude/upstream",
		"branch_prefix: conflict-detection",
		"remote: upstream",
		"max_size_mb: 10",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestConfigShowCommand_EnvOverride(t *testing.T) {
	isolateConfig(t)
	t.Setenv("CRUCIBLE_HISTORY_REMOTE", "vendor")

	output, err := executeCommand(rootCmd, "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(output, "remote: vendor") {
		t.Errorf("env override not applied:\n%s", output)
	}
}

func TestConfigShowCommand_Invalid(t *testing.T) {
	isolateConfig(t)
	t.Setenv("CRUCIBLE_DETECT_BRANCH_PREFIX", "9bad")

	_, err := executeCommand(rootCmd, "config", "show")
	if err == nil || !strings.Contains(err.Error(), "detect.branch_prefix") {
		t.Errorf("config show error = %v, want branch prefix violation", err)
	}
}

// -----------------------------------------------------------------------------
// Integration Tests
// -----------------------------------------------------------------------------

func TestDetectCommand(t *testing.T) {
	testutil.SkipIfNoGit(t)
	isolateConfig(t)

	sc := testutil.SetupConflictScenario(t)
	list := filepath.Join(t.TempDir(), "commits.md")
	content := "- " + sc.Clean + " Add release notes\n- " + sc.Conflicting + " Upstream greeting\n"
	if err := os.WriteFile(list, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	output, err := executeCommand(rootCmd, "-C", sc.RepoDir, "detect", list, "-o", "out/report.yaml", "--verbose")
	if err != nil {
		t.Fatalf("detect failed: %v\nOutput: %s", err, output)
	}

	for _, want := range []string{
		"Conflict summary",
		"app.js",
		"Conflict detection complete!\nTotal: 2, Clean: 1, Conflicts: 1\nReport saved to: " + filepath.Join(sc.RepoDir, "out", "report.yaml"),
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}

	if _, err := os.Stat(filepath.Join(sc.RepoDir, "out", "report.yaml")); err != nil {
		t.Errorf("report not written: %v", err)
	}
	if got := testutil.GetCurrentBranch(t, sc.RepoDir); got != "main" {
		t.Errorf("current branch = %q, want main", got)
	}
}

func TestDetectCommand_NotGitRepo(t *testing.T) {
	testutil.SkipIfNoGit(t)
	isolateConfig(t)

	output, err := executeCommand(rootCmd, "-C", t.TempDir(), "detect", "commits.md")
	if err == nil {
		t.Fatal("detect should fail outside a repository")
	}
	var reported reportedError
	if !errors.As(err, &reported) {
		t.Errorf("error %v was not reported by the command", err)
	}
	if strings.TrimSpace(output) != "Error: Not in a git repository" {
		t.Errorf("output = %q", output)
	}
}

func TestHistoryCommand(t *testing.T) {
	testutil.SkipIfNoGit(t)
	isolateConfig(t)

	repoDir, upstreamDir := testutil.SetupTestRepoWithUpstream(t)
	testutil.CommitFile(t, upstreamDir, "a.txt", "a\n", "Add a")
	end := testutil.CommitFile(t, upstreamDir, "b.txt", "b\n", "Add b")
	testutil.RunGit(t, repoDir, "fetch", "upstream")
	short := testutil.RunGit(t, repoDir, "rev-parse", "--short", end)

	output, err := executeCommand(rootCmd, "-C", repoDir, "history")
	if err != nil {
		t.Fatalf("history failed: %v\nOutput: %s", err, output)
	}

	wantPath := filepath.Join(repoDir, ".claude", "upstream", short, "commit-history.md")
	if !strings.Contains(output, "with 2 commits") || !strings.Contains(output, "File location: "+wantPath) {
		t.Errorf("output = %q", output)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Errorf("commit list not written: %v", err)
	}
}

func TestHistoryCommand_NoUpstream(t *testing.T) {
	testutil.SkipIfNoGit(t)
	isolateConfig(t)

	output, err := executeCommand(rootCmd, "-C", testutil.SetupTestRepo(t), "history")
	if err == nil {
		t.Fatal("history should fail without an upstream remote")
	}
	if !strings.HasPrefix(output, "Error: No 'upstream' remote found\nAvailable remotes:") {
		t.Errorf("output = %q", output)
	}
}
