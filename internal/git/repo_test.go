package git

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Moonsong-Labs/crucible/internal/errors"
	"github.com/Moonsong-Labs/crucible/internal/testutil"
)

// -----------------------------------------------------------------------------
// Mock Executor for Unit Tests
// -----------------------------------------------------------------------------

// mockCall records a single command invocation
type mockCall struct {
	dir  string
	name string
	args []string
}

// mockExecutor is a test double for Executor
type mockExecutor struct {
	calls     []mockCall
	results   []Result
	errs      []error
	callIndex int
}

func (m *mockExecutor) addResponse(res Result, err error) {
	m.results = append(m.results, res)
	m.errs = append(m.errs, err)
}

func (m *mockExecutor) Run(dir string, name string, args ...string) (Result, error) {
	m.calls = append(m.calls, mockCall{dir: dir, name: name, args: args})
	idx := m.callIndex
	m.callIndex++
	if idx < len(m.results) {
		return m.results[idx], m.errs[idx]
	}
	return Result{}, nil
}

// -----------------------------------------------------------------------------
// Repo Unit Tests
// -----------------------------------------------------------------------------

func TestRepo_UnmergedPaths(t *testing.T) {
	tests := []struct {
		name    string
		res     Result
		want    []string
		wantErr bool
	}{
		{
			name: "none",
			res:  Result{},
			want: nil,
		},
		{
			name: "preserves git order",
			res:  Result{Stdout: "src/z.go\x00src/a.go\x00"},
			want: []string{"src/z.go", "src/a.go"},
		},
		{
			name: "path with spaces and unicode",
			res:  Result{Stdout: "docs/read me.md\x00café.txt\x00"},
			want: []string{"docs/read me.md", "café.txt"},
		},
		{
			name:    "git failure",
			res:     Result{Stderr: "fatal: bad revision", ExitCode: 128},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockExecutor{}
			mock.addResponse(tt.res, nil)
			repo := NewRepoWithExecutor("/repo", mock)

			got, err := repo.UnmergedPaths()
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmergedPaths() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UnmergedPaths() = %q, want %q", got, tt.want)
			}

			call := mock.calls[0]
			if call.dir != "/repo" || call.name != "git" {
				t.Errorf("call = %+v, want git in /repo", call)
			}
			wantArgs := []string{"diff", "--name-only", "--diff-filter=U", "-z"}
			if !reflect.DeepEqual(call.args, wantArgs) {
				t.Errorf("args = %v, want %v", call.args, wantArgs)
			}
		})
	}
}

func TestRepo_CreateAndCheckout_Exists(t *testing.T) {
	mock := &mockExecutor{}
	mock.addResponse(Result{
		Stderr:   "fatal: a branch named 'conflict-detection-1' already exists",
		ExitCode: 128,
	}, nil)
	repo := NewRepoWithExecutor("/repo", mock)

	err := repo.CreateAndCheckout("conflict-detection-1")
	if !errors.Is(err, errors.ErrBranchExists) {
		t.Errorf("CreateAndCheckout() error = %v, want ErrBranchExists", err)
	}
}

func TestRepo_CherryPickNoCommit(t *testing.T) {
	tests := []struct {
		name      string
		res       Result
		runErr    error
		wantClean bool
		wantErr   bool
	}{
		{"clean", Result{}, nil, true, false},
		{"conflict", Result{Stdout: "CONFLICT (content): Merge conflict in a.go", ExitCode: 1}, nil, false, false},
		{"cannot start", Result{ExitCode: -1}, errors.New("exec: not found"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockExecutor{}
			mock.addResponse(tt.res, tt.runErr)
			repo := NewRepoWithExecutor("/repo", mock)

			clean, err := repo.CherryPickNoCommit("abc1234")
			if (err != nil) != tt.wantErr {
				t.Fatalf("CherryPickNoCommit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if clean != tt.wantClean {
				t.Errorf("CherryPickNoCommit() = %v, want %v", clean, tt.wantClean)
			}
			wantArgs := []string{"cherry-pick", "--no-commit", "abc1234"}
			if !reflect.DeepEqual(mock.calls[0].args, wantArgs) {
				t.Errorf("args = %v, want %v", mock.calls[0].args, wantArgs)
			}
		})
	}
}

func TestRepo_RemoteHead(t *testing.T) {
	mock := &mockExecutor{}
	mock.addResponse(Result{Stdout: "refs/remotes/upstream/develop\n"}, nil)
	mock.addResponse(Result{ExitCode: 128}, nil)
	repo := NewRepoWithExecutor("/repo", mock)

	head, ok := repo.RemoteHead("upstream")
	if !ok || head != "upstream/develop" {
		t.Errorf("RemoteHead() = %q, %v, want upstream/develop, true", head, ok)
	}

	if _, ok := repo.RemoteHead("upstream"); ok {
		t.Error("RemoteHead() ok = true for unset symbolic ref")
	}
}

// -----------------------------------------------------------------------------
// Repo Integration Tests
// -----------------------------------------------------------------------------

func TestRepo_Integration_CherryPickConflict(t *testing.T) {
	testutil.SkipIfNoGit(t)

	sc := testutil.SetupConflictScenario(t)
	repo := NewRepo(sc.RepoDir)

	if !repo.IsRepository() {
		t.Fatal("IsRepository() = false inside a repository")
	}

	top, err := repo.TopLevel()
	if err != nil {
		t.Fatalf("TopLevel() error = %v", err)
	}
	if top != sc.RepoDir {
		t.Errorf("TopLevel() = %q, want %q", top, sc.RepoDir)
	}

	branch, onBranch, err := repo.CurrentBranch()
	if err != nil || !onBranch || branch != "main" {
		t.Fatalf("CurrentBranch() = %q, %v, %v", branch, onBranch, err)
	}

	clean, err := repo.CherryPickNoCommit(sc.Clean)
	if err != nil || !clean {
		t.Fatalf("CherryPickNoCommit(clean) = %v, %v", clean, err)
	}
	if err := repo.ResetHard(); err != nil {
		t.Fatalf("ResetHard() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(sc.RepoDir, "docs", "notes.md")); !os.IsNotExist(err) {
		t.Errorf("docs/notes.md should be gone after reset, stat err = %v", err)
	}

	clean, err = repo.CherryPickNoCommit(sc.Conflicting)
	if err != nil {
		t.Fatalf("CherryPickNoCommit(conflicting) error = %v", err)
	}
	if clean {
		t.Fatal("CherryPickNoCommit(conflicting) = true, want conflict")
	}

	paths, err := repo.UnmergedPaths()
	if err != nil {
		t.Fatalf("UnmergedPaths() error = %v", err)
	}
	if !reflect.DeepEqual(paths, []string{"app.js"}) {
		t.Errorf("UnmergedPaths() = %v, want [app.js]", paths)
	}

	// --no-commit leaves no sequencer state, so abort may fail; reset must not
	_ = repo.AbortCherryPick()
	if err := repo.ResetHard(); err != nil {
		t.Fatalf("ResetHard() error = %v", err)
	}
	if testutil.HasUncommittedChanges(t, sc.RepoDir) {
		t.Error("working tree dirty after reset")
	}
	if repo.IsCherryPickInProgress() {
		t.Error("IsCherryPickInProgress() = true after reset")
	}
}

func TestRepo_Integration_Branches(t *testing.T) {
	testutil.SkipIfNoGit(t)

	dir := testutil.SetupTestRepo(t)
	repo := NewRepo(dir)

	if err := repo.CreateAndCheckout("scratch"); err != nil {
		t.Fatalf("CreateAndCheckout() error = %v", err)
	}
	if got := testutil.GetCurrentBranch(t, dir); got != "scratch" {
		t.Errorf("current branch = %q, want scratch", got)
	}
	if err := repo.CreateAndCheckout("scratch"); !errors.Is(err, errors.ErrBranchExists) {
		t.Errorf("second CreateAndCheckout() error = %v, want ErrBranchExists", err)
	}
	if err := repo.Checkout("main"); err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if err := repo.DeleteBranch("scratch"); err != nil {
		t.Fatalf("DeleteBranch() error = %v", err)
	}
	if err := repo.DeleteBranch("scratch"); !errors.Is(err, errors.ErrBranchNotFound) {
		t.Errorf("second DeleteBranch() error = %v, want ErrBranchNotFound", err)
	}

	head := testutil.HeadCommit(t, dir)
	short, err := repo.ShortHash(head)
	if err != nil {
		t.Fatalf("ShortHash() error = %v", err)
	}
	if len(short) < 7 || head[:len(short)] != short {
		t.Errorf("ShortHash() = %q, not a prefix of %q", short, head)
	}

	hash, subject, err := repo.Subject(head)
	if err != nil {
		t.Fatalf("Subject() error = %v", err)
	}
	if hash != short || subject != "Initial commit" {
		t.Errorf("Subject() = %q, %q", hash, subject)
	}

	gitDir, err := repo.GitDir()
	if err != nil {
		t.Fatalf("GitDir() error = %v", err)
	}
	if gitDir != filepath.Join(dir, ".git") {
		t.Errorf("GitDir() = %q, want %q", gitDir, filepath.Join(dir, ".git"))
	}
}

func TestRepo_Integration_NotARepository(t *testing.T) {
	testutil.SkipIfNoGit(t)

	repo := NewRepo(t.TempDir())
	if repo.IsRepository() {
		t.Error("IsRepository() = true for an empty temp dir")
	}
}
