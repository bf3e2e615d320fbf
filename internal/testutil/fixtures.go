package testutil

import "testing"

// GreeterSource is the base version of app.js shared by both forks.
const GreeterSource = `const config = load();

function greet(name) {
  return "Hello, " + name;
}

module.exports = greet;
`

// ConflictScenario describes a repository on branch main plus an
// "upstream-work" branch holding one commit that cherry-picks cleanly onto
// main and one that conflicts with it.
type ConflictScenario struct {
	RepoDir string
	// Clean adds docs/notes.md, which main never touches.
	Clean string
	// Conflicting rewrites the greeting in app.js, which main also rewrote.
	Conflicting string
}

// SetupConflictScenario builds a ConflictScenario and leaves main checked out.
// Cherry-picking Conflicting onto main produces exactly one conflict region in
// app.js, inside function greet.
func SetupConflictScenario(t *testing.T) ConflictScenario {
	t.Helper()

	repoDir := SetupTestRepo(t)
	CommitFile(t, repoDir, "app.js", GreeterSource, "Add greeter")

	CreateBranch(t, repoDir, "upstream-work")
	CheckoutBranch(t, repoDir, "upstream-work")
	clean := CommitFile(t, repoDir, "docs/notes.md", "Release notes\n", "Add release notes")
	conflicting := CommitFile(t, repoDir, "app.js", `const config = load();

function greet(name) {
  return "Hello there, " + name;
}

module.exports = greet;
`, "Upstream greeting")

	CheckoutBranch(t, repoDir, "main")
	CommitFile(t, repoDir, "app.js", `const config = load();

function greet(name) {
  return "Hi, " + name;
}

module.exports = greet;
`, "Local greeting")

	return ConflictScenario{
		RepoDir:     repoDir,
		Clean:       clean,
		Conflicting: conflicting,
	}
}
