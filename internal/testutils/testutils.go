// ABOUTME: Test utilities for git operations and repository setup
// ABOUTME: Provides helper functions to create test repos with various commit scenarios

package testutils

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// TestRepo represents a test git repository
type TestRepo struct {
	Dir string
	t   *testing.T
}

// NewTestRepo creates a new temporary git repository for testing
func NewTestRepo(t *testing.T) *TestRepo {
	t.Helper()

	dir, err := os.MkdirTemp("", "git-tidy-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	repo := &TestRepo{Dir: dir, t: t}
	repo.Git("init", "-b", "main")
	repo.Git("config", "user.name", "Test User")
	repo.Git("config", "user.email", "test@example.com")
	repo.Git("config", "commit.gpgsign", "false")

	t.Cleanup(func() {
		os.RemoveAll(dir)
	})

	return repo
}

// WriteFile writes content to a file in the test repo
func (r *TestRepo) WriteFile(path, content string) {
	r.t.Helper()

	fullPath := filepath.Join(r.Dir, path)
	dir := filepath.Dir(fullPath)

	if err := os.MkdirAll(dir, 0755); err != nil {
		r.t.Fatalf("Failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		r.t.Fatalf("Failed to write file %s: %v", fullPath, err)
	}
}

// ReadFile returns the content of a file in the test repo
func (r *TestRepo) ReadFile(path string) string {
	r.t.Helper()

	data, err := os.ReadFile(filepath.Join(r.Dir, path))
	if err != nil {
		r.t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(data)
}

// Commit adds all files and creates a commit with the given message
func (r *TestRepo) Commit(message string) string {
	r.t.Helper()

	r.Git("add", ".")
	r.Git("commit", "-m", message)
	return r.Head()
}

// CommitFiles writes the given files and commits them together
func (r *TestRepo) CommitFiles(message string, files map[string]string) string {
	r.t.Helper()

	for path, content := range files {
		r.WriteFile(path, content)
	}
	return r.Commit(message)
}

// Head returns the full SHA of HEAD
func (r *TestRepo) Head() string {
	r.t.Helper()

	return r.GitOutput("rev-parse", "HEAD")
}

// CurrentBranch returns the checked-out branch name
func (r *TestRepo) CurrentBranch() string {
	r.t.Helper()

	return r.GitOutput("branch", "--show-current")
}

// Branch creates a branch at the given start point
func (r *TestRepo) Branch(name, at string) {
	r.t.Helper()

	r.Git("branch", name, at)
}

// Checkout switches to an existing branch
func (r *TestRepo) Checkout(name string) {
	r.t.Helper()

	r.Git("switch", name)
}

// CheckoutNew creates and switches to a branch at the given start point
func (r *TestRepo) CheckoutNew(name, at string) {
	r.t.Helper()

	r.Git("switch", "-c", name, at)
}

// BranchExists reports whether a local branch exists
func (r *TestRepo) BranchExists(name string) bool {
	r.t.Helper()

	cmd := exec.Command("git", "rev-parse", "--verify", "--quiet", "refs/heads/"+name)
	cmd.Dir = r.Dir
	return cmd.Run() == nil
}

// Status returns the porcelain status output
func (r *TestRepo) Status() string {
	r.t.Helper()

	return r.GitOutput("status", "--porcelain=v1")
}

// Subjects returns the commit subjects of base..HEAD, oldest first
func (r *TestRepo) Subjects(base string) []string {
	r.t.Helper()

	out := r.GitOutput("log", base+"..HEAD", "--reverse", "--pretty=format:%s")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// GetCommitMessage returns the full commit message for a given commit
func (r *TestRepo) GetCommitMessage(commit string) string {
	r.t.Helper()

	return r.GitOutput("log", "--format=%B", "-n", "1", commit)
}

// GetCommitFiles returns the sorted list of files changed in a commit
func (r *TestRepo) GetCommitFiles(commit string) []string {
	r.t.Helper()

	out := r.GitOutput("show", "--name-only", "--format=", commit)
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// Git executes a git command in the test repo, failing the test on error
func (r *TestRepo) Git(args ...string) {
	r.t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	if output, err := cmd.CombinedOutput(); err != nil {
		r.t.Fatalf("Git command failed: git %v, error: %v\n%s", args, err, output)
	}
}

// GitOutput executes a git command and returns its trimmed output
func (r *TestRepo) GitOutput(args ...string) string {
	r.t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	output, err := cmd.Output()
	if err != nil {
		r.t.Fatalf("Git command failed: git %v, error: %v", args, err)
	}
	return strings.TrimSpace(string(output))
}
