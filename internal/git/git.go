// ABOUTME: Git operations and utilities for repository manipulation
// ABOUTME: Provides safe wrappers around git commands with proper error handling

// Package git provides git repository operations and utilities.
// It is the only place git-tidy talks to the external engine; everything
// goes through process invocation, never through an in-process object store.
package git

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// CommandError describes a failed git invocation. It carries the full
// argument list, captured stderr and the exit code so callers can report
// the precise point of failure.
type CommandError struct {
	Args     []string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s failed", strings.Join(e.Args, " "))
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, strings.TrimSpace(e.Stderr))
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// Repository represents a git repository
type Repository struct {
	Dir string

	// configArgs are "-c key=value" pairs prepended to every invocation,
	// used for temporary merge-friendly settings.
	configArgs []string
}

// NewRepository creates a new repository instance
func NewRepository(dir string) *Repository {
	return &Repository{Dir: dir}
}

// WithConfig returns a copy of the repository that prepends the given
// key=value settings (as -c flags) to every git invocation.
func (r *Repository) WithConfig(settings ...string) *Repository {
	args := make([]string, 0, len(r.configArgs)+len(settings)*2)
	args = append(args, r.configArgs...)
	for _, s := range settings {
		args = append(args, "-c", s)
	}
	return &Repository{Dir: r.Dir, configArgs: args}
}

func (r *Repository) command(extraEnv []string, args ...string) *exec.Cmd {
	full := append(append([]string{}, r.configArgs...), args...)
	cmd := exec.Command("git", full...)
	cmd.Dir = r.Dir
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	return cmd
}

func (r *Repository) wrapError(args []string, err error, stderr string) error {
	if err == nil {
		return nil
	}
	exitCode := -1
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
		if stderr == "" {
			stderr = string(exitErr.Stderr)
		}
	}
	return &CommandError{Args: args, Stderr: stderr, ExitCode: exitCode, Err: err}
}

// Run executes a git command in the repository
func (r *Repository) Run(args ...string) error {
	cmd := r.command(nil, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	err := cmd.Run()
	return r.wrapError(args, err, stderr.String())
}

// RunEnv executes a git command with extra environment variables set.
func (r *Repository) RunEnv(env []string, args ...string) error {
	cmd := r.command(env, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	err := cmd.Run()
	return r.wrapError(args, err, stderr.String())
}

// Output executes a git command and returns its trimmed stdout
func (r *Repository) Output(args ...string) (string, error) {
	cmd := r.command(nil, args...)
	output, err := cmd.Output()
	if err != nil {
		return "", r.wrapError(args, err, "")
	}
	return strings.TrimSpace(string(output)), nil
}

// OutputStdin executes a git command, feeding input on stdin, and returns
// its trimmed stdout. Used for patch-id computation.
func (r *Repository) OutputStdin(input string, args ...string) (string, error) {
	cmd := r.command(nil, args...)
	cmd.Stdin = strings.NewReader(input)
	output, err := cmd.Output()
	if err != nil {
		return "", r.wrapError(args, err, "")
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentBranch returns the checked-out branch name, empty on detached HEAD.
func (r *Repository) CurrentBranch() (string, error) {
	return r.Output("branch", "--show-current")
}

// Head returns the full SHA of HEAD.
func (r *Repository) Head() (string, error) {
	return r.Output("rev-parse", "HEAD")
}

// RevParse resolves a ref to a full SHA.
func (r *Repository) RevParse(ref string) (string, error) {
	return r.Output("rev-parse", ref)
}

// ShortSHA resolves a ref to its abbreviated SHA.
func (r *Repository) ShortSHA(ref string) (string, error) {
	return r.Output("rev-parse", "--short", ref)
}

// RefExists reports whether a ref resolves to a commit.
func (r *Repository) RefExists(ref string) bool {
	return r.Run("rev-parse", "--verify", "--quiet", ref+"^{commit}") == nil
}

// Status returns the porcelain status output; empty means a clean tree.
func (r *Repository) Status() (string, error) {
	return r.Output("status", "--porcelain=v1")
}

// MergeBase returns the nearest common ancestor of two refs.
func (r *Repository) MergeBase(a, b string) (string, error) {
	return r.Output("merge-base", a, b)
}

// CommitCount returns the number of commits reachable from ref.
func (r *Repository) CommitCount(ref string) (int, error) {
	out, err := r.Output("rev-list", "--count", ref)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(out)
}

// AheadBehind returns the "<behind>\t<ahead>" counts for base...branch.
func (r *Repository) AheadBehind(base, branch string) (string, error) {
	return r.Output("rev-list", "--left-right", "--count", base+"..."+branch)
}

// Message returns the full commit message of a commit.
func (r *Repository) Message(sha string) (string, error) {
	return r.Output("show", "-s", "--format=%B", sha)
}

// ChangedFiles returns the files changed by a commit, diffed against its
// first parent. Merge commits are deliberately compared to their first
// parent only so the file set reflects what the merge brought onto the
// mainline; root commits are diffed against the empty tree. Rename
// detection is enabled so moves are reported under the new path.
func (r *Repository) ChangedFiles(sha string) ([]string, error) {
	out, err := r.Output("diff-tree", "--root", "--no-commit-id", "--name-only",
		"-r", "-m", "--first-parent", "-M", sha)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// PatchID computes the stable content fingerprint of a commit's diff,
// independent of its SHA. Returns empty for changeless commits. The diff
// is taken against the first parent, matching ChangedFiles.
func (r *Repository) PatchID(sha string) (string, error) {
	diff, err := r.Output("diff-tree", "--root", "-p", "-m", "--first-parent", sha)
	if err != nil {
		return "", err
	}
	if diff == "" {
		return "", nil
	}
	out, err := r.OutputStdin(diff, "patch-id", "--stable")
	if err != nil {
		return "", err
	}
	// Output is "<patch-id> <commit-id>".
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", nil
	}
	return fields[0], nil
}

// Cherry returns the SHAs of commits on branch whose content is not
// already present on base, per `git cherry` (lines prefixed with +).
func (r *Repository) Cherry(base, branch string) ([]string, error) {
	out, err := r.Output("cherry", "-v", base, branch)
	if err != nil {
		return nil, err
	}
	var unique []string
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "+") {
			continue
		}
		parts := strings.SplitN(line, " ", 3)
		if len(parts) >= 2 {
			unique = append(unique, parts[1])
		}
	}
	return unique, nil
}

// CreateBranch creates a branch at the given start point.
func (r *Repository) CreateBranch(name, at string) error {
	return r.Run("branch", name, at)
}

// ForceBranch moves (or creates) a branch to the given start point.
func (r *Repository) ForceBranch(name, at string) error {
	return r.Run("branch", "-f", name, at)
}

// DeleteBranch force-deletes a branch.
func (r *Repository) DeleteBranch(name string) error {
	return r.Run("branch", "-D", name)
}

// Switch checks out an existing branch.
func (r *Repository) Switch(name string) error {
	return r.Run("switch", name)
}

// SwitchCreate creates and checks out a branch at the given start point.
func (r *Repository) SwitchCreate(name, at string) error {
	return r.Run("switch", "-c", name, at)
}

// ResetHard resets the working branch, index and tree to a ref.
func (r *Repository) ResetHard(ref string) error {
	return r.Run("reset", "--hard", ref)
}

// ResetSoft moves the branch pointer, keeping index and tree.
func (r *Repository) ResetSoft(ref string) error {
	return r.Run("reset", "--soft", ref)
}

// Unstage clears the index without touching the working tree.
func (r *Repository) Unstage() error {
	return r.Run("reset", "HEAD")
}

// ConflictedFiles lists paths with unresolved merge conflicts.
func (r *Repository) ConflictedFiles() ([]string, error) {
	out, err := r.Output("diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// GitDir returns the absolute path of the repository's .git directory.
func (r *Repository) GitDir() (string, error) {
	gitDir, err := r.Output("rev-parse", "--git-dir")
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(r.Dir, gitDir)
	}
	return gitDir, nil
}

// RebaseInProgress reports whether the repository has a suspended rebase.
func (r *Repository) RebaseInProgress() bool {
	gitDir, err := r.GitDir()
	if err != nil {
		return false
	}
	for _, marker := range []string{"REBASE_HEAD", "rebase-merge", "rebase-apply"} {
		if _, err := os.Stat(filepath.Join(gitDir, marker)); err == nil {
			return true
		}
	}
	return false
}

// Fetch updates all remotes, pruning stale refs. Callers treat failures
// as best-effort (offline operation is fine).
func (r *Repository) Fetch() error {
	return r.Run("fetch", "--all", "--prune")
}

// ConfigSet writes a configuration key at the given scope ("--local" or
// "--global").
func (r *Repository) ConfigSet(scopeFlag, key, value string) error {
	return r.Run("config", scopeFlag, key, value)
}
