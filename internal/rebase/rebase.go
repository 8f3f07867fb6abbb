// ABOUTME: Non-interactive rebase execution and chunked replay
// ABOUTME: Drives git rebase/cherry-pick/merge/revert with conflict handling

// Package rebase drives the external engine's rewrite primitives. The
// executor supplies finished instruction plans to `git rebase -i` through
// sequence-editor injection and replays commit lists with chunking,
// conflict bias and trivial-conflict auto-resolution.
package rebase

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/obra/git-tidy/internal/checkpoint"
	"github.com/obra/git-tidy/internal/config"
	"github.com/obra/git-tidy/internal/errs"
	"github.com/obra/git-tidy/internal/git"
	"github.com/obra/git-tidy/internal/plan"
)

// Executor runs rewrite plans against one repository.
type Executor struct {
	Repo *git.Repository
	Out  io.Writer
}

// NewExecutor creates an executor writing progress to out.
func NewExecutor(repo *git.Repository, out io.Writer) *Executor {
	return &Executor{Repo: repo, Out: out}
}

// PauseError reports a replay stopped by a conflict. It names the
// blocking commit and the instruction suffix that was not applied.
type PauseError struct {
	SHA       string
	Remaining []string
	Conflicts int
	Err       error
}

func (e *PauseError) Error() string {
	short := e.SHA
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("replay stopped at %s with %d remaining commit(s): %v",
		short, len(e.Remaining), e.Err)
}

func (e *PauseError) Unwrap() error { return e.Err }

// engineRepo returns the repository handle with the temporary
// optimize-merge settings applied when requested.
func (e *Executor) engineRepo(opts config.Replay) *git.Repository {
	if opts.OptimizeMerge {
		return e.Repo.WithConfig(config.OptimizeMergeSettings...)
	}
	return e.Repo
}

// strategyArgs builds the -X strategy options for cherry-pick, merge and
// revert from the replay configuration.
func strategyArgs(opts config.Replay) []string {
	var args []string
	if opts.Bias == config.BiasOurs || opts.Bias == config.BiasTheirs {
		args = append(args, "-X", string(opts.Bias))
	}
	if opts.RenameDetect {
		args = append(args, "-X", "find-renames")
	} else {
		args = append(args, "-X", "no-renames")
	}
	if opts.AutoResolveTrivial {
		args = append(args, "-X", "ignore-space-change")
	}
	return args
}

// ExecuteTodo runs a non-interactive `git rebase -i` onto base, supplying
// the prepared todo list in place of the interactive editor session. The
// todo file path is handed to the engine through GIT_SEQUENCE_EDITOR.
func (e *Executor) ExecuteTodo(base, todo string) error {
	f, err := os.CreateTemp("", "git-tidy-todo-*.txt")
	if err != nil {
		return fmt.Errorf("failed to write todo file: %w", err)
	}
	todoFile := f.Name()
	defer os.Remove(todoFile)

	if _, err := f.WriteString(todo + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("failed to write todo file: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	// GIT_EDITOR=true accepts the engine's prepared squash message,
	// which is the concatenation of the squashed commits' messages.
	env := []string{
		fmt.Sprintf("GIT_SEQUENCE_EDITOR=cp %q", todoFile),
		"GIT_EDITOR=true",
	}
	if err := e.Repo.RunEnv(env, "rebase", "-i", base); err != nil {
		return fmt.Errorf("rebase failed: %w", err)
	}
	return nil
}

// tryTrivialContinue attempts to finish a stopped cherry-pick whose
// conflicts resolved themselves (disjoint hunks, whitespace-only, or
// rerere replayed a recorded resolution). Returns true when the pick
// completed.
func (e *Executor) tryTrivialContinue(repo *git.Repository) bool {
	conflicted, err := repo.ConflictedFiles()
	if err != nil || len(conflicted) > 0 {
		return false
	}
	// Index may hold the auto-resolved result already; continue commits it.
	return repo.RunEnv([]string{"GIT_EDITOR=true"}, "cherry-pick", "--continue") == nil
}

// Replay cherry-picks shas onto the current HEAD in chunks, strictly in
// order. A later chunk is never attempted before an earlier one resolved.
// The session, when given, tracks the progress cursor and conflict count
// per chunk. On an unresolvable conflict the failed pick is aborted so
// the repository is left at the last clean point, and a PauseError
// (or ErrConflictLimit) is returned.
func (e *Executor) Replay(shas []string, opts config.Replay, sess *checkpoint.Session) error {
	repo := e.engineRepo(opts)
	strategy := strategyArgs(opts)

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = len(shas)
	}

	conflicts := 0
	if sess != nil {
		conflicts = sess.Conflicts
	}

	for start := 0; start < len(shas); start += chunkSize {
		end := start + chunkSize
		if end > len(shas) {
			end = len(shas)
		}
		if opts.ChunkSize > 0 {
			fmt.Fprintf(e.Out, "Replaying commits %d-%d of %d...\n", start+1, end, len(shas))
		}

		for i := start; i < end; i++ {
			sha := shas[i]
			args := append(append([]string{"cherry-pick"}, strategy...), sha)
			err := repo.Run(args...)
			if err == nil {
				e.advance(sess, i+1, conflicts)
				continue
			}

			if opts.AutoResolveTrivial && e.tryTrivialContinue(repo) {
				fmt.Fprintf(e.Out, "Auto-resolved trivial conflict at %s\n", sha[:8])
				e.advance(sess, i+1, conflicts)
				continue
			}

			conflicts++
			e.advance(sess, i, conflicts)
			fmt.Fprintf(e.Out, "Cherry-pick failed for %s\n", sha[:8])

			// Leave the repository at the last clean commit.
			_ = repo.Run("cherry-pick", "--abort")

			if opts.MaxConflicts > 0 && conflicts >= opts.MaxConflicts {
				return fmt.Errorf("%w after %d conflict(s), stopped at %s",
					errs.ErrConflictLimit, conflicts, sha[:8])
			}
			return &PauseError{SHA: sha, Remaining: shas[i:], Conflicts: conflicts, Err: err}
		}
	}
	return nil
}

func (e *Executor) advance(sess *checkpoint.Session, cursor, conflicts int) {
	if sess == nil {
		return
	}
	sess.Cursor = cursor
	sess.Conflicts = conflicts
	_ = checkpoint.Save(e.Repo, sess)
}

// SkipMerged replays onto base only the given commits of branch (those
// whose content is not already present there), then fast-forwards branch
// to the result. The replay happens on a temporary branch so a failure
// never moves the original ref; the temporary branch is dropped either way.
func (e *Executor) SkipMerged(branch, base string, shas []string, opts config.Replay, sess *checkpoint.Session) error {
	repo := e.engineRepo(opts)
	temp := branch + "-rebased"

	if err := repo.SwitchCreate(temp, base); err != nil {
		return err
	}

	if err := e.Replay(shas, opts, sess); err != nil {
		_ = repo.Switch(branch)
		_ = repo.DeleteBranch(temp)
		return err
	}

	if err := repo.ForceBranch(branch, temp); err != nil {
		return err
	}
	if err := repo.Switch(branch); err != nil {
		return err
	}
	_ = repo.DeleteBranch(temp)
	return nil
}

// SplitReplay rebuilds the range as per-file commits: soft-reset to the
// plan base, then for each instruction cherry-pick the source commit
// without committing, keep only the instruction's file staged, and commit
// with the planned message. Changeless commits are recreated empty.
func (e *Executor) SplitReplay(p plan.Plan) error {
	if err := e.Repo.ResetSoft(p.Base); err != nil {
		return err
	}
	if err := e.Repo.Unstage(); err != nil {
		return err
	}
	// The soft reset leaves the whole range's changes in the working
	// tree; start each instruction from a clean slate instead.
	if err := e.Repo.Run("checkout", "--", "."); err != nil {
		return err
	}
	if err := e.Repo.Run("clean", "-fd"); err != nil {
		return err
	}

	for _, in := range p.Instructions {
		if in.AllowEmpty {
			if err := e.Repo.Run("commit", "--allow-empty", "-m", in.Message); err != nil {
				return fmt.Errorf("failed to recreate empty commit %s: %w", in.SHA[:8], err)
			}
			continue
		}

		if err := e.Repo.Run("cherry-pick", "--no-commit", in.SHA); err != nil {
			return fmt.Errorf("cherry-pick failed for %s: %w", in.SHA[:8], err)
		}
		if err := e.Repo.Unstage(); err != nil {
			return err
		}
		if err := e.Repo.Run("add", "--", in.File); err != nil {
			return fmt.Errorf("failed to stage %s: %w", in.File, err)
		}
		if err := e.Repo.Run("commit", "-m", in.Message); err != nil {
			return fmt.Errorf("failed to commit %s fragment: %w", in.File, err)
		}
		// Drop the rest of the source commit's changes before the next
		// instruction re-picks it.
		if err := e.Repo.Run("checkout", "--", "."); err != nil {
			return err
		}
		if err := e.Repo.Run("clean", "-fd"); err != nil {
			return err
		}
	}
	return nil
}

// MergeResult reports the outcome of a merge attempt.
type MergeResult struct {
	Clean      bool
	Conflicted []string
}

// Merge attempts to merge source into the current branch. In preview mode
// (apply false) the merge is never committed and is always aborted before
// returning, leaving no state change.
func (e *Executor) Merge(source string, apply bool, opts config.Replay) (MergeResult, error) {
	repo := e.engineRepo(opts)

	args := []string{"merge", "--no-ff"}
	if !apply {
		args = []string{"merge", "--no-commit", "--no-ff"}
	}
	args = append(args, strategyArgs(opts)...)
	args = append(args, source)

	err := repo.RunEnv([]string{"GIT_EDITOR=true"}, args...)
	if err == nil {
		if !apply {
			_ = repo.Run("merge", "--abort")
		}
		return MergeResult{Clean: true}, nil
	}

	conflicted, _ := repo.ConflictedFiles()

	if apply && opts.AutoResolveTrivial && len(conflicted) == 0 {
		// All conflicts resolved themselves; commit the merge.
		if repo.RunEnv([]string{"GIT_EDITOR=true"}, "commit", "--no-edit") == nil {
			return MergeResult{Clean: true}, nil
		}
	}

	if !apply {
		_ = repo.Run("merge", "--abort")
	}
	return MergeResult{Clean: false, Conflicted: conflicted}, nil
}

// Revert applies reverts for shas in order. Preview mode uses --no-commit
// and aborts on the first conflict; apply mode stops at the first
// conflict, leaving the repository in the conflicted state for manual
// resolution unless the conflict limit aborts the run.
func (e *Executor) Revert(shas []string, apply bool, opts config.Replay) (int, error) {
	repo := e.engineRepo(opts)

	base := []string{"revert"}
	if !apply {
		base = append(base, "--no-commit")
	} else {
		base = append(base, "--no-edit")
	}
	base = append(base, strategyArgs(opts)...)

	conflicts := 0
	for _, sha := range shas {
		args := append(append([]string{}, base...), sha)
		if err := repo.RunEnv([]string{"GIT_EDITOR=true"}, args...); err != nil {
			conflicts++
			fmt.Fprintf(e.Out, "Revert failed for %s\n", sha[:8])
			if !apply {
				_ = repo.Run("revert", "--abort")
				return conflicts, nil
			}
			if opts.MaxConflicts > 0 && conflicts >= opts.MaxConflicts {
				_ = repo.Run("revert", "--abort")
				return conflicts, fmt.Errorf("%w after %d conflict(s)", errs.ErrConflictLimit, conflicts)
			}
			return conflicts, &PauseError{SHA: sha, Conflicts: conflicts, Err: err}
		}
	}

	if !apply {
		e.dropStagedReverts(repo, shas)
	}
	return conflicts, nil
}

// dropStagedReverts undoes a --no-commit revert preview, touching only the
// paths the reverted commits changed. The engine refuses to start a revert
// over local modifications to those paths, so restoring them from HEAD
// recreates the pre-preview state; unrelated uncommitted edits are never
// touched.
func (e *Executor) dropStagedReverts(repo *git.Repository, shas []string) {
	_ = repo.Run("revert", "--quit")
	for _, sha := range shas {
		files, _ := repo.ChangedFiles(sha)
		for _, path := range files {
			if repo.Run("checkout", "HEAD", "--", path) == nil {
				continue
			}
			// The path is absent from HEAD: the preview re-created a
			// deleted file. Unstage and remove it.
			_ = repo.Run("reset", "-q", "HEAD", "--", path)
			_ = repo.Run("clean", "-f", "--", path)
		}
	}
}

// AutoContinue resumes a suspended cherry-pick or rebase, whichever is in
// progress.
func (e *Executor) AutoContinue() error {
	env := []string{"GIT_EDITOR=true"}
	if e.Repo.RunEnv(env, "cherry-pick", "--continue") == nil {
		fmt.Fprintln(e.Out, "Continued cherry-pick")
		return nil
	}
	if e.Repo.RunEnv(env, "rebase", "--continue") == nil {
		fmt.Fprintln(e.Out, "Continued rebase")
		return nil
	}
	return fmt.Errorf("nothing to continue")
}

// AutoResolveTrivial finishes a suspended operation whose conflicts have
// all been resolved (no unmerged paths remain).
func (e *Executor) AutoResolveTrivial() error {
	conflicted, err := e.Repo.ConflictedFiles()
	if err != nil {
		return fmt.Errorf("no conflict information available: %w", err)
	}
	if len(conflicted) > 0 {
		return fmt.Errorf("%d file(s) still conflicted: %s",
			len(conflicted), strings.Join(conflicted, ", "))
	}
	return e.AutoContinue()
}

// RangeDiff prints the engine's range-diff between two ranges.
func (e *Executor) RangeDiff(old, new string) error {
	out, err := e.Repo.Output("range-diff", old, new)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.Out, out)
	return nil
}

// RerereShare imports or exports the repository's recorded conflict
// resolutions (rr-cache) to a shared directory.
func (e *Executor) RerereShare(action, path string) error {
	gitDir, err := e.Repo.GitDir()
	if err != nil {
		return err
	}
	cache := filepath.Join(gitDir, "rr-cache")

	switch action {
	case "import":
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("invalid rerere cache path %s: %w", path, err)
		}
		if err := copyTree(path, cache); err != nil {
			return err
		}
		fmt.Fprintln(e.Out, "Imported rerere cache")
	case "export":
		if _, err := os.Stat(cache); err != nil {
			return fmt.Errorf("no local rerere cache to export")
		}
		if err := copyTree(cache, path); err != nil {
			return err
		}
		fmt.Fprintln(e.Out, "Exported rerere cache")
	default:
		return fmt.Errorf("unknown rerere-share action %q (want import or export)", action)
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
