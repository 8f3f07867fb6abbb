// ABOUTME: Orchestrator composing analysis, planning, safety and execution
// ABOUTME: Implements the group/split/squash workflows and shared plumbing

// Package tidy composes the pipeline stages into the named high-level
// workflows. Every workflow threads its state through explicit values; no
// stage reads ambient globals.
package tidy

import (
	"fmt"
	"io"

	"github.com/obra/git-tidy/internal/analyze"
	"github.com/obra/git-tidy/internal/checkpoint"
	"github.com/obra/git-tidy/internal/config"
	"github.com/obra/git-tidy/internal/git"
	"github.com/obra/git-tidy/internal/plan"
	"github.com/obra/git-tidy/internal/rebase"
	"github.com/obra/git-tidy/internal/safety"
	"github.com/obra/git-tidy/internal/validate"
)

// Tidy wires the pipeline stages for one repository.
type Tidy struct {
	Repo     *git.Repository
	Out      io.Writer
	Resolver *analyze.Resolver
	Safety   *safety.Manager
	Exec     *rebase.Executor
	Checks   *validate.Runner
	Defaults config.Defaults
}

// New creates the orchestrator for the repository at dir, loading the
// optional defaults file.
func New(dir string, out io.Writer) (*Tidy, error) {
	defaults, err := config.LoadDefaults(dir)
	if err != nil {
		return nil, err
	}
	repo := git.NewRepository(dir)
	return &Tidy{
		Repo:     repo,
		Out:      out,
		Resolver: analyze.NewResolver(repo),
		Safety:   safety.NewManager(repo, out),
		Exec:     rebase.NewExecutor(repo, out),
		Checks:   validate.NewRunner(dir, out, defaults),
		Defaults: defaults,
	}, nil
}

// GroupCommits reorders and merges the commits of base..HEAD into
// similarity groups, rewriting history through a non-interactive rebase.
func (t *Tidy) GroupCommits(opts config.Group) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	rng, err := t.Resolver.Resolve(opts.Base, "HEAD")
	if err != nil {
		return err
	}
	groups := analyze.GroupCommits(rng.Commits, opts.Threshold)

	if opts.DryRun {
		fmt.Fprintf(t.Out, "Found %d commits, would group into %d groups:\n", len(rng.Commits), len(groups))
		for i, g := range groups {
			fmt.Fprintf(t.Out, "\nGroup %d (%d commits):\n", i+1, len(g.Members))
			fmt.Fprintf(t.Out, "  %s\n", analyze.DescribeGroup(g))
			for _, c := range g.Members {
				fmt.Fprintf(t.Out, "    %s %s\n", c.ShortSHA(), c.Subject)
			}
		}
		return nil
	}

	if len(groups) == len(rng.Commits) {
		fmt.Fprintln(t.Out, "No grouping needed - commits are already optimally ordered")
		return nil
	}

	fmt.Fprintf(t.Out, "Rebasing %d commits into %d groups...\n", len(rng.Commits), len(groups))
	fmt.Fprintln(t.Out, "\nProposed grouping:")
	for i, g := range groups {
		fmt.Fprintf(t.Out, "  Group %d: %d commits - %s\n", i+1, len(g.Members), analyze.DescribeGroup(g))
	}

	if err := safety.Confirm("Proceed with rebase?", opts.NoPrompt); err != nil {
		return err
	}
	if err := t.Safety.EnsureClean(); err != nil {
		return err
	}

	baseSHA, err := t.Repo.RevParse(rng.Base)
	if err != nil {
		return err
	}
	p := plan.BuildGroupPlan(baseSHA, groups)

	backup, err := t.Safety.Create()
	if err != nil {
		return err
	}
	sess := t.startSession("group-commits", rng, backup, p.SHAs())

	if err := t.Exec.ExecuteTodo(baseSHA, plan.RenderTodo(groups)); err != nil {
		return t.failAndRestore(backup, sess, err)
	}

	t.finishSession(sess)
	fmt.Fprintln(t.Out, "Rebase completed successfully!")
	return nil
}

// SplitCommits rewrites base..HEAD so each commit touches exactly one file.
func (t *Tidy) SplitCommits(opts config.Split) error {
	rng, err := t.Resolver.Resolve(opts.Base, "HEAD")
	if err != nil {
		return err
	}

	baseSHA, err := t.Repo.RevParse(rng.Base)
	if err != nil {
		return err
	}
	p := plan.BuildSplitPlan(baseSHA, rng.Commits)

	if opts.DryRun {
		fmt.Fprintf(t.Out, "Found %d commits to split:\n", len(rng.Commits))
		for _, c := range rng.Commits {
			files := c.SortedFiles()
			fmt.Fprintf(t.Out, "\nCommit %s: %s\n", c.ShortSHA(), c.Subject)
			fmt.Fprintf(t.Out, "  Files (%d)\n", len(files))
			if len(files) > 1 {
				fmt.Fprintf(t.Out, "  Would create %d separate commits:\n", len(files))
				for _, f := range files {
					fmt.Fprintf(t.Out, "    - split off %s\n", f)
				}
			} else {
				fmt.Fprintln(t.Out, "  Would keep as-is")
			}
		}
		return nil
	}

	needsSplitting := false
	for _, c := range rng.Commits {
		if len(c.Files) > 1 {
			needsSplitting = true
			break
		}
	}
	if !needsSplitting {
		fmt.Fprintln(t.Out, "No commits need splitting - all commits already have single files")
		return nil
	}

	fmt.Fprintf(t.Out, "Splitting %d commits into %d file-based commits...\n",
		len(rng.Commits), len(p.Instructions))

	if err := safety.Confirm("Proceed with split rebase?", opts.NoPrompt); err != nil {
		return err
	}
	if err := t.Safety.EnsureClean(); err != nil {
		return err
	}

	backup, err := t.Safety.Create()
	if err != nil {
		return err
	}
	sess := t.startSession("split-commits", rng, backup, p.SHAs())

	if err := t.Exec.SplitReplay(p); err != nil {
		return t.failAndRestore(backup, sess, err)
	}

	t.finishSession(sess)
	fmt.Fprintf(t.Out, "Successfully created %d commits\n", len(p.Instructions))
	return nil
}

// SquashAll prints the plan for collapsing base..HEAD into one commit.
// It only emits guidance; it never rewrites history itself.
func (t *Tidy) SquashAll(base string) error {
	rng, err := t.Resolver.Resolve(base, "HEAD")
	if err != nil {
		return err
	}

	baseSHA, err := t.Repo.RevParse(rng.Base)
	if err != nil {
		return err
	}
	p := plan.BuildSquashPlan(baseSHA, rng.Commits)

	fmt.Fprintf(t.Out, "Found %d commits to squash:\n", len(rng.Commits))
	for _, c := range rng.Commits {
		fmt.Fprintf(t.Out, "  %s %s\n", c.ShortSHA(), c.Subject)
	}
	fmt.Fprintln(t.Out, "\nPlanned instruction sequence:")
	fmt.Fprint(t.Out, plan.Describe(p))
	fmt.Fprintln(t.Out, "\nTo squash all commits into one, run:")
	fmt.Fprintf(t.Out, "  git reset --soft %s\n", baseSHA[:8])
	fmt.Fprintln(t.Out, "  git commit -m \"Your new commit message\"")
	return nil
}

// startSession snapshots a new workflow session; checkpoint persistence
// is best-effort and never blocks the workflow.
func (t *Tidy) startSession(workflow string, rng *analyze.Range, backup *safety.Backup, shas []string) *checkpoint.Session {
	branch, _ := t.Repo.CurrentBranch()
	head, _ := t.Repo.Head()
	sess := checkpoint.New(workflow, branch, rng.Base, head, shas)
	if backup != nil {
		sess.Backup = backup.Branch
	}
	_ = checkpoint.Save(t.Repo, sess)
	return sess
}

// finishSession discards the checkpoint after a successful run.
func (t *Tidy) finishSession(sess *checkpoint.Session) {
	if sess != nil {
		_ = checkpoint.Discard(t.Repo)
	}
}

// failAndRestore rolls the repository back to the backup state and
// surfaces the original error together with the recovery pointers. The
// checkpoint is retained for inspection.
func (t *Tidy) failAndRestore(backup *safety.Backup, sess *checkpoint.Session, err error) error {
	if restoreErr := t.Safety.Restore(backup); restoreErr != nil {
		return fmt.Errorf("%w (rollback also failed: %v)", err, restoreErr)
	}
	if sess != nil {
		fmt.Fprintf(t.Out, "Checkpoint %s retained for inspection (cursor %d, %d conflict(s))\n",
			sess.ID, sess.Cursor, sess.Conflicts)
	}
	if backup != nil {
		return fmt.Errorf("%w; original state restored, backup branch %s retained", err, backup.Branch)
	}
	return err
}

// runValidation executes the enabled hooks; a failure rolls back.
func (t *Tidy) runValidation(v config.Validation, backup *safety.Backup, sess *checkpoint.Session) error {
	if !v.Any() {
		return nil
	}
	if err := t.Checks.Run(v); err != nil {
		return t.failAndRestore(backup, sess, err)
	}
	return nil
}

// requireBranch returns the given branch or the currently checked-out one.
func (t *Tidy) requireBranch(branch string) (string, error) {
	if branch != "" {
		return branch, nil
	}
	current, err := t.Repo.CurrentBranch()
	if err != nil {
		return "", err
	}
	if current == "" {
		return "", fmt.Errorf("detached HEAD: specify --branch explicitly")
	}
	return current, nil
}

// CheckpointCreate snapshots the current branch and head for later manual
// restore.
func (t *Tidy) CheckpointCreate() error {
	branch, err := t.Repo.CurrentBranch()
	if err != nil {
		return err
	}
	head, err := t.Repo.Head()
	if err != nil {
		return err
	}
	sess := checkpoint.New("manual", branch, "", head, nil)
	if err := checkpoint.Save(t.Repo, sess); err != nil {
		return err
	}
	fmt.Fprintf(t.Out, "Created checkpoint %s at %s\n", sess.ID, head[:8])
	return nil
}

// CheckpointRestore returns the repository to the last snapshot.
func (t *Tidy) CheckpointRestore() error {
	sess, err := checkpoint.Load(t.Repo)
	if err != nil {
		return err
	}
	if sess.Branch != "" {
		if err := t.Repo.Run("switch", "--force", sess.Branch); err != nil {
			return err
		}
	}
	if err := t.Repo.ResetHard(sess.Head); err != nil {
		return err
	}
	fmt.Fprintf(t.Out, "Restored checkpoint %s: %s at %s\n", sess.ID, sess.Branch, sess.Head[:8])
	return nil
}

// Preflight verifies the repository is ready for a destructive workflow.
func (t *Tidy) Preflight(base, branch string, opts safety.Preflight) error {
	branch, err := t.requireBranch(branch)
	if err != nil {
		return err
	}
	if base == "" {
		base = "origin/main"
	}
	counts, err := t.Safety.Check(base, branch, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.Out, "Preflight OK. Behind/ahead (base...branch): %s\n", counts)
	return nil
}

// SelectBase prints the base ref the resolver would choose.
func (t *Tidy) SelectBase() error {
	base, err := t.Resolver.SelectBase()
	if err != nil {
		return err
	}
	fmt.Fprintln(t.Out, base)
	return nil
}

// SelectReverts lists candidate commits to revert, newest first, filtered
// by range, count, message grep or author.
func (t *Tidy) SelectReverts(rangeExpr string, count int, grep, author string) ([]string, error) {
	args := []string{"log", "--pretty=%H"}
	if count > 0 {
		args = append(args, fmt.Sprintf("-n%d", count))
	}
	if grep != "" {
		args = append(args, "--grep="+grep)
	}
	if author != "" {
		args = append(args, "--author="+author)
	}
	if rangeExpr != "" {
		args = append(args, rangeExpr)
	}
	out, err := t.Repo.Output(args...)
	if err != nil {
		return nil, err
	}
	var shas []string
	for _, line := range splitLines(out) {
		if line != "" {
			shas = append(shas, line)
		}
	}
	return shas, nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
