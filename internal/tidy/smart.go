// ABOUTME: Orchestrated smart-rebase, skip-merged, merge and revert workflows
// ABOUTME: Composes preflight, dedup, backup, chunked replay and validation

package tidy

import (
	"fmt"

	"github.com/obra/git-tidy/internal/analyze"
	"github.com/obra/git-tidy/internal/config"
	"github.com/obra/git-tidy/internal/safety"
)

// RebaseSkipMerged replays onto base only the commits of branch whose
// content is not already there (per the engine's cherry comparison),
// with chunking, bias and trivial auto-resolution.
func (t *Tidy) RebaseSkipMerged(opts config.SkipMergedRebase) error {
	if err := opts.Replay.Validate(); err != nil {
		return err
	}
	branch, err := t.requireBranch(opts.Branch)
	if err != nil {
		return err
	}
	base := opts.Base
	if base == "" {
		base = "origin/main"
	}

	_ = t.Repo.Fetch()

	unique, err := t.Repo.Cherry(base, branch)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.Out, "Found %d commits unique to %s relative to %s\n", len(unique), branch, base)

	if opts.DryRun {
		if len(unique) == 0 {
			fmt.Fprintln(t.Out, "No commits to replay; branch is effectively up-to-date with base")
			return nil
		}
		fmt.Fprintln(t.Out, "Would replay (oldest to newest):")
		for _, sha := range unique {
			fmt.Fprintf(t.Out, "  %s\n", sha[:8])
		}
		return nil
	}
	if len(unique) == 0 {
		fmt.Fprintln(t.Out, "No commits to replay; branch is effectively up-to-date with base")
		return nil
	}

	prompt := fmt.Sprintf("Rebase %s onto %s replaying %d commit(s)?", branch, base, len(unique))
	if err := safety.Confirm(prompt, !opts.Prompt); err != nil {
		return err
	}
	if err := t.Safety.EnsureClean(); err != nil {
		return err
	}

	var backup *safety.Backup
	if opts.Backup {
		if backup, err = t.Safety.Create(); err != nil {
			return err
		}
	}
	sess := t.startSession("rebase-skip-merged", &analyze.Range{Base: base, Head: branch}, backup, unique)

	if err := t.Exec.SkipMerged(branch, base, unique, opts.Replay, sess); err != nil {
		return t.failAndRestore(backup, sess, err)
	}

	if err := t.runValidation(opts.Validation, backup, sess); err != nil {
		return err
	}

	t.finishSession(sess)
	fmt.Fprintln(t.Out, "Rebase-skip-merged completed successfully.")
	return nil
}

// SmartRebase is the full orchestrated flow: preflight, base resolution,
// content dedup, backup, chunked replay with conflict handling, validation
// and a range-diff report against the pre-rebase state.
func (t *Tidy) SmartRebase(opts config.SmartRebase) error {
	if err := opts.Replay.Validate(); err != nil {
		return err
	}
	branch, err := t.requireBranch(opts.Branch)
	if err != nil {
		return err
	}
	base := opts.Base
	if base == "" {
		if base, err = t.Resolver.SelectBase(); err != nil {
			return err
		}
	}

	if err := t.Preflight(base, branch, safety.Preflight{}); err != nil {
		return err
	}

	if opts.DryRun {
		fmt.Fprintf(t.Out, "Would rebase %s onto %s (smart mode)\n", branch, base)
		return nil
	}

	var backup *safety.Backup

	if opts.SkipMerged {
		// Dedup stage: drop candidates whose patch id already exists on
		// the base side before replaying.
		rng, err := t.Resolver.Resolve(base, branch)
		if err != nil {
			return err
		}
		existing, err := t.Resolver.ExistingPatchIDs(branch + ".." + base)
		if err != nil {
			return err
		}
		candidates := analyze.DedupByPatchID(rng.Commits, existing)
		if skipped := len(rng.Commits) - len(candidates); skipped > 0 {
			fmt.Fprintf(t.Out, "Skipping %d commit(s) already present on %s by content\n", skipped, base)
		}
		if len(candidates) == 0 {
			fmt.Fprintln(t.Out, "No commits to replay; branch is effectively up-to-date with base")
			return nil
		}

		prompt := fmt.Sprintf("Rebase %s onto %s replaying %d commit(s)?", branch, base, len(candidates))
		if err := safety.Confirm(prompt, !opts.Prompt); err != nil {
			return err
		}
		// The backup exists only once the user has committed to the
		// rewrite; a declined prompt leaves no branches behind.
		if opts.Backup {
			if backup, err = t.Safety.Create(); err != nil {
				return err
			}
		}

		shas := make([]string, 0, len(candidates))
		for _, c := range candidates {
			shas = append(shas, c.SHA)
		}
		sess := t.startSession("smart-rebase", rng, backup, shas)

		if err := t.Exec.SkipMerged(branch, base, shas, opts.Replay, sess); err != nil {
			return t.failAndRestore(backup, sess, err)
		}
		if err := t.runValidation(opts.Validation, backup, sess); err != nil {
			return err
		}
		t.reportRangeDiff(base, branch, backup)
		t.finishSession(sess)
	} else {
		// Plain rebase with optional conflict bias.
		if err := safety.Confirm(fmt.Sprintf("Rebase %s onto %s?", branch, base), !opts.Prompt); err != nil {
			return err
		}
		if opts.Backup {
			if backup, err = t.Safety.Create(); err != nil {
				return err
			}
		}
		args := []string{"rebase"}
		if opts.Replay.Bias == config.BiasOurs || opts.Replay.Bias == config.BiasTheirs {
			args = append(args, "-X", string(opts.Replay.Bias))
		}
		args = append(args, base)
		sess := t.startSession("smart-rebase", &analyze.Range{Base: base, Head: branch}, backup, nil)
		if err := t.Repo.Run(args...); err != nil {
			return t.failAndRestore(backup, sess, err)
		}
		if err := t.runValidation(opts.Validation, backup, sess); err != nil {
			return err
		}
		t.reportRangeDiff(base, branch, backup)
		t.finishSession(sess)
	}

	fmt.Fprintln(t.Out, "Smart rebase completed successfully.")
	if backup != nil {
		fmt.Fprintf(t.Out, "Backup branch %s retained; delete it when satisfied.\n", backup.Branch)
	}
	return nil
}

// reportRangeDiff prints how the rewrite changed the range, comparing the
// pre-operation state (via the backup branch) with the new one.
func (t *Tidy) reportRangeDiff(base, branch string, backup *safety.Backup) {
	if backup == nil {
		return
	}
	before := base + "..." + backup.Branch
	after := base + "..." + branch
	if err := t.Exec.RangeDiff(before, after); err != nil {
		fmt.Fprintf(t.Out, "range-diff unavailable: %v\n", err)
	}
}

// SmartMerge previews or performs a merge of a branch into a target with
// rename detection and conflict bias. Preview never changes state.
func (t *Tidy) SmartMerge(opts config.Merge) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	target, err := t.requireBranch(opts.Into)
	if err != nil {
		return err
	}

	current, err := t.Repo.CurrentBranch()
	if err != nil {
		return err
	}
	if current != target {
		if err := t.Repo.Switch(target); err != nil {
			return err
		}
		// A preview must leave the user where they started.
		if !opts.Apply && current != "" {
			defer func() { _ = t.Repo.Switch(current) }()
		}
	}

	var backup *safety.Backup
	if opts.Apply {
		prompt := fmt.Sprintf("Merge %s into %s?", opts.Branch, target)
		if err := safety.Confirm(prompt, !opts.Prompt); err != nil {
			return err
		}
		if err := t.Safety.EnsureClean(); err != nil {
			return err
		}
		if opts.Backup {
			if backup, err = t.Safety.Create(); err != nil {
				return err
			}
		}
	} else {
		fmt.Fprintf(t.Out, "Previewing merge of %s into %s...\n", opts.Branch, target)
	}

	result, err := t.Exec.Merge(opts.Branch, opts.Apply, opts.Replay)
	if err != nil {
		return t.failAndRestore(backup, nil, err)
	}

	if result.Clean {
		if !opts.Apply {
			fmt.Fprintln(t.Out, "Merge would be clean")
			return nil
		}
		fmt.Fprintln(t.Out, "Merge completed cleanly")
		return t.runValidation(opts.Validation, backup, nil)
	}

	if !opts.Apply {
		fmt.Fprintln(t.Out, "Merge preview ended with conflicts:")
		for _, f := range result.Conflicted {
			fmt.Fprintf(t.Out, "  %s\n", f)
		}
		return nil
	}

	fmt.Fprintf(t.Out, "Merge stopped on %d conflicted file(s); resolve manually or restore from backup\n",
		len(result.Conflicted))
	if backup != nil {
		fmt.Fprintf(t.Out, "Backup branch: %s\n", backup.Branch)
	}
	return nil
}

// SmartRevert previews or performs reverts for an explicit commit list, a
// range expression or the last N commits.
func (t *Tidy) SmartRevert(opts config.Revert) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	shas := opts.Commits
	if len(shas) == 0 {
		var err error
		if shas, err = t.SelectReverts(opts.Range, opts.Count, "", ""); err != nil {
			return err
		}
	}
	if len(shas) == 0 {
		fmt.Fprintln(t.Out, "No commits selected to revert")
		return nil
	}

	var backup *safety.Backup
	if opts.Apply {
		prompt := fmt.Sprintf("Revert %d commit(s)?", len(shas))
		if err := safety.Confirm(prompt, !opts.Prompt); err != nil {
			return err
		}
		if err := t.Safety.EnsureClean(); err != nil {
			return err
		}
		if opts.Backup {
			var err error
			if backup, err = t.Safety.Create(); err != nil {
				return err
			}
		}
	}

	conflicts, err := t.Exec.Revert(shas, opts.Apply, opts.Replay)
	if err != nil {
		return t.failAndRestore(backup, nil, err)
	}

	if !opts.Apply {
		if conflicts == 0 {
			fmt.Fprintln(t.Out, "Revert would be clean")
		} else {
			fmt.Fprintln(t.Out, "Revert preview ended with conflicts surfaced.")
		}
		return nil
	}

	fmt.Fprintln(t.Out, "Revert completed successfully")
	return t.runValidation(opts.Validation, backup, nil)
}
