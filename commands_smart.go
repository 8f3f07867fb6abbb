// ABOUTME: Orchestrated smart workflows exposed as subcommands
// ABOUTME: smart-rebase, rebase-skip-merged, smart-merge and smart-revert

package main

import (
	"github.com/spf13/cobra"

	"github.com/obra/git-tidy/internal/config"
)

// replayFlags binds the shared conflict-handling flags onto a command.
func replayFlags(cmd *cobra.Command, r *replayFlagSet) {
	cmd.Flags().StringVar(&r.bias, "conflict-bias", "none", "Prefer a side for conflicting hunks: ours, theirs or none")
	cmd.Flags().IntVar(&r.chunkSize, "chunk-size", 0, "Replay commits in chunks of N (0 = all at once)")
	cmd.Flags().IntVar(&r.maxConflicts, "max-conflicts", 0, "Abort after N conflicts (0 = unlimited)")
	cmd.Flags().BoolVar(&r.autoResolveTrivial, "auto-resolve-trivial", false, "Resolve whitespace/disjoint-hunk conflicts automatically")
	cmd.Flags().BoolVar(&r.renameDetect, "rename-detect", true, "Detect renames when diffing and merging")
	cmd.Flags().BoolVar(&r.optimizeMerge, "optimize-merge", false, "Apply temporary merge-friendly git settings")
}

type replayFlagSet struct {
	bias               string
	chunkSize          int
	maxConflicts       int
	autoResolveTrivial bool
	renameDetect       bool
	optimizeMerge      bool
}

func (r replayFlagSet) options() config.Replay {
	return config.Replay{
		Bias:               config.ConflictBias(r.bias),
		ChunkSize:          r.chunkSize,
		MaxConflicts:       r.maxConflicts,
		AutoResolveTrivial: r.autoResolveTrivial,
		RenameDetect:       r.renameDetect,
		OptimizeMerge:      r.optimizeMerge,
	}
}

// validationFlags binds the post-step hook flags onto a command.
func validationFlags(cmd *cobra.Command, v *validationFlagSet) {
	cmd.Flags().BoolVar(&v.lint, "lint", false, "Run the lint hook after the operation")
	cmd.Flags().BoolVar(&v.test, "test", false, "Run the test hook after the operation")
	cmd.Flags().BoolVar(&v.build, "build", false, "Run the build hook after the operation")
}

type validationFlagSet struct {
	lint, test, build bool
}

func (v validationFlagSet) options() config.Validation {
	return config.Validation{Lint: v.lint, Test: v.test, Build: v.build}
}

var (
	srBranch     string
	srBase       string
	srDryRun     bool
	srPrompt     bool
	srBackup     bool
	srSkipMerged bool
	srReplay     replayFlagSet
	srValidation validationFlagSet
)

var smartRebaseCmd = &cobra.Command{
	Use:   "smart-rebase",
	Short: "Orchestrated rebase: preflight, dedup, backup, chunked replay, validation",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.SmartRebase(config.SmartRebase{
			Branch:     srBranch,
			Base:       srBase,
			DryRun:     srDryRun,
			Prompt:     srPrompt,
			Backup:     srBackup,
			SkipMerged: srSkipMerged,
			Replay:     srReplay.options(),
			Validation: srValidation.options(),
		})
	},
}

var (
	rsmBase       string
	rsmBranch     string
	rsmDryRun     bool
	rsmPrompt     bool
	rsmBackup     bool
	rsmReplay     replayFlagSet
	rsmValidation validationFlagSet
)

var rebaseSkipMergedCmd = &cobra.Command{
	Use:   "rebase-skip-merged",
	Short: "Rebase onto base, skipping commits already there by content",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.RebaseSkipMerged(config.SkipMergedRebase{
			Base:       rsmBase,
			Branch:     rsmBranch,
			DryRun:     rsmDryRun,
			Prompt:     rsmPrompt,
			Backup:     rsmBackup,
			Replay:     rsmReplay.options(),
			Validation: rsmValidation.options(),
		})
	},
}

var (
	mergeBranch     string
	mergeInto       string
	mergeApply      bool
	mergePrompt     bool
	mergeBackup     bool
	mergeReplay     replayFlagSet
	mergeValidation validationFlagSet
)

var smartMergeCmd = &cobra.Command{
	Use:   "smart-merge",
	Short: "Preview or perform a merge with rename detection and safety",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.SmartMerge(config.Merge{
			Branch:     mergeBranch,
			Into:       mergeInto,
			Apply:      mergeApply,
			Prompt:     mergePrompt,
			Backup:     mergeBackup,
			Replay:     mergeReplay.options(),
			Validation: mergeValidation.options(),
		})
	},
}

var (
	revertCommits    []string
	revertRange      string
	revertCount      int
	revertApply      bool
	revertPrompt     bool
	revertBackup     bool
	revertReplay     replayFlagSet
	revertValidation validationFlagSet
)

var smartRevertCmd = &cobra.Command{
	Use:   "smart-revert",
	Short: "Preview or perform reverts with strategy hints and safety",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.SmartRevert(config.Revert{
			Commits:    revertCommits,
			Range:      revertRange,
			Count:      revertCount,
			Apply:      revertApply,
			Prompt:     revertPrompt,
			Backup:     revertBackup,
			Replay:     revertReplay.options(),
			Validation: revertValidation.options(),
		})
	},
}

func init() {
	smartRebaseCmd.Flags().StringVar(&srBranch, "branch", "", "Branch to rebase (default: current)")
	smartRebaseCmd.Flags().StringVar(&srBase, "base", "", "Base ref (default: auto-selected)")
	smartRebaseCmd.Flags().BoolVar(&srDryRun, "dry-run", false, "Preview without making changes")
	smartRebaseCmd.Flags().BoolVar(&srPrompt, "prompt", true, "Confirm before rewriting (--prompt=false to skip)")
	smartRebaseCmd.Flags().BoolVar(&srBackup, "backup", true, "Create a backup branch first")
	smartRebaseCmd.Flags().BoolVar(&srSkipMerged, "skip-merged", true, "Skip commits whose content is already on base")
	replayFlags(smartRebaseCmd, &srReplay)
	validationFlags(smartRebaseCmd, &srValidation)

	rebaseSkipMergedCmd.Flags().StringVar(&rsmBase, "base", "", "Base ref (default: origin/main)")
	rebaseSkipMergedCmd.Flags().StringVar(&rsmBranch, "branch", "", "Branch to rebase (default: current)")
	rebaseSkipMergedCmd.Flags().BoolVar(&rsmDryRun, "dry-run", false, "Show planned replay without making changes")
	rebaseSkipMergedCmd.Flags().BoolVar(&rsmPrompt, "prompt", true, "Confirm before rewriting (--prompt=false to skip)")
	rebaseSkipMergedCmd.Flags().BoolVar(&rsmBackup, "backup", true, "Create a backup branch first")
	replayFlags(rebaseSkipMergedCmd, &rsmReplay)
	validationFlags(rebaseSkipMergedCmd, &rsmValidation)

	smartMergeCmd.Flags().StringVar(&mergeBranch, "branch", "", "Branch to merge (required)")
	smartMergeCmd.Flags().StringVar(&mergeInto, "into", "", "Target branch (default: current)")
	smartMergeCmd.Flags().BoolVar(&mergeApply, "apply", false, "Perform the merge instead of previewing")
	smartMergeCmd.Flags().BoolVar(&mergePrompt, "prompt", true, "Confirm before merging (--prompt=false to skip)")
	smartMergeCmd.Flags().BoolVar(&mergeBackup, "backup", true, "Create a backup branch first")
	replayFlags(smartMergeCmd, &mergeReplay)
	validationFlags(smartMergeCmd, &mergeValidation)
	_ = smartMergeCmd.MarkFlagRequired("branch")

	smartRevertCmd.Flags().StringSliceVar(&revertCommits, "commits", nil, "Explicit commits to revert")
	smartRevertCmd.Flags().StringVar(&revertRange, "range", "", "Range expression selecting commits to revert")
	smartRevertCmd.Flags().IntVar(&revertCount, "count", 0, "Revert the last N commits")
	smartRevertCmd.Flags().BoolVar(&revertApply, "apply", false, "Perform the reverts instead of previewing")
	smartRevertCmd.Flags().BoolVar(&revertPrompt, "prompt", true, "Confirm before reverting (--prompt=false to skip)")
	smartRevertCmd.Flags().BoolVar(&revertBackup, "backup", true, "Create a backup branch first")
	replayFlags(smartRevertCmd, &revertReplay)
	validationFlags(smartRevertCmd, &revertValidation)

	rootCmd.AddCommand(smartRebaseCmd, rebaseSkipMergedCmd, smartMergeCmd, smartRevertCmd)
}
