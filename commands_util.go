// ABOUTME: Utility and recovery subcommands
// ABOUTME: select-base, preflight-check, continue/resolve helpers, checkpoints

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/obra/git-tidy/internal/safety"
)

var selectBaseCmd = &cobra.Command{
	Use:   "select-base",
	Short: "Print the base ref the resolver would choose",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.SelectBase()
	},
}

var (
	preflightBase       string
	preflightBranch     string
	preflightAllowDirty bool
	preflightAllowWIP   bool
)

var preflightCmd = &cobra.Command{
	Use:   "preflight-check",
	Short: "Verify the repository is ready for a destructive workflow",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.Preflight(preflightBase, preflightBranch, safety.Preflight{
			AllowDirty: preflightAllowDirty,
			AllowWIP:   preflightAllowWIP,
		})
	},
}

var autoContinueCmd = &cobra.Command{
	Use:   "auto-continue",
	Short: "Resume a suspended cherry-pick or rebase",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.Exec.AutoContinue()
	},
}

var autoResolveCmd = &cobra.Command{
	Use:   "auto-resolve-trivial",
	Short: "Continue a suspended operation once no unmerged paths remain",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.Exec.AutoResolveTrivial()
	},
}

var rangeDiffCmd = &cobra.Command{
	Use:   "range-diff-report OLD NEW",
	Short: "Show how a rewrite changed a commit range",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.Exec.RangeDiff(args[0], args[1])
	},
}

var (
	rerereImport string
	rerereExport string
)

var rerereShareCmd = &cobra.Command{
	Use:   "rerere-share",
	Short: "Import or export recorded conflict resolutions",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		switch {
		case rerereImport != "" && rerereExport != "":
			return fmt.Errorf("--import and --export are mutually exclusive")
		case rerereImport != "":
			return t.Exec.RerereShare("import", rerereImport)
		case rerereExport != "":
			return t.Exec.RerereShare("export", rerereExport)
		default:
			return fmt.Errorf("specify --import PATH or --export PATH")
		}
	},
}

var checkpointCreateCmd = &cobra.Command{
	Use:   "checkpoint-create",
	Short: "Snapshot the current branch and head for later restore",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.CheckpointCreate()
	},
}

var checkpointRestoreCmd = &cobra.Command{
	Use:   "checkpoint-restore",
	Short: "Return the repository to the last checkpoint",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.CheckpointRestore()
	},
}

var (
	selectRevertsRange  string
	selectRevertsCount  int
	selectRevertsGrep   string
	selectRevertsAuthor string
)

var selectRevertsCmd = &cobra.Command{
	Use:   "select-reverts",
	Short: "List candidate commits to revert",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		shas, err := t.SelectReverts(selectRevertsRange, selectRevertsCount, selectRevertsGrep, selectRevertsAuthor)
		if err != nil {
			return err
		}
		for _, sha := range shas {
			fmt.Fprintln(os.Stdout, sha)
		}
		return nil
	},
}

func init() {
	preflightCmd.Flags().StringVar(&preflightBase, "base", "", "Base ref (default: origin/main)")
	preflightCmd.Flags().StringVar(&preflightBranch, "branch", "", "Branch to check (default: current)")
	preflightCmd.Flags().BoolVar(&preflightAllowDirty, "allow-dirty", false, "Proceed with a dirty working tree")
	preflightCmd.Flags().BoolVar(&preflightAllowWIP, "allow-wip", false, "Proceed with a WIP head commit")

	rerereShareCmd.Flags().StringVar(&rerereImport, "import", "", "Import a shared rerere cache from PATH")
	rerereShareCmd.Flags().StringVar(&rerereExport, "export", "", "Export the local rerere cache to PATH")

	selectRevertsCmd.Flags().StringVar(&selectRevertsRange, "range", "", "Range expression to search")
	selectRevertsCmd.Flags().IntVar(&selectRevertsCount, "count", 0, "Limit to the last N commits")
	selectRevertsCmd.Flags().StringVar(&selectRevertsGrep, "grep", "", "Only commits whose message matches")
	selectRevertsCmd.Flags().StringVar(&selectRevertsAuthor, "author", "", "Only commits by this author")

	rootCmd.AddCommand(selectBaseCmd, preflightCmd, autoContinueCmd, autoResolveCmd,
		rangeDiffCmd, rerereShareCmd, checkpointCreateCmd, checkpointRestoreCmd, selectRevertsCmd)
}
