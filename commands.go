// ABOUTME: Core history-reorganization subcommands
// ABOUTME: group-commits, split-commits, squash-all and configure-repo

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/obra/git-tidy/internal/config"
	"github.com/obra/git-tidy/internal/git"
	"github.com/obra/git-tidy/internal/repoconfig"
)

var (
	groupBase      string
	groupThreshold float64
	groupDryRun    bool
	groupNoPrompt  bool
)

var groupCmd = &cobra.Command{
	Use:   "group-commits",
	Short: "Reorder and merge commits that change similar files",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.GroupCommits(config.Group{
			Base:      groupBase,
			Threshold: groupThreshold,
			DryRun:    groupDryRun,
			NoPrompt:  groupNoPrompt,
		})
	},
}

var (
	splitBase     string
	splitDryRun   bool
	splitNoPrompt bool
)

var splitCmd = &cobra.Command{
	Use:   "split-commits",
	Short: "Split multi-file commits into one commit per file",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.SplitCommits(config.Split{
			Base:     splitBase,
			DryRun:   splitDryRun,
			NoPrompt: splitNoPrompt,
		})
	},
}

var squashBase string

var squashCmd = &cobra.Command{
	Use:   "squash-all",
	Short: "Print the plan for collapsing the range into one commit",
	RunE: func(_ *cobra.Command, _ []string) error {
		t, err := newTidy()
		if err != nil {
			return err
		}
		return t.SquashAll(squashBase)
	},
}

var (
	configureScope  string
	configurePreset string
	configureDryRun bool
)

var configureCmd = &cobra.Command{
	Use:   "configure-repo",
	Short: "Apply git configuration presets that reduce merge pain",
	RunE: func(_ *cobra.Command, _ []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		// Only the safe preset is implemented; other values are ignored
		// gracefully like unknown presets always were.
		return repoconfig.Apply(git.NewRepository(wd), configureScope, configureDryRun, os.Stdout)
	},
}

func init() {
	groupCmd.Flags().StringVar(&groupBase, "base", "", "Base ref for the commit range (default: auto-selected)")
	groupCmd.Flags().Float64Var(&groupThreshold, "threshold", config.DefaultThreshold, "Similarity threshold in [0,1]")
	groupCmd.Flags().BoolVar(&groupDryRun, "dry-run", false, "Preview the grouping without making changes")
	groupCmd.Flags().BoolVar(&groupNoPrompt, "no-prompt", false, "Skip the confirmation prompt")

	splitCmd.Flags().StringVar(&splitBase, "base", "", "Base ref for the commit range (default: auto-selected)")
	splitCmd.Flags().BoolVar(&splitDryRun, "dry-run", false, "Preview the splitting without making changes")
	splitCmd.Flags().BoolVar(&splitNoPrompt, "no-prompt", false, "Skip the confirmation prompt")

	squashCmd.Flags().StringVar(&squashBase, "base", "", "Base ref for the commit range (default: auto-selected)")

	configureCmd.Flags().StringVar(&configureScope, "scope", "local", "Configuration scope: local or global")
	configureCmd.Flags().StringVar(&configurePreset, "preset", "safe", "Preset to apply (safe)")
	configureCmd.Flags().BoolVar(&configureDryRun, "dry-run", false, "Print planned changes without applying")

	rootCmd.AddCommand(groupCmd, splitCmd, squashCmd, configureCmd)
}
