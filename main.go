// ABOUTME: Entry point for the git-tidy command
// ABOUTME: Handles CLI parsing and delegates to the workflow orchestrator

// Package main provides the CLI interface for git-tidy
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/obra/git-tidy/internal/errs"
	"github.com/obra/git-tidy/internal/tidy"
)

var rootCmd = &cobra.Command{
	Use:   "git-tidy",
	Short: "Reorganize linear commit history without losing its content",
	Long: `git-tidy reorganizes a linear range of commits: it groups commits that
touch similar files, splits multi-file commits into per-file commits,
skips commits whose content already landed on a target branch, and
drives safer chunked, conflict-aware rebase/merge/revert workflows.

Every destructive workflow creates a backup branch first and restores
the original state on failure.

Examples:
  git-tidy group-commits --base origin/main --threshold 0.3 --dry-run
  git-tidy split-commits --base HEAD~5
  git-tidy smart-rebase --base origin/main --chunk-size 5 --max-conflicts 3`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// newTidy builds the orchestrator rooted at the current directory.
func newTidy() (*tidy.Tidy, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return tidy.New(wd, os.Stdout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(errs.ExitCode(err))
	}
}
