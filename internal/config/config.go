// ABOUTME: Workflow option structures and validation
// ABOUTME: Every recognized flag is an explicit field, checked once at entry

// Package config defines the option structs for each git-tidy workflow.
// Options are validated once when a command starts; the pipeline stages
// never see an invalid configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConflictBias names the side preferred when resolving conflicting hunks.
type ConflictBias string

const (
	BiasNone   ConflictBias = "none"
	BiasOurs   ConflictBias = "ours"
	BiasTheirs ConflictBias = "theirs"
)

// DefaultThreshold is the grouping similarity threshold when none is given.
const DefaultThreshold = 0.3

// Replay controls how commits are replayed and how conflicts are handled.
type Replay struct {
	Bias               ConflictBias
	ChunkSize          int // 0 means all at once
	MaxConflicts       int // 0 means unlimited
	AutoResolveTrivial bool
	RenameDetect       bool
	OptimizeMerge      bool
}

// Validate rejects nonsensical replay settings.
func (r Replay) Validate() error {
	switch r.Bias {
	case BiasNone, BiasOurs, BiasTheirs, "":
	default:
		return fmt.Errorf("invalid conflict bias %q (want ours, theirs or none)", r.Bias)
	}
	if r.ChunkSize < 0 {
		return fmt.Errorf("invalid chunk size %d: must not be negative", r.ChunkSize)
	}
	if r.MaxConflicts < 0 {
		return fmt.Errorf("invalid max conflicts %d: must not be negative", r.MaxConflicts)
	}
	return nil
}

// Validation selects the post-step hooks to run.
type Validation struct {
	Lint  bool
	Test  bool
	Build bool
}

// Any reports whether at least one hook is enabled.
func (v Validation) Any() bool { return v.Lint || v.Test || v.Build }

// Group configures the group-commits workflow.
type Group struct {
	Base      string
	Threshold float64
	DryRun    bool
	NoPrompt  bool
}

// Validate rejects an out-of-range threshold.
func (g Group) Validate() error {
	if g.Threshold < 0 || g.Threshold > 1 {
		return fmt.Errorf("invalid threshold %g: must be within [0,1]", g.Threshold)
	}
	return nil
}

// Split configures the split-commits workflow.
type Split struct {
	Base     string
	DryRun   bool
	NoPrompt bool
}

// SmartRebase configures the orchestrated rebase workflow.
type SmartRebase struct {
	Branch     string
	Base       string
	DryRun     bool
	Prompt     bool
	Backup     bool
	SkipMerged bool
	Replay     Replay
	Validation Validation
}

// SkipMergedRebase configures the rebase-skip-merged workflow.
type SkipMergedRebase struct {
	Base       string
	Branch     string
	DryRun     bool
	Prompt     bool
	Backup     bool
	Replay     Replay
	Validation Validation
}

// Merge configures the smart-merge workflow.
type Merge struct {
	Branch     string
	Into       string
	Apply      bool
	Prompt     bool
	Backup     bool
	Replay     Replay
	Validation Validation
}

// Validate requires a source branch.
func (m Merge) Validate() error {
	if m.Branch == "" {
		return fmt.Errorf("missing source branch for smart-merge")
	}
	return m.Replay.Validate()
}

// Revert configures the smart-revert workflow.
type Revert struct {
	Commits    []string
	Range      string
	Count      int
	Apply      bool
	Prompt     bool
	Backup     bool
	Replay     Replay
	Validation Validation
}

// Validate requires exactly one commit selector.
func (r Revert) Validate() error {
	selectors := 0
	if len(r.Commits) > 0 {
		selectors++
	}
	if r.Range != "" {
		selectors++
	}
	if r.Count > 0 {
		selectors++
	}
	if selectors == 0 {
		return fmt.Errorf("smart-revert needs --commits, --range or --count")
	}
	if selectors > 1 {
		return fmt.Errorf("smart-revert selectors are mutually exclusive")
	}
	return r.Replay.Validate()
}

// DefaultsFile is the optional per-repository defaults file name.
const DefaultsFile = ".git-tidy.yml"

// Defaults are repository-level defaults loaded from DefaultsFile.
// Zero values mean "not set"; flags always win over file defaults.
type Defaults struct {
	Threshold    *float64 `yaml:"threshold"`
	ChunkSize    *int     `yaml:"chunk_size"`
	MaxConflicts *int     `yaml:"max_conflicts"`
	LintCommand  string   `yaml:"lint_command"`
	TestCommand  string   `yaml:"test_command"`
	BuildCommand string   `yaml:"build_command"`
}

// LoadDefaults reads DefaultsFile from the repository root. A missing
// file yields zero defaults; a malformed file is an error.
func LoadDefaults(dir string) (Defaults, error) {
	var d Defaults
	data, err := os.ReadFile(filepath.Join(dir, DefaultsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return d, nil
		}
		return d, err
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("invalid %s: %w", DefaultsFile, err)
	}
	if d.Threshold != nil && (*d.Threshold < 0 || *d.Threshold > 1) {
		return d, fmt.Errorf("invalid %s: threshold %g out of range [0,1]", DefaultsFile, *d.Threshold)
	}
	return d, nil
}

// OptimizeMergeSettings are the temporary -c settings applied when a
// workflow runs with optimize-merge enabled.
var OptimizeMergeSettings = []string{
	"rerere.enabled=true",
	"rerere.autoUpdate=true",
	"merge.conflictStyle=zdiff3",
	"diff.algorithm=patience",
	"diff.indentHeuristic=true",
	"diff.renames=true",
	"merge.renames=true",
	"merge.renameLimit=32767",
	"rebase.backend=merge",
	"rebase.autoStash=true",
}
