// ABOUTME: Repository configuration presets that reduce merge pain
// ABOUTME: Applies the safe preset via git config at local or global scope

// Package repoconfig applies static git configuration presets. It is a
// thin collaborator of the core pipeline: it only writes settings through
// the git wrapper.
package repoconfig

import (
	"fmt"
	"io"

	"github.com/obra/git-tidy/internal/git"
)

// Setting is one git configuration key/value pair.
type Setting struct {
	Key   string
	Value string
}

// SafePreset enables rerere, clearer conflict markers, rename detection
// and the merge rebase backend.
var SafePreset = []Setting{
	{"rerere.enabled", "true"},
	{"rerere.autoUpdate", "true"},
	{"merge.conflictStyle", "zdiff3"},
	{"diff.algorithm", "patience"},
	{"diff.indentHeuristic", "true"},
	{"diff.renames", "true"},
	{"merge.renames", "true"},
	{"merge.renameLimit", "32767"},
	{"rebase.backend", "merge"},
	{"rebase.autoStash", "true"},
	{"diff.colorMoved", "zebra"},
	{"color.ui", "auto"},
}

// Apply writes the safe preset at the given scope ("local" or "global").
// With dryRun it only prints the planned changes.
func Apply(repo *git.Repository, scope string, dryRun bool, out io.Writer) error {
	scopeFlag := "--local"
	if scope == "global" {
		scopeFlag = "--global"
	}

	if dryRun {
		fmt.Fprintln(out, "Planned git configuration changes:")
		for _, s := range SafePreset {
			fmt.Fprintf(out, "  git config %s %s %s\n", scopeFlag, s.Key, s.Value)
		}
		return nil
	}

	for _, s := range SafePreset {
		if err := repo.ConfigSet(scopeFlag, s.Key, s.Value); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Applied safe preset (%s scope)\n", scope)
	return nil
}
