// ABOUTME: Tests for the safe configuration preset
// ABOUTME: Dry-run listing and local-scope application

package repoconfig

import (
	"bytes"
	"strings"
	"testing"

	"github.com/obra/git-tidy/internal/git"
	"github.com/obra/git-tidy/internal/testutils"
)

func TestApply_DryRunPrintsWithoutWriting(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	r := git.NewRepository(repo.Dir)

	var out bytes.Buffer
	if err := Apply(r, "local", true, &out); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	for _, s := range SafePreset {
		if !strings.Contains(out.String(), s.Key) {
			t.Errorf("Dry run missing %s:\n%s", s.Key, out.String())
		}
	}
	if _, err := r.Output("config", "--local", "rerere.enabled"); err == nil {
		t.Error("Dry run wrote configuration")
	}
}

func TestApply_LocalScope(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	r := git.NewRepository(repo.Dir)

	var out bytes.Buffer
	if err := Apply(r, "local", false, &out); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	checks := map[string]string{
		"rerere.enabled":      "true",
		"merge.conflictStyle": "zdiff3",
		"diff.algorithm":      "patience",
		"rebase.backend":      "merge",
	}
	for key, want := range checks {
		got, err := r.Output("config", "--local", key)
		if err != nil {
			t.Errorf("%s not set: %v", key, err)
			continue
		}
		if got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}
