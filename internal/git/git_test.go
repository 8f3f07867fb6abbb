// ABOUTME: Tests for the git process-invocation wrapper
// ABOUTME: Command errors, file listing, patch ids and cherry detection

package git

import (
	"errors"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/obra/git-tidy/internal/testutils"
)

func TestRun_FailureCarriesCommandError(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	r := NewRepository(repo.Dir)

	err := r.Run("rev-parse", "no-such-ref^{commit}")
	if err == nil {
		t.Fatal("Expected error for unresolvable ref")
	}

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Expected CommandError, got %T: %v", err, err)
	}
	if cmdErr.ExitCode == 0 {
		t.Errorf("ExitCode = %d, want nonzero", cmdErr.ExitCode)
	}
	if len(cmdErr.Args) == 0 || cmdErr.Args[0] != "rev-parse" {
		t.Errorf("Args = %v", cmdErr.Args)
	}
	if !strings.Contains(cmdErr.Error(), "git rev-parse") {
		t.Errorf("Error message %q missing command", cmdErr.Error())
	}
}

func TestWithConfig_AppliesSettings(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	r := NewRepository(repo.Dir)

	out, err := r.WithConfig("tidy.probe=on").Output("config", "tidy.probe")
	if err != nil {
		t.Fatalf("Output failed: %v", err)
	}
	if out != "on" {
		t.Errorf("config value = %q, want on", out)
	}

	// The original repository is unaffected.
	if _, err := r.Output("config", "tidy.probe"); err == nil {
		t.Error("Setting leaked into the base repository")
	}
}

func TestChangedFiles(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	repo.WriteFile("root.txt", "root\n")
	root := repo.Commit("Initial commit")

	multi := repo.CommitFiles("Touch several", map[string]string{
		"a.txt":     "a\n",
		"dir/b.txt": "b\n",
	})

	r := NewRepository(repo.Dir)

	files, err := r.ChangedFiles(root)
	if err != nil {
		t.Fatalf("ChangedFiles failed: %v", err)
	}
	if !reflect.DeepEqual(files, []string{"root.txt"}) {
		t.Errorf("Root commit files = %v", files)
	}

	files, err = r.ChangedFiles(multi)
	if err != nil {
		t.Fatalf("ChangedFiles failed: %v", err)
	}
	sort.Strings(files)
	if !reflect.DeepEqual(files, []string{"a.txt", "dir/b.txt"}) {
		t.Errorf("Multi-file commit files = %v", files)
	}
}

func TestPatchID_StableAcrossRewrites(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	repo.WriteFile("base.txt", "base\n")
	repo.Commit("Initial commit")

	repo.CheckoutNew("one", "main")
	c1 := repo.CommitFiles("Same change, branch one", map[string]string{"shared.txt": "identical\n"})

	repo.Checkout("main")
	repo.CheckoutNew("two", "main")
	c2 := repo.CommitFiles("Same change, branch two", map[string]string{"shared.txt": "identical\n"})

	r := NewRepository(repo.Dir)
	id1, err := r.PatchID(c1)
	if err != nil {
		t.Fatalf("PatchID failed: %v", err)
	}
	id2, err := r.PatchID(c2)
	if err != nil {
		t.Fatalf("PatchID failed: %v", err)
	}
	if id1 == "" || id1 != id2 {
		t.Errorf("PatchIDs differ for identical content: %q vs %q", id1, id2)
	}
}

func TestPatchID_EmptyForChangelessCommit(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	repo.WriteFile("base.txt", "base\n")
	repo.Commit("Initial commit")
	repo.Git("commit", "--allow-empty", "-m", "Nothing changed")

	r := NewRepository(repo.Dir)
	id, err := r.PatchID(repo.Head())
	if err != nil {
		t.Fatalf("PatchID failed: %v", err)
	}
	if id != "" {
		t.Errorf("PatchID = %q, want empty for changeless commit", id)
	}
}

func TestCherry_FindsUniqueCommits(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	repo.WriteFile("base.txt", "base\n")
	repo.Commit("Initial commit")

	repo.CheckoutNew("feature", "main")
	picked := repo.CommitFiles("Landed change", map[string]string{"landed.txt": "x\n"})
	unique := repo.CommitFiles("Pending change", map[string]string{"pending.txt": "y\n"})

	repo.Checkout("main")
	repo.Git("cherry-pick", picked)

	r := NewRepository(repo.Dir)
	got, err := r.Cherry("main", "feature")
	if err != nil {
		t.Fatalf("Cherry failed: %v", err)
	}
	if !reflect.DeepEqual(got, []string{unique}) {
		t.Errorf("Cherry = %v, want only the pending commit %s", got, unique[:8])
	}
}

func TestRefExists(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	repo.WriteFile("base.txt", "base\n")
	repo.Commit("Initial commit")

	r := NewRepository(repo.Dir)
	if !r.RefExists("HEAD") {
		t.Error("HEAD reported as missing")
	}
	if r.RefExists("no-such-branch") {
		t.Error("Nonexistent ref reported as present")
	}
}

func TestConflictedFiles(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	repo.WriteFile("clash.txt", "original\n")
	repo.Commit("Initial commit")

	repo.CheckoutNew("side", "main")
	repo.CommitFiles("Side change", map[string]string{"clash.txt": "side version\n"})

	repo.Checkout("main")
	repo.CommitFiles("Main change", map[string]string{"clash.txt": "main version\n"})

	r := NewRepository(repo.Dir)
	if err := r.Run("merge", "side"); err == nil {
		t.Fatal("Expected merge conflict")
	}
	defer func() { _ = r.Run("merge", "--abort") }()

	files, err := r.ConflictedFiles()
	if err != nil {
		t.Fatalf("ConflictedFiles failed: %v", err)
	}
	if !reflect.DeepEqual(files, []string{"clash.txt"}) {
		t.Errorf("ConflictedFiles = %v", files)
	}
}

func TestGitDir(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	repo.WriteFile("base.txt", "base\n")
	repo.Commit("Initial commit")

	r := NewRepository(repo.Dir)
	gitDir, err := r.GitDir()
	if err != nil {
		t.Fatalf("GitDir failed: %v", err)
	}
	if !filepath.IsAbs(gitDir) {
		t.Errorf("GitDir %q is not absolute", gitDir)
	}
	if filepath.Base(gitDir) != ".git" {
		t.Errorf("GitDir %q does not end in .git", gitDir)
	}
}

func TestRebaseInProgress_FalseOnIdleRepo(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	repo.WriteFile("base.txt", "base\n")
	repo.Commit("Initial commit")

	r := NewRepository(repo.Dir)
	if r.RebaseInProgress() {
		t.Error("Idle repository reports a rebase in progress")
	}
}

func TestAheadBehind(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	repo.WriteFile("base.txt", "base\n")
	base := repo.Commit("Initial commit")
	repo.CommitFiles("Second", map[string]string{"a.txt": "a\n"})
	repo.CommitFiles("Third", map[string]string{"b.txt": "b\n"})

	r := NewRepository(repo.Dir)
	counts, err := r.AheadBehind(base, "HEAD")
	if err != nil {
		t.Fatalf("AheadBehind failed: %v", err)
	}
	if counts != "0\t2" {
		t.Errorf("AheadBehind = %q, want 0\\t2", counts)
	}
}
