// ABOUTME: Tests for backup creation, rollback and preflight checks
// ABOUTME: Uses real repositories to verify state restoration is complete

package safety

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/obra/git-tidy/internal/errs"
	"github.com/obra/git-tidy/internal/git"
	"github.com/obra/git-tidy/internal/testutils"
)

func newManager(t *testing.T) (*testutils.TestRepo, *Manager, *bytes.Buffer) {
	t.Helper()
	repo := testutils.NewTestRepo(t)
	repo.WriteFile("base.txt", "base\n")
	repo.Commit("Initial commit")
	var out bytes.Buffer
	return repo, NewManager(git.NewRepository(repo.Dir), &out), &out
}

func TestCreate_BackupBranchAtHead(t *testing.T) {
	repo, m, out := newManager(t)
	head := repo.Head()

	b, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	wantPrefix := "backup-" + head[:8] + "-"
	if !strings.HasPrefix(b.Branch, wantPrefix) {
		t.Errorf("Backup branch %q missing prefix %q", b.Branch, wantPrefix)
	}
	if !repo.BranchExists(b.Branch) {
		t.Errorf("Backup branch %s does not exist", b.Branch)
	}
	if b.OriginalBranch != "main" || b.OriginalHead != head {
		t.Errorf("Backup records %+v, want main @ %s", b, head[:8])
	}
	if !strings.Contains(out.String(), b.Branch) {
		t.Errorf("Backup creation not announced: %s", out.String())
	}
	if got := repo.GitOutput("rev-parse", b.Branch); got != head {
		t.Errorf("Backup branch points at %s, want %s", got[:8], head[:8])
	}
}

func TestRestore_RollsBackCommitsAndTree(t *testing.T) {
	repo, m, _ := newManager(t)

	b, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Wreck the branch: extra commits plus uncommitted noise.
	repo.CommitFiles("Unwanted commit", map[string]string{"junk.txt": "junk\n"})
	repo.WriteFile("base.txt", "scribbled over\n")

	if err := m.Restore(b); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if head := repo.Head(); head != b.OriginalHead {
		t.Errorf("HEAD = %s, want %s", head[:8], b.OriginalHead[:8])
	}
	if branch := repo.CurrentBranch(); branch != "main" {
		t.Errorf("On branch %q, want main", branch)
	}
	if status := repo.Status(); status != "" {
		t.Errorf("Working tree not clean after restore:\n%s", status)
	}
	if repo.ReadFile("base.txt") != "base\n" {
		t.Error("File content not restored")
	}
	if !repo.BranchExists(b.Branch) {
		t.Error("Backup branch was deleted by restore")
	}
}

func TestRestore_AbortsSuspendedCherryPick(t *testing.T) {
	repo, m, _ := newManager(t)

	repo.CheckoutNew("side", "main")
	conflicting := repo.CommitFiles("Side change", map[string]string{"base.txt": "side version\n"})
	repo.Checkout("main")

	b, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	repo.CommitFiles("Main change", map[string]string{"base.txt": "main version\n"})

	r := git.NewRepository(repo.Dir)
	if err := r.Run("cherry-pick", conflicting); err == nil {
		t.Fatal("Expected cherry-pick conflict")
	}

	if err := m.Restore(b); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if head := repo.Head(); head != b.OriginalHead {
		t.Errorf("HEAD = %s, want %s", head[:8], b.OriginalHead[:8])
	}
	if status := repo.Status(); status != "" {
		t.Errorf("Working tree not clean after restore:\n%s", status)
	}
}

func TestRestore_NilBackupIsNoop(t *testing.T) {
	_, m, _ := newManager(t)
	if err := m.Restore(nil); err != nil {
		t.Errorf("Restore(nil) = %v", err)
	}
}

func TestEnsureClean(t *testing.T) {
	repo, m, _ := newManager(t)

	if err := m.EnsureClean(); err != nil {
		t.Errorf("Clean tree rejected: %v", err)
	}

	repo.WriteFile("dirty.txt", "dirty\n")
	err := m.EnsureClean()
	if !errors.Is(err, errs.ErrDirtyWorktree) {
		t.Errorf("EnsureClean = %v, want ErrDirtyWorktree", err)
	}
}

func TestConfirm_SkipBypassesPrompt(t *testing.T) {
	if err := Confirm("Proceed with rewrite?", true); err != nil {
		t.Errorf("Confirm with skip = %v", err)
	}
}

func TestCheck_RejectsWIPHead(t *testing.T) {
	repo, m, _ := newManager(t)
	base := repo.Head()
	repo.CommitFiles("WIP: half-done thing", map[string]string{"a.txt": "a\n"})

	_, err := m.Check(base, "HEAD", Preflight{})
	if err == nil || !strings.Contains(err.Error(), "WIP") {
		t.Errorf("Check = %v, want WIP rejection", err)
	}

	counts, err := m.Check(base, "HEAD", Preflight{AllowWIP: true})
	if err != nil {
		t.Fatalf("Check with AllowWIP failed: %v", err)
	}
	if counts != "0\t1" {
		t.Errorf("Counts = %q, want 0\\t1", counts)
	}
}

func TestCheck_RejectsDirtyTreeUnlessAllowed(t *testing.T) {
	repo, m, _ := newManager(t)
	base := repo.Head()
	repo.CommitFiles("Real work", map[string]string{"a.txt": "a\n"})
	repo.WriteFile("dirty.txt", "dirty\n")

	if _, err := m.Check(base, "HEAD", Preflight{}); !errors.Is(err, errs.ErrDirtyWorktree) {
		t.Errorf("Check = %v, want ErrDirtyWorktree", err)
	}
	if _, err := m.Check(base, "HEAD", Preflight{AllowDirty: true}); err != nil {
		t.Errorf("Check with AllowDirty = %v", err)
	}
}
