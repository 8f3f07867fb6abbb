// ABOUTME: Tests for session checkpoint persistence
// ABOUTME: Save/load roundtrip and discard semantics in a real repository

package checkpoint

import (
	"strings"
	"testing"

	"github.com/obra/git-tidy/internal/git"
	"github.com/obra/git-tidy/internal/testutils"
)

func TestSession_Roundtrip(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	repo.WriteFile("base.txt", "base\n")
	repo.Commit("Initial commit")
	r := git.NewRepository(repo.Dir)

	sess := New("smart-rebase", "feature", "origin/main", "abc123", []string{"c1", "c2", "c3"})
	sess.Backup = "backup-abc12345-20260826-120000"
	sess.Cursor = 2
	sess.Conflicts = 1

	if len(sess.ID) != 8 {
		t.Errorf("Session id %q is not 8 characters", sess.ID)
	}

	if err := Save(r, sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(r)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ID != sess.ID || loaded.Workflow != "smart-rebase" {
		t.Errorf("Loaded %+v, want id %s workflow smart-rebase", loaded, sess.ID)
	}
	if loaded.Branch != "feature" || loaded.Base != "origin/main" || loaded.Head != "abc123" {
		t.Errorf("Refs not preserved: %+v", loaded)
	}
	if loaded.Backup != sess.Backup {
		t.Errorf("Backup = %q, want %q", loaded.Backup, sess.Backup)
	}
	if loaded.Cursor != 2 || loaded.Conflicts != 1 {
		t.Errorf("Progress not preserved: cursor=%d conflicts=%d", loaded.Cursor, loaded.Conflicts)
	}
	if len(loaded.Commits) != 3 || loaded.Commits[0] != "c1" {
		t.Errorf("Commits not preserved: %v", loaded.Commits)
	}
}

func TestSave_ReplacesPrevious(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	repo.WriteFile("base.txt", "base\n")
	repo.Commit("Initial commit")
	r := git.NewRepository(repo.Dir)

	first := New("split-commits", "main", "HEAD~1", "abc", nil)
	if err := Save(r, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	second := New("group-commits", "main", "HEAD~2", "def", nil)
	if err := Save(r, second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(r)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Workflow != "group-commits" {
		t.Errorf("Loaded workflow %q, want the latest snapshot", loaded.Workflow)
	}
}

func TestDiscard(t *testing.T) {
	repo := testutils.NewTestRepo(t)
	repo.WriteFile("base.txt", "base\n")
	repo.Commit("Initial commit")
	r := git.NewRepository(repo.Dir)

	if err := Discard(r); err != nil {
		t.Fatalf("Discard with no checkpoint failed: %v", err)
	}

	if err := Save(r, New("smart-rebase", "main", "HEAD~1", "abc", nil)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := Discard(r); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}

	_, err := Load(r)
	if err == nil || !strings.Contains(err.Error(), "no checkpoint") {
		t.Errorf("Load after discard = %v, want missing-checkpoint error", err)
	}
}
