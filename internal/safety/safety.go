// ABOUTME: Backup creation, rollback and confirmation gating
// ABOUTME: Ensures every destructive workflow is recoverable

// Package safety wraps destructive workflows with backup branches, clean
// starting-state checks and an interactive confirmation gate.
package safety

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/obra/git-tidy/internal/errs"
	"github.com/obra/git-tidy/internal/git"
)

// Backup records the pre-operation state of the repository. It is created
// before the first destructive instruction and never mutated afterwards.
// The backup branch is retained even on success; only the user deletes it.
type Backup struct {
	Branch         string
	OriginalBranch string
	OriginalHead   string
	CreatedAt      time.Time
}

// Manager creates and restores backups for one repository.
type Manager struct {
	Repo *git.Repository
	Out  io.Writer
}

// NewManager creates a safety manager writing progress to out.
func NewManager(repo *git.Repository, out io.Writer) *Manager {
	return &Manager{Repo: repo, Out: out}
}

// Create snapshots HEAD into a backup branch named from the shortened
// head id and a timestamp. Failure here is a BackupError: nothing
// destructive has happened yet and nothing needs rollback.
func (m *Manager) Create() (*Backup, error) {
	branch, err := m.Repo.CurrentBranch()
	if err != nil {
		return nil, &errs.BackupError{Err: err}
	}
	head, err := m.Repo.Head()
	if err != nil {
		return nil, &errs.BackupError{Err: err}
	}

	now := time.Now()
	name := fmt.Sprintf("backup-%s-%s", head[:8], now.Format("20060102-150405"))
	if err := m.Repo.CreateBranch(name, "HEAD"); err != nil {
		return nil, &errs.BackupError{Err: err}
	}

	fmt.Fprintf(m.Out, "Created backup branch: %s\n", name)
	return &Backup{
		Branch:         name,
		OriginalBranch: branch,
		OriginalHead:   head,
		CreatedAt:      now,
	}, nil
}

// Restore returns the repository to the recorded pre-operation state:
// aborts any suspended rebase or cherry-pick, then hard-resets the
// original branch to the original head. The backup branch stays in place
// for manual inspection.
func (m *Manager) Restore(b *Backup) error {
	if b == nil {
		return nil
	}
	fmt.Fprintf(m.Out, "Restoring original state from %s...\n", b.OriginalHead[:8])

	if m.Repo.RebaseInProgress() {
		_ = m.Repo.Run("rebase", "--abort")
	}
	_ = m.Repo.Run("cherry-pick", "--abort")
	_ = m.Repo.Run("merge", "--abort")

	if b.OriginalBranch != "" {
		_ = m.Repo.Run("switch", "--force", b.OriginalBranch)
	}
	if err := m.Repo.ResetHard(b.OriginalHead); err != nil {
		return fmt.Errorf("rollback failed, recover manually from branch %s: %w", b.Branch, err)
	}
	fmt.Fprintf(m.Out, "Restored %s to %s (backup branch %s retained)\n",
		b.OriginalBranch, b.OriginalHead[:8], b.Branch)
	return nil
}

// EnsureClean fails when the working tree or index has local changes.
// Destructive workflows require a clean starting state as a hard
// precondition, not a best-effort assumption.
func (m *Manager) EnsureClean() error {
	status, err := m.Repo.Status()
	if err != nil {
		return err
	}
	if strings.TrimSpace(status) != "" {
		return fmt.Errorf("%w: commit or stash these changes first:\n%s",
			errs.ErrDirtyWorktree, status)
	}
	return nil
}

// Confirm asks the user to approve a destructive operation. A declined
// prompt returns ErrUserAbort; skip bypasses the gate entirely
// (--no-prompt). The prompt is a blocking read.
func Confirm(title string, skip bool) error {
	if skip {
		return nil
	}
	proceed := false
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Proceed").
		Negative("Cancel").
		Value(&proceed).
		Run()
	if err != nil {
		return fmt.Errorf("confirmation prompt failed (use --no-prompt for scripted runs): %w", err)
	}
	if !proceed {
		return errs.ErrUserAbort
	}
	return nil
}

// Preflight checks that the repository is ready for a destructive
// workflow: refs fetched, tree clean, and the head commit not marked WIP.
type Preflight struct {
	AllowDirty bool
	AllowWIP   bool
}

// Check runs the preflight against the repository and reports the
// behind/ahead counts for base...branch on success.
func (m *Manager) Check(base, branch string, opts Preflight) (string, error) {
	_ = m.Repo.Fetch()

	if !opts.AllowDirty {
		if err := m.EnsureClean(); err != nil {
			return "", err
		}
	}

	if !opts.AllowWIP {
		subject, err := m.Repo.Output("show", "-s", "--pretty=%s", "HEAD")
		if err == nil {
			lower := strings.ToLower(subject)
			if strings.HasPrefix(lower, "wip") || strings.Contains(subject, "WIP") {
				return "", fmt.Errorf("head commit looks like WIP (%q); use --allow-wip to proceed", subject)
			}
		}
	}

	counts, err := m.Repo.AheadBehind(base, branch)
	if err != nil {
		return "", err
	}
	return counts, nil
}
