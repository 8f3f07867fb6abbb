// ABOUTME: Session snapshots for resume and inspection after failed runs
// ABOUTME: YAML persistence under the repository's .git directory

// Package checkpoint persists the state of an in-flight workflow so a
// paused or failed run can be inspected and resumed. A session is created
// at orchestration start, updated per chunk, discarded on success and
// retained on failure.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/obra/git-tidy/internal/git"
)

// Session is the snapshot of one workflow run.
type Session struct {
	ID        string    `yaml:"id"`
	Workflow  string    `yaml:"workflow"`
	CreatedAt time.Time `yaml:"created_at"`
	Branch    string    `yaml:"branch"`
	Base      string    `yaml:"base"`
	Head      string    `yaml:"head"`
	Backup    string    `yaml:"backup_branch,omitempty"`
	// Commits is the full ordered list of commits in the plan.
	Commits []string `yaml:"commits,omitempty"`
	// Cursor is the index of the next commit to replay.
	Cursor int `yaml:"cursor"`
	// Conflicts is the running conflict counter.
	Conflicts int `yaml:"conflicts"`
}

// New creates a session for a workflow about to start.
func New(workflow, branch, base, head string, commits []string) *Session {
	return &Session{
		ID:        uuid.New().String()[:8],
		Workflow:  workflow,
		CreatedAt: time.Now(),
		Branch:    branch,
		Base:      base,
		Head:      head,
		Commits:   commits,
	}
}

const fileName = "checkpoint.yml"

func path(repo *git.Repository) (string, error) {
	gitDir, err := repo.GitDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(gitDir, "git-tidy", fileName), nil
}

// Save writes the session snapshot, replacing any previous one.
func Save(repo *git.Repository, s *Session) error {
	p, err := path(repo)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o644)
}

// Load reads the current session snapshot. A missing snapshot is an error
// naming the expected location.
func Load(repo *git.Repository) (*Session, error) {
	p, err := path(repo)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no checkpoint found at %s", p)
		}
		return nil, err
	}
	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("corrupt checkpoint %s: %w", p, err)
	}
	return &s, nil
}

// Discard removes the session snapshot, if any.
func Discard(repo *git.Repository) error {
	p, err := path(repo)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
