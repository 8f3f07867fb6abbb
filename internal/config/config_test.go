// ABOUTME: Tests for workflow option validation and defaults loading
// ABOUTME: Covers bias/threshold/selector checks and the YAML defaults file

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReplay_Validate(t *testing.T) {
	tests := []struct {
		name    string
		replay  Replay
		wantErr string
	}{
		{"defaults", Replay{}, ""},
		{"ours bias", Replay{Bias: BiasOurs}, ""},
		{"theirs bias", Replay{Bias: BiasTheirs}, ""},
		{"bogus bias", Replay{Bias: "left"}, "invalid conflict bias"},
		{"zero means unlimited", Replay{ChunkSize: 0, MaxConflicts: 0}, ""},
		{"negative chunk", Replay{ChunkSize: -1}, "must not be negative"},
		{"negative max conflicts", Replay{MaxConflicts: -3}, "must not be negative"},
		{"positive values", Replay{ChunkSize: 5, MaxConflicts: 3}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.replay.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGroup_Validate(t *testing.T) {
	if err := (Group{Threshold: 0.3}).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if err := (Group{Threshold: -0.1}).Validate(); err == nil {
		t.Error("Negative threshold accepted")
	}
	if err := (Group{Threshold: 1.1}).Validate(); err == nil {
		t.Error("Threshold above 1 accepted")
	}
}

func TestMerge_Validate(t *testing.T) {
	if err := (Merge{}).Validate(); err == nil {
		t.Error("Merge without branch accepted")
	}
	if err := (Merge{Branch: "feature"}).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if err := (Merge{Branch: "feature", Replay: Replay{Bias: "bogus"}}).Validate(); err == nil {
		t.Error("Merge with bogus bias accepted")
	}
}

func TestRevert_Validate(t *testing.T) {
	if err := (Revert{}).Validate(); err == nil {
		t.Error("Revert without selector accepted")
	}
	if err := (Revert{Count: 2}).Validate(); err != nil {
		t.Errorf("Count selector rejected: %v", err)
	}
	if err := (Revert{Range: "HEAD~3..HEAD"}).Validate(); err != nil {
		t.Errorf("Range selector rejected: %v", err)
	}
	if err := (Revert{Commits: []string{"abc"}}).Validate(); err != nil {
		t.Errorf("Commits selector rejected: %v", err)
	}
	if err := (Revert{Count: 2, Range: "HEAD~3..HEAD"}).Validate(); err == nil {
		t.Error("Multiple selectors accepted")
	}
}

func TestValidation_Any(t *testing.T) {
	if (Validation{}).Any() {
		t.Error("Empty validation reports hooks")
	}
	if !(Validation{Test: true}).Any() {
		t.Error("Test hook not reported")
	}
}

func TestLoadDefaults_Missing(t *testing.T) {
	d, err := LoadDefaults(t.TempDir())
	if err != nil {
		t.Fatalf("LoadDefaults failed: %v", err)
	}
	if d.Threshold != nil || d.TestCommand != "" {
		t.Errorf("Missing file produced non-zero defaults: %+v", d)
	}
}

func TestLoadDefaults_Valid(t *testing.T) {
	dir := t.TempDir()
	content := "threshold: 0.5\nchunk_size: 5\ntest_command: go test ./...\n"
	if err := os.WriteFile(filepath.Join(dir, DefaultsFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	d, err := LoadDefaults(dir)
	if err != nil {
		t.Fatalf("LoadDefaults failed: %v", err)
	}
	if d.Threshold == nil || *d.Threshold != 0.5 {
		t.Errorf("Threshold = %v, want 0.5", d.Threshold)
	}
	if d.ChunkSize == nil || *d.ChunkSize != 5 {
		t.Errorf("ChunkSize = %v, want 5", d.ChunkSize)
	}
	if d.TestCommand != "go test ./..." {
		t.Errorf("TestCommand = %q", d.TestCommand)
	}
}

func TestLoadDefaults_Malformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultsFile), []byte("{not yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDefaults(dir); err == nil {
		t.Error("Malformed defaults file accepted")
	}
}

func TestLoadDefaults_ThresholdOutOfRange(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultsFile), []byte("threshold: 1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDefaults(dir); err == nil {
		t.Error("Out-of-range threshold accepted")
	}
}
