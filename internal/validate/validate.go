// ABOUTME: Post-step lint/test/build validation hooks
// ABOUTME: Runs user-configured commands after a rewrite completes

// Package validate runs the optional lint/test/build hooks after a
// destructive workflow finishes. Hook commands come from the repository
// defaults file; an enabled hook with no configured command is skipped
// with a notice rather than silently passing.
package validate

import (
	"fmt"
	"io"
	"os/exec"

	"github.com/obra/git-tidy/internal/config"
	"github.com/obra/git-tidy/internal/errs"
)

// Runner executes validation hooks in the repository directory.
type Runner struct {
	Dir string
	Out io.Writer

	// Commands maps hook name to shell command, from config.Defaults.
	LintCommand  string
	TestCommand  string
	BuildCommand string
}

// NewRunner creates a runner wired to the repository defaults.
func NewRunner(dir string, out io.Writer, d config.Defaults) *Runner {
	return &Runner{
		Dir:          dir,
		Out:          out,
		LintCommand:  d.LintCommand,
		TestCommand:  d.TestCommand,
		BuildCommand: d.BuildCommand,
	}
}

// Run executes the enabled hooks in lint, test, build order. The first
// failure stops the run and is returned as a ValidationError.
func (r *Runner) Run(opts config.Validation) error {
	type hook struct {
		name    string
		enabled bool
		command string
	}
	hooks := []hook{
		{"lint", opts.Lint, r.LintCommand},
		{"test", opts.Test, r.TestCommand},
		{"build", opts.Build, r.BuildCommand},
	}

	for _, h := range hooks {
		if !h.enabled {
			continue
		}
		if h.command == "" {
			fmt.Fprintf(r.Out, "No %s_command configured in %s; skipping %s hook\n",
				h.name, config.DefaultsFile, h.name)
			continue
		}
		fmt.Fprintf(r.Out, "Running %s hook: %s\n", h.name, h.command)
		cmd := exec.Command("sh", "-c", h.command)
		cmd.Dir = r.Dir
		cmd.Stdout = r.Out
		cmd.Stderr = r.Out
		if err := cmd.Run(); err != nil {
			return &errs.ValidationError{Step: h.name, Err: err}
		}
	}
	return nil
}
