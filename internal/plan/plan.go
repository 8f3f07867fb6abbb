// ABOUTME: Rewrite instruction planning for history reorganization
// ABOUTME: Builds keep/squash/split sequences and rebase todo lists

// Package plan translates similarity groups and split requests into the
// ordered rewrite instruction sequence handed to the rebase executor.
package plan

import (
	"fmt"
	"strings"

	"github.com/obra/git-tidy/internal/analyze"
)

// Action is the kind of rewrite applied to one commit.
type Action int

const (
	// Keep replays the commit as-is.
	Keep Action = iota
	// SquashIntoPrevious folds the commit into the one before it,
	// concatenating messages.
	SquashIntoPrevious
	// SplitPerFile replays only one file of the commit as its own commit.
	SplitPerFile
)

func (a Action) String() string {
	switch a {
	case Keep:
		return "keep"
	case SquashIntoPrevious:
		return "squash"
	case SplitPerFile:
		return "split"
	default:
		return "unknown"
	}
}

// Instruction is one step of a rewrite plan.
type Instruction struct {
	Action Action
	SHA    string
	// File names the single path carried by a SplitPerFile step.
	File string
	// Message is the commit message the resulting commit should carry.
	Message string
	// AllowEmpty marks a changeless commit that must be preserved.
	AllowEmpty bool
}

// Plan is an ordered rewrite instruction sequence rooted at a base commit.
type Plan struct {
	Base         string
	Instructions []Instruction
}

// SHAs returns the distinct source commits of the plan in order.
func (p Plan) SHAs() []string {
	var shas []string
	seen := make(map[string]bool)
	for _, in := range p.Instructions {
		if !seen[in.SHA] {
			seen[in.SHA] = true
			shas = append(shas, in.SHA)
		}
	}
	return shas
}

// JoinMessages concatenates commit messages for a squash, separated by
// blank lines. Every message survives; nothing is silently dropped.
func JoinMessages(messages []string) string {
	trimmed := make([]string, 0, len(messages))
	for _, m := range messages {
		if m = strings.TrimSpace(m); m != "" {
			trimmed = append(trimmed, m)
		}
	}
	return strings.Join(trimmed, "\n\n")
}

// BuildGroupPlan turns similarity groups into a keep/squash sequence: the
// first member of each group is kept, every later member is squashed into
// it. Each instruction carries its source commit's own message; the engine
// concatenates them when the squash todo executes.
func BuildGroupPlan(base string, groups []analyze.Group) Plan {
	p := Plan{Base: base}
	for _, g := range groups {
		for i, m := range g.Members {
			action := Keep
			if i > 0 {
				action = SquashIntoPrevious
			}
			p.Instructions = append(p.Instructions, Instruction{
				Action:  action,
				SHA:     m.SHA,
				Message: m.Message,
			})
		}
	}
	return p
}

// SplitMessage is the message given to a per-file fragment commit. The
// original message is preserved in full below the fragment header.
func SplitMessage(file, original string) string {
	return fmt.Sprintf("split off %s\n\n%s", file, strings.TrimSpace(original))
}

// BuildSplitPlan expands each commit into one SplitPerFile instruction per
// changed file, in lexicographic file order, preserving the commit's
// position in the sequence. Single-file commits are kept unchanged and
// changeless commits are preserved as empty commits.
func BuildSplitPlan(base string, commits []analyze.Commit) Plan {
	p := Plan{Base: base}
	for _, c := range commits {
		files := c.SortedFiles()
		switch {
		case len(files) == 0:
			p.Instructions = append(p.Instructions, Instruction{
				Action:     Keep,
				SHA:        c.SHA,
				Message:    c.Message,
				AllowEmpty: true,
			})
		case len(files) == 1:
			p.Instructions = append(p.Instructions, Instruction{
				Action:  Keep,
				SHA:     c.SHA,
				File:    files[0],
				Message: c.Message,
			})
		default:
			for _, f := range files {
				p.Instructions = append(p.Instructions, Instruction{
					Action:  SplitPerFile,
					SHA:     c.SHA,
					File:    f,
					Message: SplitMessage(f, c.Message),
				})
			}
		}
	}
	return p
}

// BuildSquashPlan collapses the whole range into a single keep followed by
// squashes. The squash-all workflow only emits this plan as guidance; it
// never executes it destructively.
func BuildSquashPlan(base string, commits []analyze.Commit) Plan {
	p := Plan{Base: base}
	messages := make([]string, 0, len(commits))
	for _, c := range commits {
		messages = append(messages, c.Message)
	}
	joined := JoinMessages(messages)
	for i, c := range commits {
		action := Keep
		if i > 0 {
			action = SquashIntoPrevious
		}
		p.Instructions = append(p.Instructions, Instruction{
			Action:  action,
			SHA:     c.SHA,
			Message: joined,
		})
	}
	return p
}

// RenderTodo renders groups as a rebase todo list, with a comment
// separating each group after the first. The first member of a group is
// picked; every later member is squashed into it, which makes the engine
// concatenate their messages.
func RenderTodo(groups []analyze.Group) string {
	var lines []string
	for i, g := range groups {
		if i > 0 {
			lines = append(lines, fmt.Sprintf("# Group %d: %s", i+1, analyze.DescribeGroup(g)))
		}
		for j, c := range g.Members {
			action := "pick"
			if j > 0 {
				action = "squash"
			}
			lines = append(lines, fmt.Sprintf("%s %s %s", action, c.ShortSHA(), c.Subject))
		}
	}
	return strings.Join(lines, "\n")
}

// Describe renders a human-readable plan summary for dry runs.
func Describe(p Plan) string {
	var b strings.Builder
	for _, in := range p.Instructions {
		short := in.SHA
		if len(short) > 8 {
			short = short[:8]
		}
		switch in.Action {
		case SplitPerFile:
			fmt.Fprintf(&b, "  %s %s  %s\n", in.Action, short, in.File)
		default:
			subject := in.Message
			if i := strings.IndexByte(subject, '\n'); i >= 0 {
				subject = subject[:i]
			}
			fmt.Fprintf(&b, "  %s  %s %s\n", in.Action, short, subject)
		}
	}
	return b.String()
}
