// ABOUTME: Commit range resolution against the git repository
// ABOUTME: Base selection, range enumeration and per-commit metadata

package analyze

import (
	"strconv"
	"strings"

	"github.com/obra/git-tidy/internal/errs"
	"github.com/obra/git-tidy/internal/git"
)

// TrunkRefs is the preference order for resolving a merge-base when no
// explicit base ref is given.
var TrunkRefs = []string{"origin/main", "main", "origin/master", "master"}

// fallbackDepth caps how far back the fallback base reaches when no trunk
// ref resolves.
const fallbackDepth = 10

// Resolver turns refs into fully populated commit ranges.
type Resolver struct {
	Repo *git.Repository
}

// NewResolver creates a resolver for the given repository.
func NewResolver(repo *git.Repository) *Resolver {
	return &Resolver{Repo: repo}
}

// SelectBase picks a base ref for the current branch: the first trunk ref
// that shares history with HEAD, or HEAD~N over at most the last
// fallbackDepth commits when none does (e.g. on trunk itself or in a
// repository with no trunk remote).
func (r *Resolver) SelectBase() (string, error) {
	head, err := r.Repo.Head()
	if err != nil {
		return "", err
	}

	current, _ := r.Repo.CurrentBranch()
	onTrunk := current == "main" || current == "master" || current == ""

	if !onTrunk {
		for _, trunk := range TrunkRefs {
			mb, err := r.Repo.MergeBase("HEAD", trunk)
			if err != nil || mb == "" {
				continue
			}
			// A merge-base equal to HEAD means we are effectively on
			// trunk; the fallback handles that.
			if mb != head {
				return mb, nil
			}
		}
	}

	count, err := r.Repo.CommitCount("HEAD")
	if err != nil {
		return "HEAD", nil
	}
	depth := count
	if depth > fallbackDepth {
		depth = fallbackDepth
	}
	if depth <= 1 {
		return "HEAD", nil
	}
	return "HEAD~" + strconv.Itoa(depth-1), nil
}

// Resolve enumerates base..head (oldest first) and loads each commit's
// message, changed-file set and patch id. An empty or unresolvable range
// is a RangeError, not a degenerate success.
func (r *Resolver) Resolve(base, head string) (*Range, error) {
	if head == "" {
		head = "HEAD"
	}
	if base == "" {
		selected, err := r.SelectBase()
		if err != nil {
			return nil, &errs.RangeError{Base: base, Head: head, Reason: err.Error()}
		}
		base = selected
	}

	if !r.Repo.RefExists(base) {
		return nil, &errs.RangeError{Base: base, Head: head, Reason: "base ref does not resolve"}
	}

	out, err := r.Repo.Output("log", base+".."+head, "--pretty=format:%H", "--reverse")
	if err != nil {
		return nil, &errs.RangeError{Base: base, Head: head, Reason: err.Error()}
	}
	if out == "" {
		return nil, &errs.RangeError{Base: base, Head: head, Reason: "range contains no commits"}
	}

	shas := strings.Split(out, "\n")
	commits := make([]Commit, 0, len(shas))
	for i, sha := range shas {
		sha = strings.TrimSpace(sha)
		if sha == "" {
			continue
		}
		commit, err := r.loadCommit(sha, i)
		if err != nil {
			return nil, err
		}
		commits = append(commits, commit)
	}

	return &Range{Base: base, Head: head, Commits: commits}, nil
}

// ExistingPatchIDs collects the patch ids of every commit on the target
// range, used as the dedup reference set.
func (r *Resolver) ExistingPatchIDs(rangeExpr string) (map[string]bool, error) {
	out, err := r.Repo.Output("log", rangeExpr, "--pretty=format:%H")
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool)
	if out == "" {
		return ids, nil
	}
	for _, sha := range strings.Split(out, "\n") {
		sha = strings.TrimSpace(sha)
		if sha == "" {
			continue
		}
		id, err := r.Repo.PatchID(sha)
		if err != nil {
			return nil, err
		}
		if id != "" {
			ids[id] = true
		}
	}
	return ids, nil
}

func (r *Resolver) loadCommit(sha string, index int) (Commit, error) {
	message, err := r.Repo.Message(sha)
	if err != nil {
		return Commit{}, err
	}
	files, err := r.Repo.ChangedFiles(sha)
	if err != nil {
		return Commit{}, err
	}
	patchID, err := r.Repo.PatchID(sha)
	if err != nil {
		return Commit{}, err
	}

	fileSet := make(map[string]bool, len(files))
	for _, f := range files {
		fileSet[f] = true
	}

	subject := message
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		subject = message[:i]
	}

	return Commit{
		SHA:     sha,
		Subject: strings.TrimSpace(subject),
		Message: message,
		Files:   fileSet,
		Index:   index,
		PatchID: patchID,
	}, nil
}
