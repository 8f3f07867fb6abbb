// ABOUTME: Commit range analysis for history reorganization
// ABOUTME: Jaccard file similarity, greedy grouping and patch-id dedup

// Package analyze resolves commit ranges and partitions them into
// similarity groups used to plan history rewrites. All functions in this
// file are pure; repository access lives in resolver.go.
package analyze

import (
	"fmt"
	"sort"
	"strings"
)

// Commit is an immutable record of one commit inside a resolved range.
type Commit struct {
	SHA     string
	Subject string
	Message string
	// Files is the set of paths changed relative to the first parent.
	Files map[string]bool
	// Index is the commit's chronological position within the range,
	// oldest first.
	Index int
	// PatchID is a content fingerprint stable across rewrites; empty
	// for changeless commits.
	PatchID string
}

// SortedFiles returns the changed paths in lexicographic order.
func (c Commit) SortedFiles() []string {
	files := make([]string, 0, len(c.Files))
	for f := range c.Files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// ShortSHA returns an abbreviated commit id for display.
func (c Commit) ShortSHA() string {
	if len(c.SHA) > 8 {
		return c.SHA[:8]
	}
	return c.SHA
}

// Range is a non-empty, oldest-first sequence of commits between two refs.
type Range struct {
	Base    string
	Head    string
	Commits []Commit
}

// Group is an ordered set of commits judged similar enough to sit together.
type Group struct {
	Members []Commit
	// Files is the union of all members' changed files.
	Files map[string]bool
}

// Similarity computes the Jaccard similarity |A∩B| / |A∪B| of two file
// sets. Two empty sets score 0: changeless commits carry no signal and
// must not be treated as maximally similar.
func Similarity(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for f := range a {
		if b[f] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// ClampThreshold brings a similarity threshold into [0,1]. Configuration
// validation rejects out-of-range values up front; this is the documented
// behavior for direct callers.
func ClampThreshold(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// GroupCommits partitions commits into order-preserving similarity groups
// with a single greedy pass. Each unassigned commit seeds a group, then
// later unassigned commits join it when their similarity to the group's
// growing file union meets the threshold. Deterministic for a given
// (commits, threshold) pair: iteration is strictly by chronological index.
func GroupCommits(commits []Commit, threshold float64) []Group {
	if len(commits) == 0 {
		return nil
	}
	threshold = ClampThreshold(threshold)

	groups := make([]Group, 0, len(commits))
	used := make([]bool, len(commits))

	for i := range commits {
		if used[i] {
			continue
		}
		group := Group{
			Members: []Commit{commits[i]},
			Files:   make(map[string]bool, len(commits[i].Files)),
		}
		for f := range commits[i].Files {
			group.Files[f] = true
		}
		used[i] = true

		for j := i + 1; j < len(commits); j++ {
			if used[j] {
				continue
			}
			if Similarity(commits[j].Files, group.Files) >= threshold {
				group.Members = append(group.Members, commits[j])
				for f := range commits[j].Files {
					group.Files[f] = true
				}
				used[j] = true
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// DescribeGroup summarizes a group's file footprint for display.
func DescribeGroup(g Group) string {
	files := make([]string, 0, len(g.Files))
	for f := range g.Files {
		files = append(files, f)
	}
	sort.Strings(files)

	if len(files) <= 3 {
		return fmt.Sprintf("Files: %s", strings.Join(files, ", "))
	}
	return fmt.Sprintf("Files: %s and %d more", strings.Join(files[:3], ", "), len(files)-3)
}

// DedupByPatchID filters out candidates whose content fingerprint already
// exists in the target set, preserving the relative order of the rest.
// Commits with an empty patch id (no content) are never filtered.
func DedupByPatchID(candidates []Commit, existing map[string]bool) []Commit {
	kept := make([]Commit, 0, len(candidates))
	for _, c := range candidates {
		if c.PatchID != "" && existing[c.PatchID] {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}
