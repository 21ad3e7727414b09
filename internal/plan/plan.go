// Package plan computes what a scan needs to redo: the files that
// changed between two commits, the files that must be reprocessed as a
// consequence, and the per-file operation the orchestrator should run.
// It never touches the store; it only reads from it and returns a plan
// for the orchestrator to execute.
package plan

import (
	"fmt"

	"github.com/mvp-joe/project-cortex/internal/ir"
	"github.com/mvp-joe/project-cortex/internal/storage"
	"github.com/mvp-joe/project-cortex/internal/walk"
)

// Operation is the action a file needs as part of a scan.
type Operation string

const (
	// OpParse re-parses a file and inserts its rows under the new commit.
	OpParse Operation = "parse"
	// OpDeletePrior marks a file that no longer exists at the new commit:
	// nothing is written for it under the new commit, and its
	// prior-commit rows stay in place.
	OpDeletePrior Operation = "delete-prior"
	// OpKeep leaves a file's existing rows untouched; it neither changed
	// nor was impacted by a change.
	OpKeep Operation = "keep"
)

// Entry is one file's operation within a Plan.
type Entry struct {
	Path string
	Op   Operation
}

// Plan is the set of per-file operations an orchestrator should run to
// bring the store from one commit to the next.
type Plan struct {
	Entries []Entry
}

// DefaultImpactHops is how many reverse-IMPORTS hops a syntactic-only
// plan walks from the dirty set. Semantic-aware plans walk unbounded,
// because a semantic indexer can shift symbol ids across a module
// boundary in ways a single syntactic hop wouldn't reach.
const DefaultImpactHops = 1

// DirtySet is the result of diffing one commit's tracked files against
// another commit's walked files by path and content hash.
type DirtySet struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// All returns every path in the dirty set, added and modified and
// deleted together.
func (d DirtySet) All() []string {
	out := make([]string, 0, len(d.Added)+len(d.Modified)+len(d.Deleted))
	out = append(out, d.Added...)
	out = append(out, d.Modified...)
	out = append(out, d.Deleted...)
	return out
}

// DirtyFiles compares a prior commit's tracked files to a freshly
// walked file list and classifies every path as added, modified, or
// deleted. Unchanged paths are simply absent from the result.
func DirtyFiles(prior []ir.File, current []walk.Entry) DirtySet {
	priorHash := make(map[string]string, len(prior))
	for _, f := range prior {
		priorHash[f.Path] = f.ContentHash
	}

	var dirty DirtySet
	seen := make(map[string]bool, len(current))
	for _, entry := range current {
		seen[entry.Path] = true
		priorH, existed := priorHash[entry.Path]
		switch {
		case !existed:
			dirty.Added = append(dirty.Added, entry.Path)
		case priorH != entry.ContentHash:
			dirty.Modified = append(dirty.Modified, entry.Path)
		}
	}
	for _, f := range prior {
		if !seen[f.Path] {
			dirty.Deleted = append(dirty.Deleted, f.Path)
		}
	}
	return dirty
}

// ImpactedFiles computes the transitive reverse-import closure of the
// dirty set: every file that imports, directly or transitively, a file
// in dirty. hops bounds how many IMPORTS hops are walked; pass <= 0 for
// unbounded (the semantic case).
func ImpactedFiles(reader *storage.Reader, commitID string, dirty []string, hops int) ([]string, error) {
	visited := make(map[string]bool, len(dirty))
	for _, path := range dirty {
		visited[path] = true
	}

	frontier := dirty
	for level := 1; len(frontier) > 0; level++ {
		if hops > 0 && level > hops {
			break
		}
		var next []string
		for _, path := range frontier {
			edges, err := reader.ImportersOf(commitID, path)
			if err != nil {
				return nil, fmt.Errorf("importers of %s: %w", path, err)
			}
			for _, edge := range edges {
				if visited[edge.FileSrc] {
					continue
				}
				visited[edge.FileSrc] = true
				next = append(next, edge.FileSrc)
			}
		}
		frontier = next
	}

	impacted := make([]string, 0, len(visited))
	for path := range visited {
		if !containsString(dirty, path) {
			impacted = append(impacted, path)
		}
	}
	return impacted, nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

// Build assembles a Plan from a prior commit's tracked files and a
// freshly walked current file list. semanticEnabled widens the impact
// closure to unbounded hops, matching the incremental planner's
// semantic-aware rule.
func Build(reader *storage.Reader, priorCommitID string, current []walk.Entry, semanticEnabled bool) (Plan, error) {
	prior, err := reader.FilesAt(priorCommitID)
	if err != nil {
		return Plan{}, fmt.Errorf("load prior commit files: %w", err)
	}

	dirty := DirtyFiles(prior, current)

	hops := DefaultImpactHops
	if semanticEnabled {
		hops = 0
	}
	impacted, err := ImpactedFiles(reader, priorCommitID, dirty.All(), hops)
	if err != nil {
		return Plan{}, fmt.Errorf("compute impacted files: %w", err)
	}

	toParse := make(map[string]bool, len(dirty.All())+len(impacted))
	for _, path := range dirty.All() {
		toParse[path] = true
	}
	for _, path := range impacted {
		toParse[path] = true
	}

	var plan Plan
	for _, path := range dirty.Deleted {
		plan.Entries = append(plan.Entries, Entry{Path: path, Op: OpDeletePrior})
	}
	for _, entry := range current {
		if toParse[entry.Path] {
			plan.Entries = append(plan.Entries, Entry{Path: entry.Path, Op: OpParse})
			continue
		}
		// present at both commits, untouched by this diff: carried
		// forward into the new commit's snapshot without reparsing.
		plan.Entries = append(plan.Entries, Entry{Path: entry.Path, Op: OpKeep})
	}

	return plan, nil
}

// BuildForSameCommit handles the rare crash-recovery case: the prior
// commit and the target commit are the same, so every tracked file's
// existing rows must be deleted atomically before the reparse reinserts
// them, rather than diffed against themselves as if nothing changed.
func BuildForSameCommit(current []walk.Entry) Plan {
	var plan Plan
	for _, entry := range current {
		plan.Entries = append(plan.Entries, Entry{Path: entry.Path, Op: OpParse})
	}
	return plan
}
