package storage

import (
	"fmt"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

// CopyForward carries an unchanged file's rows from priorCommitID into
// newCommitID without reparsing, recomputing each symbol's id under the
// new commit (ir.ComputeID is a pure function of commit id, file path,
// language, fqn, and sig hash, so a copied symbol gets exactly the id a
// fresh parse would have produced). Edges and occurrences are remapped
// through the resulting id table; an edge endpoint outside the copied
// set keeps its prior-commit id unchanged.
func (w *Writer) CopyForward(reader *Reader, priorCommitID, newCommitID string, paths []string) (WriteResult, error) {
	var result WriteResult
	if len(paths) == 0 {
		return result, nil
	}

	pathSet := make(map[string]bool, len(paths))
	for _, p := range paths {
		pathSet[p] = true
	}

	priorFiles, err := reader.FilesAt(priorCommitID)
	if err != nil {
		return result, fmt.Errorf("load prior files for copy-forward: %w", err)
	}

	var files []ir.File
	var symbols []ir.Symbol
	idRemap := make(map[string]string)

	for _, f := range priorFiles {
		if !pathSet[f.Path] {
			continue
		}
		files = append(files, ir.File{CommitID: newCommitID, Path: f.Path, ContentHash: f.ContentHash, Language: f.Language})

		syms, err := reader.SymbolsInFile(priorCommitID, f.Path)
		if err != nil {
			return result, fmt.Errorf("load symbols of %s for copy-forward: %w", f.Path, err)
		}
		for _, sym := range syms {
			newID := ir.ComputeID(newCommitID, sym.FilePath, sym.Language, sym.FQN, sym.SigHash)
			idRemap[sym.ID] = newID
			newSym := sym
			newSym.ID = newID
			newSym.CommitID = newCommitID
			symbols = append(symbols, newSym)
		}
	}

	remapID := func(id string) string {
		if newID, ok := idRemap[id]; ok {
			return newID
		}
		return id
	}

	var edges []ir.Edge
	seenEdgeKeys := make(map[string]bool)
	for oldID := range idRemap {
		outgoing, err := reader.EdgesFrom(priorCommitID, oldID)
		if err != nil {
			return result, fmt.Errorf("load outgoing edges for copy-forward: %w", err)
		}
		incoming, err := reader.EdgesTo(priorCommitID, oldID)
		if err != nil {
			return result, fmt.Errorf("load incoming edges for copy-forward: %w", err)
		}
		for _, e := range append(outgoing, incoming...) {
			newEdge := e
			newEdge.CommitID = newCommitID
			if newEdge.Src != "" {
				newEdge.Src = remapID(newEdge.Src)
			}
			if newEdge.Dst != "" {
				newEdge.Dst = remapID(newEdge.Dst)
			}
			key := string(newEdge.Type) + "\x00" + newEdge.Src + "\x00" + newEdge.Dst + "\x00" + newEdge.FileSrc + "\x00" + newEdge.FileDst
			if seenEdgeKeys[key] {
				continue
			}
			seenEdgeKeys[key] = true
			edges = append(edges, newEdge)
		}
	}
	for _, f := range priorFiles {
		if !pathSet[f.Path] {
			continue
		}
		fileEdges, err := reader.ImportersOf(priorCommitID, f.Path)
		if err != nil {
			return result, fmt.Errorf("load import edges for copy-forward: %w", err)
		}
		for _, e := range fileEdges {
			if !pathSet[e.FileSrc] {
				continue
			}
			newEdge := e
			newEdge.CommitID = newCommitID
			key := string(newEdge.Type) + "\x00" + newEdge.FileSrc + "\x00" + newEdge.FileDst
			if seenEdgeKeys[key] {
				continue
			}
			seenEdgeKeys[key] = true
			edges = append(edges, newEdge)
		}
	}

	var occurrences []ir.Occurrence
	for oldID, newID := range idRemap {
		occs, err := reader.OccurrencesOf(priorCommitID, oldID)
		if err != nil {
			return result, fmt.Errorf("load occurrences for copy-forward: %w", err)
		}
		for _, o := range occs {
			newOcc := o
			newOcc.CommitID = newCommitID
			newOcc.SymbolID = newID
			occurrences = append(occurrences, newOcc)
		}
	}

	// The commit_snapshot row itself is written by the scan that also
	// writes the freshly parsed files for this commit; copy-forward only
	// adds the untouched files' rows under that already-existing commit.
	n, err := w.writeFileBatch(newCommitID, files)
	if err != nil {
		return result, fmt.Errorf("copy-forward file batch: %w", err)
	}
	result.FilesWritten += n

	n, err = w.writeSymbolBatch(symbols)
	if err != nil {
		return result, fmt.Errorf("copy-forward symbol batch: %w", err)
	}
	result.SymbolsWritten += n

	n, err = w.writeEdgeBatch(edges)
	if err != nil {
		return result, fmt.Errorf("copy-forward edge batch: %w", err)
	}
	result.EdgesWritten += n

	n, err = w.writeOccurrenceBatch(occurrences)
	if err != nil {
		return result, fmt.Errorf("copy-forward occurrence batch: %w", err)
	}
	result.OccurrencesWritten += n

	return result, nil
}
