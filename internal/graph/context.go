package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ContextExtractor reads code snippets around a symbol's span from disk,
// padded by a configurable number of surrounding lines. The store itself
// never retains file content, only content hashes, so extraction always
// reads the working tree rather than a cached blob.
type ContextExtractor struct {
	rootDir   string
	fileCache map[string][]string
}

// NewContextExtractor builds an extractor rooted at rootDir.
func NewContextExtractor(rootDir string) *ContextExtractor {
	return &ContextExtractor{rootDir: rootDir, fileCache: make(map[string][]string)}
}

// Extract returns the lines from startLine-contextLines to
// endLine+contextLines (1-indexed, inclusive), prefixed with a line-range
// comment.
func (ce *ContextExtractor) Extract(relPath string, startLine, endLine, contextLines int) (string, error) {
	lines, err := ce.fileLines(relPath)
	if err != nil {
		return "", fmt.Errorf("read %s for context: %w", relPath, err)
	}

	from := startLine - contextLines - 1
	if from < 0 {
		from = 0
	}
	to := endLine + contextLines
	if to > len(lines) {
		to = len(lines)
	}

	snippet := strings.Join(lines[from:to], "\n")
	return fmt.Sprintf("// Lines %d-%d\n%s", from+1, to, snippet), nil
}

func (ce *ContextExtractor) fileLines(relPath string) ([]string, error) {
	if lines, ok := ce.fileCache[relPath]; ok {
		return lines, nil
	}

	content, err := os.ReadFile(filepath.Join(ce.rootDir, relPath))
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(content), "\n")
	ce.fileCache[relPath] = lines
	return lines, nil
}
