package graph

import "github.com/mvp-joe/project-cortex/internal/storage"

// Stats returns store-wide counts for the engine's commit.
func (e *Engine) Stats() (storage.Stats, error) {
	return e.reader.Stats(e.commitID)
}
