package semantic

import (
	"os"
	"path/filepath"
	"time"

	"github.com/maypok86/otter"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

// artifactTTL bounds how long a cached indexer artifact is trusted before
// a re-run is forced even if the fingerprint hasn't changed, guarding
// against an indexer upgrade that doesn't bump its reported version.
const artifactTTL = 24 * time.Hour

// Cache holds raw SCIP JSON artifacts keyed by project fingerprint (the
// hash of scanned inputs plus the indexer version), so an unchanged
// project skips its semantic-indexer subprocess on a re-scan. An in-memory
// otter cache fronts an on-disk artifact directory: otter absorbs repeat
// lookups within one scan process, the disk layer survives across process
// restarts.
type Cache struct {
	mem otter.Cache[string, []byte]
	dir string // state-directory root for on-disk artifacts
}

// NewCache builds a Cache backed by stateDir/cache/semantic/<lang>/.
func NewCache(stateDir string, capacity int) (*Cache, error) {
	mem, err := otter.MustBuilder[string, []byte](capacity).
		WithTTL(artifactTTL).
		Build()
	if err != nil {
		return nil, ir.NewError(ir.KindStoreError, "semantic.cache", stateDir, err)
	}
	return &Cache{mem: mem, dir: filepath.Join(stateDir, "cache", "semantic")}, nil
}

// Get returns the cached raw SCIP JSON artifact for (lang, fingerprint),
// checking the in-memory cache first and falling back to disk.
func (c *Cache) Get(lang ir.Language, fingerprint string) ([]byte, bool) {
	key := cacheKey(lang, fingerprint)
	if raw, ok := c.mem.Get(key); ok {
		return raw, true
	}

	raw, err := os.ReadFile(c.artifactPath(lang, fingerprint))
	if err != nil {
		return nil, false
	}
	c.mem.Set(key, raw)
	return raw, true
}

// Put stores raw under both the in-memory and on-disk layers.
func (c *Cache) Put(lang ir.Language, fingerprint string, raw []byte) {
	c.mem.Set(cacheKey(lang, fingerprint), raw)

	path := c.artifactPath(lang, fingerprint)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(path, raw, 0o644)
}

func (c *Cache) artifactPath(lang ir.Language, fingerprint string) string {
	return filepath.Join(c.dir, string(lang), fingerprint+".scip")
}

func cacheKey(lang ir.Language, fingerprint string) string {
	return string(lang) + ":" + fingerprint
}

// Close releases the in-memory cache's background resources.
func (c *Cache) Close() {
	c.mem.Close()
}
