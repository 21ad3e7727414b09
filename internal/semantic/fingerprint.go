package semantic

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Fingerprint hashes a project unit's input file set (path -> content
// hash) together with the indexer version, so a cached artifact is
// reused only while both the inputs and the indexer that produced them
// are unchanged.
func Fingerprint(fileHashes map[string]string, indexerVersion string) string {
	paths := make([]string, 0, len(fileHashes))
	for p := range fileHashes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := sha256.New()
	h.Write([]byte(indexerVersion))
	h.Write([]byte{0})
	for _, p := range paths {
		h.Write([]byte(p))
		h.Write([]byte{0})
		h.Write([]byte(fileHashes[p]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
