package semantic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

func TestCache_PutThenGet(t *testing.T) {
	c, err := NewCache(t.TempDir(), 100)
	require.NoError(t, err)
	defer c.Close()

	raw := []byte(`{"metadata":{"version":"0.1"},"documents":[]}`)
	c.Put(ir.LangPython, "fp1", raw)

	got, ok := c.Get(ir.LangPython, "fp1")
	require.True(t, ok)
	assert.Equal(t, raw, got)
}

func TestCache_GetMissReturnsFalse(t *testing.T) {
	c, err := NewCache(t.TempDir(), 100)
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.Get(ir.LangPython, "does-not-exist")
	assert.False(t, ok)
}

func TestCache_PersistsToDisk(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCache(dir, 100)
	require.NoError(t, err)

	raw := []byte(`{"metadata":{"version":"0.1"},"documents":[]}`)
	c.Put(ir.LangGo, "fp2", raw)
	c.Close()

	path := filepath.Join(dir, "cache", "semantic", "go", "fp2.scip")
	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, onDisk)
}

func TestCache_ReadsFromDiskAfterMemoryMiss(t *testing.T) {
	dir := t.TempDir()
	c1, err := NewCache(dir, 100)
	require.NoError(t, err)
	raw := []byte(`{"metadata":{"version":"0.1"},"documents":[]}`)
	c1.Put(ir.LangTypeScript, "fp3", raw)
	c1.Close()

	c2, err := NewCache(dir, 100)
	require.NoError(t, err)
	defer c2.Close()

	got, ok := c2.Get(ir.LangTypeScript, "fp3")
	require.True(t, ok)
	assert.Equal(t, raw, got)
}
