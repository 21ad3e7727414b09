package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeID_Deterministic(t *testing.T) {
	id1 := ComputeID("abc123", "src/a.ts", LangTypeScript, "a.foo", "h1")
	id2 := ComputeID("abc123", "src/a.ts", LangTypeScript, "a.foo", "h1")
	assert.Equal(t, id1, id2)
	assert.Equal(t, "repo://abc123/src/a.ts#sym(typescript:a.foo:h1)", id1)
}

func TestComputeID_DiffersOnInput(t *testing.T) {
	id1 := ComputeID("abc123", "src/a.ts", LangTypeScript, "a.foo", "h1")
	id2 := ComputeID("abc124", "src/a.ts", LangTypeScript, "a.foo", "h1")
	assert.NotEqual(t, id1, id2)
}

func TestSigHash_StableForSameShape(t *testing.T) {
	h1 := SigHash([]ParamKind{ParamValue, ParamVariadic}, ParamUnknown)
	h2 := SigHash([]ParamKind{ParamValue, ParamVariadic}, ParamUnknown)
	assert.Equal(t, h1, h2)
}

func TestSigHash_DiffersOnArity(t *testing.T) {
	h1 := SigHash([]ParamKind{ParamValue}, ParamUnknown)
	h2 := SigHash([]ParamKind{ParamValue, ParamValue}, ParamUnknown)
	assert.NotEqual(t, h1, h2)
}

func TestNormalizeProvenance_OrderIndependent(t *testing.T) {
	p1 := map[string]string{"producer": "scip-go", "version": "1.0"}
	p2 := map[string]string{"version": "1.0", "producer": "scip-go"}
	assert.Equal(t, NormalizeProvenance(p1), NormalizeProvenance(p2))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(KindStoreError))
	assert.True(t, IsFatal(KindRepoNotFound))
	assert.False(t, IsFatal(KindParseError))
	assert.False(t, IsFatal(KindIndexerTimeout))
}
