package scip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleIndexJSON = `{
  "metadata": {
    "version": "0.3.3",
    "tool_info": {"name": "scip-typescript", "version": "0.3.10"},
    "project_root": "file:///repo"
  },
  "documents": [
    {
      "relative_path": "src/main.ts",
      "language": "typescript",
      "symbols": [
        {
          "symbol": "scip-typescript npm . . ` + "`main.ts`" + `/createUser().",
          "documentation": ["Creates a user."],
          "relationships": [
            {"symbol": "scip-typescript npm . . ` + "`base.ts`" + `/Base#", "is_implementation": true}
          ]
        }
      ],
      "occurrences": [
        {"range": [4, 9, 19], "symbol": "scip-typescript npm . . ` + "`main.ts`" + `/createUser().", "symbol_roles": 1}
      ]
    }
  ]
}`

func TestDecode_ParsesMetadataAndDocuments(t *testing.T) {
	idx, err := Decode([]byte(sampleIndexJSON))
	require.NoError(t, err)

	assert.Equal(t, "scip-typescript", idx.Metadata.ToolInfo.Name)
	require.Len(t, idx.Documents, 1)
	assert.Equal(t, "src/main.ts", idx.Documents[0].RelativePath)
}

func TestDecode_ParsesSymbolsAndRelationships(t *testing.T) {
	idx, err := Decode([]byte(sampleIndexJSON))
	require.NoError(t, err)

	doc := idx.Documents[0]
	require.Len(t, doc.Symbols, 1)
	require.Len(t, doc.Symbols[0].Relationships, 1)
	assert.True(t, doc.Symbols[0].Relationships[0].IsImplementation)
}

func TestDecode_ParsesOccurrences(t *testing.T) {
	idx, err := Decode([]byte(sampleIndexJSON))
	require.NoError(t, err)

	occ := idx.Documents[0].Occurrences[0]
	assert.Equal(t, int32(1), occ.SymbolRoles)
	assert.True(t, HasRole(occ.SymbolRoles, RoleDefinition))
}

func TestNormalizedRange_ExpandsThreeElementShorthand(t *testing.T) {
	startLine, startCol, endLine, endCol, ok := NormalizedRange([]int32{4, 9, 19})
	require.True(t, ok)
	assert.Equal(t, int32(4), startLine)
	assert.Equal(t, int32(9), startCol)
	assert.Equal(t, int32(4), endLine)
	assert.Equal(t, int32(19), endCol)
}

func TestNormalizedRange_FourElementForm(t *testing.T) {
	startLine, _, endLine, endCol, ok := NormalizedRange([]int32{4, 9, 6, 2})
	require.True(t, ok)
	assert.Equal(t, int32(4), startLine)
	assert.Equal(t, int32(6), endLine)
	assert.Equal(t, int32(2), endCol)
}

func TestNormalizedRange_InvalidLength(t *testing.T) {
	_, _, _, _, ok := NormalizedRange([]int32{1, 2})
	assert.False(t, ok)
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
}
