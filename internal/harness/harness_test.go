package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/project-cortex/internal/ir"
)

type stubHarness struct {
	lang ir.Language
	exts []string
}

func (s stubHarness) Language() ir.Language { return s.lang }
func (s stubHarness) Extensions() []string  { return s.exts }
func (s stubHarness) Parse(ctx context.Context, commitID, path string, source []byte) (ir.FileOutput, error) {
	return ir.FileOutput{}, nil
}

func TestRegistry_DispatchesByExtension(t *testing.T) {
	r := NewRegistry()
	r.Register(stubHarness{lang: ir.LangGo, exts: []string{".go"}})
	r.Register(stubHarness{lang: ir.LangPython, exts: []string{".py"}})

	h, ok := r.For("pkg/main.go")
	require.True(t, ok)
	assert.Equal(t, ir.LangGo, h.Language())

	h, ok = r.For("pkg/util.py")
	require.True(t, ok)
	assert.Equal(t, ir.LangPython, h.Language())
}

func TestRegistry_UnknownExtension(t *testing.T) {
	r := NewRegistry()
	r.Register(stubHarness{lang: ir.LangGo, exts: []string{".go"}})

	_, ok := r.For("README.md")
	assert.False(t, ok)
	assert.False(t, r.Supports("README.md"))
}

func TestRegistry_CaseInsensitiveExtension(t *testing.T) {
	r := NewRegistry()
	r.Register(stubHarness{lang: ir.LangGo, exts: []string{".go"}})

	assert.True(t, r.Supports("main.GO"))
}
