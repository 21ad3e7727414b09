package config

import (
	"strings"

	"github.com/mvp-joe/project-cortex/internal/ir"
	"github.com/mvp-joe/project-cortex/internal/semantic"
)

// SemanticIndexers converts the enabled entries of Semantic.Indexers into
// the semantic.Indexer slice a Runner is built from.
func (c *Config) SemanticIndexers() []semantic.Indexer {
	var out []semantic.Indexer
	for lang, idx := range c.Semantic.Indexers {
		if !idx.Enabled {
			continue
		}
		out = append(out, semantic.Indexer{
			Language: ir.Language(strings.ToLower(lang)),
			Name:     idx.Binary,
			Version:  idx.Version,
			Args:     idx.Args,
		})
	}
	return out
}

// ScanLanguages converts Scan.Languages into ir.Language values, for
// passing through to a scan.Request.
func (c *Config) ScanLanguages() []ir.Language {
	if len(c.Scan.Languages) == 0 {
		return nil
	}
	out := make([]ir.Language, 0, len(c.Scan.Languages))
	for _, lang := range c.Scan.Languages {
		out = append(out, ir.Language(strings.ToLower(lang)))
	}
	return out
}
