package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

// ComputeID derives a deterministic symbol id of the form
// repo://{commit_id}/{path}#sym({lang}:{fqn}:{sig_hash}). Equal inputs
// produce equal ids across runs and machines; nothing here is
// machine-dependent (no pointers, no map iteration order, no time).
func ComputeID(commitID, path string, lang Language, fqn, sigHash string) string {
	return fmt.Sprintf("repo://%s/%s#sym(%s:%s:%s)", commitID, path, lang, fqn, sigHash)
}

// ParamKind is the coarse shape of one parameter or return slot used by
// SigHash, reduced to coarse tags so a hash stays stable across minor
// syntactic variation.
type ParamKind string

const (
	ParamValue    ParamKind = "value"
	ParamVariadic ParamKind = "variadic"
	ParamKeyword  ParamKind = "keyword"
	ParamUnknown  ParamKind = "unknown"
)

// TypedParamKind returns the "typed:T" tag for a parameter or return slot
// whose type T is written in the source (a Go type expression, or a
// TS/Python type annotation's text). An empty T yields ParamUnknown.
func TypedParamKind(typeName string) ParamKind {
	if typeName == "" {
		return ParamUnknown
	}
	return ParamKind("typed:" + typeName)
}

// SigHash computes a stable 64-bit signature hash over
// (arity, parameter-kinds-in-order, return-kind), hex-encoded. Unknown
// pieces use ParamUnknown so that syntactic-only extraction is still
// stable, and a later semantic upgrade with refined kinds produces a
// different (also stable) hash rather than silently reusing the old one.
func SigHash(params []ParamKind, returnKind ParamKind) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|", len(params))
	for _, p := range params {
		fmt.Fprintf(h, "%s,", p)
	}
	fmt.Fprintf(h, "|%s", returnKind)
	sum := h.Sum(nil)
	return fmt.Sprintf("%x", binary.BigEndian.Uint64(sum[:8]))
}

// NormalizeProvenance returns a deterministic string key for a provenance
// map. Provenance is not part of an edge's natural key: (commit_id, src,
// dst, type, resolution, file_src, file_dst) is unique regardless of
// provenance contents, so two edges that differ only in file_src or
// file_dst are both kept.
func NormalizeProvenance(p map[string]string) string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(p[k])
		sb.WriteByte(';')
	}
	return sb.String()
}
