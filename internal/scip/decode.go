package scip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// Decode parses the JSON rendering of a SCIP index from raw bytes.
func Decode(data []byte) (Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return Index{}, fmt.Errorf("decode scip index: %w", err)
	}
	return idx, nil
}

// PrintJSON shells out to the `scip` CLI's `print --json` subcommand to
// render a binary .scip index file as JSON, then decodes it. This is the
// same indirection the reference indexer uses: SCIP indexers emit a
// protobuf-encoded file, and the scip tool itself is the canonical way to
// turn that into a structured form without vendoring a generated protobuf
// schema for the SCIP wire format.
func PrintJSON(ctx context.Context, scipCLIPath, indexPath string) (Index, error) {
	raw, err := PrintJSONRaw(ctx, scipCLIPath, indexPath)
	if err != nil {
		return Index{}, err
	}
	return Decode(raw)
}

// PrintJSONRaw runs the same `scip print --json` subcommand as PrintJSON
// but returns the raw JSON bytes instead of decoding them, so callers
// that cache the artifact can persist exactly what the indexer produced.
func PrintJSONRaw(ctx context.Context, scipCLIPath, indexPath string) ([]byte, error) {
	if scipCLIPath == "" {
		scipCLIPath = "scip"
	}
	cmd := exec.CommandContext(ctx, scipCLIPath, "print", "--json", indexPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("scip print --json %s: %w: %s", indexPath, err, stderr.String())
	}
	return stdout.Bytes(), nil
}
