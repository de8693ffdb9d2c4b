package document

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/patchwire/patchwire/pkg/graph"
)

// JSONCodec handles JSON import/export.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier.
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports a patch document from JSON.
func (c *JSONCodec) Parse(r io.Reader) (graph.Snapshot, error) {
	var snap graph.Snapshot
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&snap); err != nil {
		return graph.Snapshot{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return snap, nil
}

// Export writes a patch document as indented JSON.
func (c *JSONCodec) Export(snap graph.Snapshot, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
