// Package document reads and writes patch documents, the on-disk form of
// a graph snapshot. Formats are selected by file extension: .json, .yaml
// and .yml are supported.
package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/patchwire/patchwire/pkg/graph"
)

// Importer parses a patch document from a reader.
type Importer interface {
	Parse(r io.Reader) (graph.Snapshot, error)
	Format() string
}

// Exporter writes a patch document to a writer.
type Exporter interface {
	Export(snap graph.Snapshot, w io.Writer) error
	Format() string
}

// CodecFor returns the codec for a file path, selected by extension.
func CodecFor(path string) (interface {
	Importer
	Exporter
}, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return NewJSONCodec(), nil
	case ".yaml", ".yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported document format: %q", filepath.Ext(path))
	}
}

// Load reads a patch document from disk.
func Load(path string) (graph.Snapshot, error) {
	codec, err := CodecFor(path)
	if err != nil {
		return graph.Snapshot{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	snap, err := codec.Parse(f)
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("parsing %s document %s: %w", codec.Format(), path, err)
	}
	return snap, nil
}

// Save writes a patch document to disk, replacing any existing file.
func Save(path string, snap graph.Snapshot) error {
	codec, err := CodecFor(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating document: %w", err)
	}

	if err := codec.Export(snap, f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s document %s: %w", codec.Format(), path, err)
	}
	return f.Close()
}
