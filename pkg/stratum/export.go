package stratum

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// ExportJSON writes the full store image as gzip-compressed JSON. The
// stream contains every tier's entities and the diff history; see
// State for the shape.
func (kb *KB) ExportJSON(w io.Writer) error {
	st, err := kb.ExportState()
	if err != nil {
		return err
	}

	zw := gzip.NewWriter(w)
	enc := json.NewEncoder(zw)
	if err := enc.Encode(st); err != nil {
		zw.Close()
		return fmt.Errorf("export: encode state: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("export: flush stream: %w", err)
	}
	return nil
}

// ImportJSON replaces the store's content from a stream produced by
// ExportJSON.
func (kb *KB) ImportJSON(r io.Reader) error {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("import: open stream: %w", err)
	}
	defer zr.Close()

	var st State
	if err := json.NewDecoder(zr).Decode(&st); err != nil {
		return fmt.Errorf("import: decode state: %w", err)
	}
	return kb.ImportState(&st)
}
