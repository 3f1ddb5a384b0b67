// Package archive assembles fetched media into a single in-memory ZIP.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
)

// ErrFinalized is returned when a Builder is used after Finalize.
var ErrFinalized = errors.New("archive already finalized")

// Builder accumulates named binary entries and produces one ZIP blob.
// A Builder is single-use: Finalize may be called exactly once.
type Builder struct {
	buf       bytes.Buffer
	zw        *zip.Writer
	count     int
	finalized bool
}

// NewBuilder creates an empty archive builder.
func NewBuilder() *Builder {
	b := &Builder{}
	b.zw = zip.NewWriter(&b.buf)
	return b
}

// Add appends one entry. Entries keep insertion order, and names are not
// deduplicated: two entries may share a filename.
func (b *Builder) Add(filename string, data []byte) error {
	if b.finalized {
		return ErrFinalized
	}

	w, err := b.zw.Create(filename)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", filename, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write entry %s: %w", filename, err)
	}
	b.count++
	return nil
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int {
	return b.count
}

// Finalize closes the archive and returns its bytes. A second call returns
// ErrFinalized.
func (b *Builder) Finalize() ([]byte, error) {
	if b.finalized {
		return nil, ErrFinalized
	}
	b.finalized = true

	if err := b.zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return b.buf.Bytes(), nil
}
