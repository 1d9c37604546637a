// Package source loads the documents that diagnostics are attached to.
package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is a snapshot of a source file.
type Document struct {
	Path    string // absolute path
	Content []byte
	Lines   []string // without line terminators
}

// Load reads the file at path. The path is made absolute so that the
// analyzer, which runs in its own directory, can find it.
func Load(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return FromBytes(abs, data), nil
}

// FromBytes builds a Document from in-memory content.
func FromBytes(path string, data []byte) *Document {
	return &Document{
		Path:    path,
		Content: data,
		Lines:   splitLines(string(data)),
	}
}

// LineCount is the number of addressable lines. An empty file, or the text
// after a final newline, still counts as one line, as in an editor.
func (d *Document) LineCount() int {
	return len(d.Lines)
}

// Digest returns the sha256 of the document content.
func (d *Document) Digest() [32]byte {
	return sha256.Sum256(d.Content)
}

// Name returns the file's base name for display.
func (d *Document) Name() string {
	return filepath.Base(d.Path)
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
