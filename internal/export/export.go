package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"RedditScanner/internal/domain"
	"RedditScanner/internal/ports"
)

// Supported output formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const jsonIndent = "    "

// Encode writes doc to w in the given format, keeping subreddit order.
func Encode(w io.Writer, doc *domain.Document, format string) error {
	switch normalizeFormat(format) {
	case FormatJSON:
		return encodeJSON(w, doc)
	case FormatYAML:
		return encodeYAML(w, doc)
	default:
		return fmt.Errorf("unsupported format %q: %w", format, domain.ErrInvalidArgument)
	}
}

func normalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	}
	return format
}

func encodeJSON(w io.Writer, doc *domain.Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", jsonIndent)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func encodeYAML(w io.Writer, doc *domain.Document) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, sub := range doc.Subreddits() {
		var value yaml.Node
		if err := value.Encode(sub); err != nil {
			return fmt.Errorf("encode subreddit %s: %w", sub.Key, err)
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: sub.Key},
			&value)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close yaml encoder: %w", err)
	}
	return nil
}

// FileWriter stores documents on disk.
type FileWriter struct {
	path   string
	format string
}

var _ ports.DocumentWriter = (*FileWriter)(nil)

// NewFileWriter returns a writer for path; an empty format means JSON.
func NewFileWriter(path, format string) *FileWriter {
	return &FileWriter{path: path, format: normalizeFormat(format)}
}

// WriteDocument replaces the target file with the encoded document.
func (w *FileWriter) WriteDocument(doc *domain.Document) error {
	if w.path == "" {
		return fmt.Errorf("output path is empty: %w", domain.ErrInvalidArgument)
	}
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := Encode(f, doc, w.format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

// Path is where documents are written.
func (w *FileWriter) Path() string {
	return w.path
}
