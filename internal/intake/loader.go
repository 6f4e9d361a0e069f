// Package intake loads the plain text documents a session starts from.
// Extraction from richer formats (PDF, uploads) is out of scope: the loader
// consumes text that already exists inline or in a file.
package intake

import (
	"fmt"
	"os"
	"strings"
)

// Document describes where one intake text comes from.
type Document struct {
	// Name is used in error messages to say which document failed.
	Name string
	// Value is inline text provided via configuration or flags.
	Value string
	// File points to a text file. When set it takes precedence over Value.
	File string
}

// Load resolves the document text. File contents win over the inline value
// and the result is always trimmed. An error names the document when neither
// source yields text.
func Load(doc Document) (string, error) {
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = "document"
	}

	file := strings.TrimSpace(doc.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		doc.Value = string(data)
		doc.File = file
	}

	text := strings.TrimSpace(doc.Value)
	if text == "" {
		if doc.File != "" {
			return "", fmt.Errorf("%s file %q is empty", name, doc.File)
		}
		return "", fmt.Errorf("%s is not configured", name)
	}

	return text, nil
}
