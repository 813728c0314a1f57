// Package specfile handles uploaded OpenAPI documents: extension
// selection, temp-file placement, and a display-only summary.
//
// The console never validates the document's structure. Parsing and
// route synthesis belong to the engine process; this layer only needs
// a file on disk with an extension the engine can dispatch on.
package specfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUpload wraps filesystem failures while persisting an upload.
var ErrUpload = errors.New("upload failed")

// Allowed spec file extensions.
const (
	ExtJSON = ".json"
	ExtYAML = ".yaml"
	ExtYML  = ".yml"
)

// ExtensionFor picks the extension for an uploaded spec from its declared
// MIME type and filename. The MIME type wins; the filename's extension is
// a fallback, and anything unrecognized defaults to .yaml.
// Pure and deterministic: the same inputs always produce the same result.
func ExtensionFor(declaredName, mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	switch mt {
	case "application/json", "text/json":
		return ExtJSON
	case "application/x-yaml", "application/yaml", "text/yaml", "text/x-yaml":
		return ExtYAML
	}

	switch ext := strings.ToLower(filepath.Ext(declaredName)); ext {
	case ExtJSON, ExtYAML, ExtYML:
		return ext
	}

	return ExtYAML
}

// Store writes an uploaded spec verbatim into a fresh temporary directory
// and returns the resulting path. Each upload gets its own directory so
// repeated uploads in one session never collide or overwrite each other.
// Uploaded files are never deleted automatically.
func Store(declaredName, mimeType string, r io.Reader) (string, error) {
	dir, err := os.MkdirTemp("", "mockdeck-spec-")
	if err != nil {
		return "", fmt.Errorf("%w: create temp directory: %v", ErrUpload, err)
	}

	base := filepath.Base(declaredName)
	if base == "." || base == "/" || base == "" {
		base = "spec"
	}
	ext := ExtensionFor(declaredName, mimeType)
	if !strings.EqualFold(filepath.Ext(base), ext) {
		base = strings.TrimSuffix(base, filepath.Ext(base)) + ext
	}

	path := filepath.Join(dir, base)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create spec file: %v", ErrUpload, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("%w: write spec file: %v", ErrUpload, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: close spec file: %v", ErrUpload, err)
	}

	return path, nil
}
