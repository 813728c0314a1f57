// Package logtail reads the tail of engine log files for display.
package logtail

import (
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// DefaultMaxBytes is the display budget for tailed log content.
const DefaultMaxBytes = 16000

// Tail returns up to maxBytes from the end of the file at path.
// A missing or unreadable file yields an empty string, never an error:
// log display is best-effort. Invalid UTF-8 is replaced so the result
// is always printable.
func Tail(path string, maxBytes int64) string {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return ""
	}

	if info.Size() > maxBytes {
		if _, err := f.Seek(-maxBytes, io.SeekEnd); err != nil {
			return ""
		}
	}

	data, err := io.ReadAll(io.LimitReader(f, maxBytes))
	if err != nil {
		return ""
	}

	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), string(utf8.RuneError))
}
