// Package format tells apart the inputs the ingredex tools accept: a wiki
// HTML page, an exported entity JSON array, or a SQLite store.
package format

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
)

// Format is a kind of input.
type Format int

// Supported formats. Unknown is returned when nothing matches.
const (
	Unknown Format = iota
	HTML
	JSON
	SQLite
)

// sniffLen is how much of an input is inspected.
const sniffLen = 512

type info struct {
	name string
	exts []string
}

// formats is indexed by Format. The first extension is the canonical one.
var formats = [...]info{
	Unknown: {name: "Unknown"},
	HTML:    {name: "HTML", exts: []string{".html", ".htm"}},
	JSON:    {name: "JSON", exts: []string{".json"}},
	SQLite:  {name: "SQLite", exts: []string{".db", ".sqlite", ".sqlite3"}},
}

func (f Format) info() info {
	if f < 0 || int(f) >= len(formats) {
		return formats[Unknown]
	}
	return formats[f]
}

func (f Format) String() string {
	return f.info().name
}

// Extension returns the usual file extension, or "" for Unknown.
func (f Format) Extension() string {
	if exts := f.info().exts; len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// Detect guesses the format from the file name alone.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return Unknown
	}
	for f, in := range formats {
		if slices.Contains(in.exts, ext) {
			return Format(f)
		}
	}
	return Unknown
}

var (
	sqliteHeader = []byte("SQLite format 3\x00")

	// htmlOpeners are the upper-cased starts of documents treated as HTML.
	// Saved wiki pages sometimes begin at a comment or a fragment.
	htmlOpeners = []string{"<!DOCTYPE HTML", "<HTML", "<!--", "<HEAD", "<BODY", "<TABLE", "<DIV"}
)

// DetectFromMagic classifies data by its leading bytes. Unknown means the
// bytes are not conclusive.
func DetectFromMagic(data []byte) Format {
	if bytes.HasPrefix(data, sqliteHeader) {
		return SQLite
	}

	body := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(body) == 0 {
		return Unknown
	}
	head := strings.ToUpper(string(body[:min(len(body), sniffLen)]))

	switch {
	case isHTML(head):
		return HTML
	case body[0] == '[' && (gjson.ValidBytes(body) || entityKeys(head)):
		// Buffers cut at sniffLen are not valid JSON, so the keys of an
		// entity array are accepted too.
		return JSON
	}
	return Unknown
}

func isHTML(head string) bool {
	for _, p := range htmlOpeners {
		if strings.HasPrefix(head, p) {
			return true
		}
	}
	// XHTML behind an XML declaration.
	return strings.HasPrefix(head, "<?XML") && strings.Contains(head, "<HTML")
}

func entityKeys(head string) bool {
	return strings.Contains(head, `"NAME"`) || strings.Contains(head, `"INGREDIENTPATTERNS"`)
}

// DetectFromReader classifies the first bytes readable from r.
func DetectFromReader(r io.ReaderAt) (Format, error) {
	buf := make([]byte, sniffLen)
	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return Unknown, err
	}
	return DetectFromMagic(buf[:n]), nil
}

// DetectFile classifies by content first and falls back to the extension.
func DetectFile(filename string, r io.ReaderAt) (Format, error) {
	f, err := DetectFromReader(r)
	if err != nil || f != Unknown {
		return f, err
	}
	return Detect(filename), nil
}
