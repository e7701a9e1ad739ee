// Package ingredex provides a fluent API for decoding the ingredient-yield
// table of a Pokémon Sleep wiki page into per-character entity records.
//
// Basic usage:
//
//	entities, warnings, err := ingredex.Open("wiki-raw.html").Entities()
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", ingredex.FormatWarnings(warnings))
//	}
//
// With options:
//
//	res, err := ingredex.FromString(html).
//	    LocatorByName("caption").
//	    ExcludeNavigation(htmldoc.NavigationExclusionStandard).
//	    WithoutFallback().
//	    Decode()
//
// When the page has no table, or the table yields no entity, the fixed
// fallback dataset is returned instead and Result.Report says why. The
// lower-level htmldoc, tables, patterns and dataset packages are available
// for custom pipelines.
package ingredex

import (
	"bytes"
	"fmt"
	"io"
)

// Open returns a Decoder for an HTML file. The file is read by each
// terminal operation.
//
// Example:
//
//	entities, warnings, err := ingredex.Open("wiki-raw.html").Entities()
func Open(filename string) *Decoder {
	return &Decoder{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromReader returns a Decoder for HTML read from r. The reader is drained
// immediately; a read error is reported by the first terminal operation.
//
// Example:
//
//	resp, err := http.Get(url)
//	...
//	defer resp.Body.Close()
//	res, err := ingredex.FromReader(resp.Body).Decode()
func FromReader(r io.Reader) *Decoder {
	d := &Decoder{options: defaultOptions(), inMemory: true}
	data, err := io.ReadAll(r)
	if err != nil {
		d.err = fmt.Errorf("reading input: %w", err)
		return d
	}
	d.data = data
	return d
}

// FromString returns a Decoder for an HTML document held in memory.
func FromString(html string) *Decoder {
	return FromBytes([]byte(html))
}

// FromBytes returns a Decoder for an HTML document held in memory. The
// slice is copied.
func FromBytes(html []byte) *Decoder {
	return &Decoder{
		data:     bytes.Clone(html),
		inMemory: true,
		options:  defaultOptions(),
	}
}

// Must returns val, or panics with err. Meant for scripts and tests:
//
//	res := ingredex.Must(ingredex.Open("wiki-raw.html").Decode())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustEntities is Must for Entities; the warnings are dropped.
//
//	entities := ingredex.MustEntities(ingredex.Open("wiki-raw.html").Entities())
func MustEntities[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
