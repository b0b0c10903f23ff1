// Package content classifies raw response payloads by declared content type
// and routes them to a type-specific parser, producing normalized text plus
// metadata. Parsing is best-effort: an unparseable payload degrades to a
// plain-text rendering instead of failing the scrape.
package content

import (
	"context"
	"strings"
)

// Parsed is the normalized output of the dispatcher.
type Parsed struct {
	Content  string
	Metadata map[string]any
}

// entry maps a content-type fragment to a parser.
type entry struct {
	match  string
	binary bool
	parse  func(ctx context.Context, raw []byte, contentType string) *Parsed
}

// Dispatcher routes payloads to parsers by declared content type.
type Dispatcher struct {
	html    *htmlParser
	pdf     *pdfParser
	entries []entry
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithPdfToTextPath overrides the pdftotext binary path.
func WithPdfToTextPath(path string) DispatcherOption {
	return func(d *Dispatcher) {
		d.pdf.binPath = path
	}
}

// NewDispatcher creates a Dispatcher with the default parser registry.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		html: newHTMLParser(),
		pdf:  newPDFParser(""),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.entries = []entry{
		{match: "text/html", parse: d.html.parse},
		{match: "application/xhtml", parse: d.html.parse},
		{match: "application/pdf", binary: true, parse: d.pdf.parse},
		{match: "application/json", parse: parseText},
		{match: "application/xml", parse: parseText},
		{match: "application/javascript", parse: parseText},
		{match: "text/", parse: parseText},
	}
	return d
}

// binaryPrefixes cover non-text formats outside the registry that still need
// a byte-buffer read rather than a text decode.
var binaryPrefixes = []string{
	"application/pdf",
	"application/octet-stream",
	"application/zip",
	"application/gzip",
	"image/",
	"audio/",
	"video/",
	"font/",
}

// RequiresBinary reports whether the declared content type must be read as a
// byte buffer. Callers must consult this before reading the response body:
// binary and text reads are mutually exclusive on a single stream.
func (d *Dispatcher) RequiresBinary(declaredContentType string) bool {
	ct := normalizeContentType(declaredContentType)
	for _, p := range binaryPrefixes {
		if strings.HasPrefix(ct, p) {
			return true
		}
	}
	return false
}

// Parse routes raw bytes to the parser registered for the declared content
// type. Unknown types fall back to a best-effort plain-text decode. Parse
// never fails; at worst the payload is returned as lossy UTF-8 text.
func (d *Dispatcher) Parse(ctx context.Context, raw []byte, declaredContentType string) *Parsed {
	ct := normalizeContentType(declaredContentType)
	for _, e := range d.entries {
		if strings.Contains(ct, e.match) {
			return e.parse(ctx, raw, ct)
		}
	}
	return parseText(ctx, raw, ct)
}

// normalizeContentType lower-cases the declared type and substitutes the
// text/plain default when the origin reported nothing.
func normalizeContentType(declared string) string {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if ct == "" {
		return "text/plain"
	}
	return ct
}
