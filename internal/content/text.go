package content

import (
	"bytes"
	"context"
	"mime"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// parseText decodes a payload as plain text, honoring the charset parameter
// of the declared content type when present.
func parseText(_ context.Context, raw []byte, contentType string) *Parsed {
	return &Parsed{
		Content: decodeText(raw, contentType),
		Metadata: map[string]any{
			"contentType": contentType,
		},
	}
}

// decodeText converts raw bytes to a UTF-8 string. Non-UTF-8 charsets are
// decoded via the IANA-registered encoding named in the content type; an
// unknown charset or a decode failure falls back to a lossy UTF-8
// interpretation rather than erroring.
func decodeText(raw []byte, contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err == nil {
		if charset, ok := params["charset"]; ok && !isUTF8Charset(charset) {
			if enc, err := htmlindex.Get(charset); err == nil {
				decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
				if err == nil {
					return string(decoded)
				}
			}
		}
	}
	return string(bytes.ToValidUTF8(raw, []byte("�")))
}

func isUTF8Charset(charset string) bool {
	switch strings.ToLower(charset) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return true
	default:
		return false
	}
}
