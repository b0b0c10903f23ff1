package content

import (
	"bytes"
	"context"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// htmlParser extracts the main content of an HTML page, converts it to
// Markdown, and collects page metadata.
type htmlParser struct {
	conv *converter.Converter
}

func newHTMLParser() *htmlParser {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &htmlParser{conv: conv}
}

func (p *htmlParser) parse(_ context.Context, raw []byte, contentType string) *Parsed {
	src := decodeText(raw, contentType)
	meta := extractHTMLMetadata(src)
	meta["contentType"] = contentType

	// Main-content extraction strips navigation, footers, and other
	// boilerplate. When it yields nothing the full document is converted.
	contentHTML := src
	result, err := trafilatura.Extract(strings.NewReader(src), trafilatura.Options{EnableFallback: true})
	if err == nil && result.ContentNode != nil {
		if rendered, rerr := renderNode(result.ContentNode); rerr == nil && strings.TrimSpace(rendered) != "" {
			contentHTML = rendered
		}
		if _, ok := meta["title"]; !ok && result.Metadata.Title != "" {
			meta["title"] = result.Metadata.Title
		}
	}

	markdown, err := p.conv.ConvertString(contentHTML)
	if err != nil || strings.TrimSpace(markdown) == "" {
		// Conversion failed; degrade to the document's visible text.
		markdown = documentText(src)
		meta["parseFallback"] = true
	}

	return &Parsed{
		Content:  strings.TrimSpace(markdown),
		Metadata: meta,
	}
}

// extractHTMLMetadata pulls the title, description, canonical URL, language,
// and OpenGraph properties from the document head.
func extractHTMLMetadata(src string) map[string]any {
	meta := map[string]any{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return meta
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		meta["title"] = title
	}
	if lang, ok := doc.Find("html").Attr("lang"); ok && lang != "" {
		meta["language"] = lang
	}
	if canonical, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok && canonical != "" {
		meta["canonical"] = canonical
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok || content == "" {
			return
		}
		if name, ok := s.Attr("name"); ok {
			switch strings.ToLower(name) {
			case "description":
				meta["description"] = content
			case "author":
				meta["author"] = content
			}
		}
		if prop, ok := s.Attr("property"); ok && strings.HasPrefix(prop, "og:") {
			meta[prop] = content
		}
	})

	return meta
}

// documentText returns the visible body text of the document, whitespace
// collapsed.
func documentText(src string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return src
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}

func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
