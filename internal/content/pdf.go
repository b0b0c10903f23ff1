package content

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// pdfParser extracts text from PDF payloads using the pdftotext CLI tool.
type pdfParser struct {
	binPath string
}

func newPDFParser(binPath string) *pdfParser {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &pdfParser{binPath: binPath}
}

// parse writes the payload to a temp file and runs pdftotext -layout over it.
// Extraction failure is not a scrape failure: the result degrades to a
// fallback note with the error recorded in metadata.
func (p *pdfParser) parse(ctx context.Context, raw []byte, contentType string) *Parsed {
	meta := map[string]any{
		"contentType": contentType,
		"sizeBytes":   len(raw),
	}

	text, err := p.extract(ctx, raw)
	if err != nil {
		zap.L().Debug("pdf text extraction failed, degrading to fallback",
			zap.Error(err),
		)
		meta["parseFallback"] = true
		meta["parseError"] = err.Error()
		return &Parsed{
			Content:  "[PDF document: text extraction unavailable]",
			Metadata: meta,
		}
	}

	return &Parsed{
		Content:  strings.TrimSpace(text),
		Metadata: meta,
	}
}

func (p *pdfParser) extract(ctx context.Context, raw []byte) (string, error) {
	tmp, err := os.CreateTemp("", "webfetch-*.pdf")
	if err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, p.binPath, "-layout", tmp.Name(), "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", err
	}

	return stdout.String(), nil
}
