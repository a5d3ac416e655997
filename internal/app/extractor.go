package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"supplier-recon/internal/core"
)

// ErrUnsupportedFormat is returned for uploads the configured extractor
// cannot turn into text.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// TextExtractor turns raw document bytes into the linear line sequence the
// parser consumes. PDF extraction runs as an external collaborator; this
// module ships only the plain-text implementation.
type TextExtractor interface {
	Extract(ctx context.Context, raw []byte) ([]string, error)
}

// PlainTextExtractor handles statements whose text was already extracted.
// Exports from legacy accounting systems are often Latin-1; bytes that are
// not valid UTF-8 are decoded as ISO 8859-1.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(_ context.Context, raw []byte) ([]string, error) {
	switch core.DetectFormat(raw) {
	case core.FormatZIP:
		return nil, fmt.Errorf("%w: ZIP archives of scanned images would need OCR", ErrUnsupportedFormat)
	case core.FormatPDF:
		return nil, fmt.Errorf("%w: no PDF text extractor is configured", ErrUnsupportedFormat)
	}

	text := string(raw)
	if !utf8.Valid(raw) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decode statement text: %w", err)
		}
		text = string(decoded)
	}
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"), nil
}
