package app_test

import (
	"context"
	"errors"
	"testing"

	"supplier-recon/internal/app"
)

func TestPlainTextExtractor_SplitsLines(t *testing.T) {
	ex := app.PlainTextExtractor{}
	lines, err := ex.Extract(context.Background(), []byte("Empresa: ACME\r\nConta: 1 - 2.1.01.001 BDG\nSALDO ANTERIOR 0,00"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[1] != "Conta: 1 - 2.1.01.001 BDG" {
		t.Errorf("CRLF not normalized: %q", lines[1])
	}
}

func TestPlainTextExtractor_Latin1Fallback(t *testing.T) {
	// "Razão" with 0xE3, as legacy accounting exports encode it.
	raw := []byte{'R', 'a', 'z', 0xE3, 'o'}
	ex := app.PlainTextExtractor{}
	lines, err := ex.Extract(context.Background(), raw)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if lines[0] != "Razão" {
		t.Errorf("got %q, want Latin-1 decoded Razão", lines[0])
	}
}

func TestPlainTextExtractor_RejectsBinaryFormats(t *testing.T) {
	ex := app.PlainTextExtractor{}
	if _, err := ex.Extract(context.Background(), []byte("%PDF-1.7 binary")); !errors.Is(err, app.ErrUnsupportedFormat) {
		t.Errorf("PDF: got %v, want ErrUnsupportedFormat", err)
	}
	if _, err := ex.Extract(context.Background(), []byte("PK\x03\x04zip")); !errors.Is(err, app.ErrUnsupportedFormat) {
		t.Errorf("ZIP: got %v, want ErrUnsupportedFormat", err)
	}
}
