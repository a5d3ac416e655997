package core

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"
)

// ErrUnreadableStatement is returned when the extracted text is empty or
// implausibly short: the input is not a parseable ledger document at all,
// so no partial result is produced.
var ErrUnreadableStatement = errors.New("statement text is empty or too short to be a ledger document")

// minStatementChars is the plausibility floor for extracted text.
const minStatementChars = 100

var (
	periodPattern     = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})\s*-\s*(\d{2}/\d{2}/\d{4})`)
	companyPattern    = regexp.MustCompile(`Empresa:\s*(.+?)(?:\s+Folha:|\n)`)
	companyTaxPattern = regexp.MustCompile(`C\.N\.P\.J\.:\s*([\d./-]+)`)
)

// Fingerprint returns the hex SHA-256 digest of the raw document bytes.
// It is an opaque idempotency key for duplicate-submission detection.
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Document format sniffed from the leading bytes of an upload.
const (
	FormatPDF  = "PDF"
	FormatZIP  = "ZIP"
	FormatText = "TEXT"
)

// DetectFormat sniffs the upload's magic number. Scanned-image archives
// (ZIP) are rejected upstream; anything that is not PDF or ZIP is treated
// as already-extracted text.
func DetectFormat(raw []byte) string {
	switch {
	case len(raw) >= 4 && string(raw[:4]) == "%PDF":
		return FormatPDF
	case len(raw) >= 2 && string(raw[:2]) == "PK":
		return FormatZIP
	default:
		return FormatText
	}
}

// StatementParser turns a ledger document's text lines into a Statement.
// The parse is pure: all state lives in accumulators scoped to one Parse
// call, and identical input always yields identical output.
type StatementParser struct {
	diag Diagnostics
}

// NewStatementParser constructs a parser. diag may be nil; fallback events
// are then discarded.
func NewStatementParser(diag Diagnostics) *StatementParser {
	if diag == nil {
		diag = NopDiagnostics()
	}
	return &StatementParser{diag: diag}
}

// Parse processes the linear line sequence extracted from one ledger
// document. raw is the original document bytes, used only for the content
// fingerprint. Structural failure (unreadable text) is the only error;
// everything else degrades to best-effort output.
func (p *StatementParser) Parse(lines []string, raw []byte) (*Statement, error) {
	text := strings.Join(lines, "\n")
	if len(strings.TrimSpace(text)) < minStatementChars {
		return nil, ErrUnreadableStatement
	}

	st := &Statement{Fingerprint: Fingerprint(raw)}
	p.extractMetadata(st, text)

	// Group lines into supplier sections: each "Conta:" header starts one.
	var groups [][]string
	var current []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Conta:") && len(current) > 0 {
			groups = append(groups, current)
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	var blocks []*SupplierBlock
	for _, g := range groups {
		if b := p.parseBlock(g); b != nil {
			blocks = append(blocks, b)
		}
	}
	st.Suppliers = p.consolidateBlocks(blocks)
	return st, nil
}

// extractMetadata pulls company name, company tax id and the statement
// period out of the full text. Each is opportunistic: an absent pattern
// leaves the field at its zero value and never fails the parse.
func (p *StatementParser) extractMetadata(st *Statement, text string) {
	if m := companyPattern.FindStringSubmatch(text); m != nil {
		st.CompanyName = strings.TrimSpace(m[1])
	}
	if m := companyTaxPattern.FindStringSubmatch(text); m != nil {
		st.CompanyTaxID = strings.TrimSpace(m[1])
	}
	if m := periodPattern.FindStringSubmatch(text); m != nil {
		if d, ok := ParseDate(m[1]); ok {
			st.PeriodStart = &d
		}
		if d, ok := ParseDate(m[2]); ok {
			st.PeriodEnd = &d
		}
	}
}
