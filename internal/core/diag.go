package core

// Diagnostics receives parser fallback events. The parser tolerates noisy
// input by design (dropped decorative lines, unparsable tokens, cross-page
// block stitching); this hook keeps that silent degradation auditable
// without making it fatal. Implementations must not fail.
type Diagnostics interface {
	// LineDropped reports a line that matched neither a new entry nor a
	// plausible continuation and was discarded.
	LineDropped(line string)

	// TokenDefaulted reports a token that failed to parse and fell back to
	// its zero value. kind is "amount" or "date".
	TokenDefaulted(kind, token string)

	// BlocksConsolidated reports that a supplier's section was found split
	// across fragments (page breaks) and merged.
	BlocksConsolidated(accountCode string, fragments int)
}

type nopDiagnostics struct{}

func (nopDiagnostics) LineDropped(string)             {}
func (nopDiagnostics) TokenDefaulted(string, string)  {}
func (nopDiagnostics) BlocksConsolidated(string, int) {}

// NopDiagnostics returns a Diagnostics that discards every event.
func NopDiagnostics() Diagnostics { return nopDiagnostics{} }
