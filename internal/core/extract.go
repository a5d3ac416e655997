package core

import "regexp"

// The invoice-number cascade is evaluated in priority order: specific
// phrasings first, so a generic "REF <digits>" never swallows a number that
// belongs to a more specific tax-document pattern. Keep the list open for
// extension; call sites only see ExtractInvoiceNumber.
var invoicePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)NF\.?\s*N[oº°]?\s*(\d+)`),           // NF. Nº 292065, NF Nº 6137
	regexp.MustCompile(`(?i)NF\s+(\d+)`),                        // NF 5346
	regexp.MustCompile(`(?i)REF\s+(?:REF\s+)?NF\s+(\d+)`),       // REF NF 6137, REF REF NF 6137
	regexp.MustCompile(`(?i)REF\s+(?:REF\s+)?(\d+)`),            // REF 6137
	regexp.MustCompile(`(?i)CT-E\s*(\d+)`),                      // CT-E 12345
	regexp.MustCompile(`(?i)NOTA\s*FISCAL\s*(\d+)`),             // NOTA FISCAL 12345
	regexp.MustCompile(`(?i)CONFORME\s+NF[.\s]*(\d+)`),          // CONFORME NF 12345
	regexp.MustCompile(`^(\d{5,6})\s*-`),                        // leading run: "292065 - LOTUS"
	regexp.MustCompile(`(?i)CONFORME\s+NF\s+N[ÚU]MERO\s+(\d+)`), // CONFORME NF NÚMERO 12345
	regexp.MustCompile(`(?i)CONF\.\s*NFS\s*(\d+)`),              // CONF. NFS 12345
}

// taxIDPattern is the fixed CNPJ punctuation shape: NN.NNN.NNN/NNNN-NN.
var taxIDPattern = regexp.MustCompile(`(\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2})`)

// ExtractInvoiceNumber pulls an invoice (NF/CT-e) number out of free-text
// narration. The first cascade match whose digit run has at least 4 digits
// wins; shorter runs are batch or item numbers, not invoice numbers.
// Returns "" when nothing plausible is found.
func ExtractInvoiceNumber(narration string) string {
	for _, re := range invoicePatterns {
		m := re.FindStringSubmatch(narration)
		if m == nil {
			continue
		}
		if len(m[1]) >= 4 {
			return m[1]
		}
	}
	return ""
}

// ExtractTaxID returns the first CNPJ found in the narration, or "".
func ExtractTaxID(narration string) string {
	m := taxIDPattern.FindStringSubmatch(narration)
	if m == nil {
		return ""
	}
	return m[1]
}
