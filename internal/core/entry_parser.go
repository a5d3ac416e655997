package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	entryStart   = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+(\d+)\s+(.+)$`)
	numericToken = regexp.MustCompile(`[\d.,]+`)
	balanceSign  = regexp.MustCompile(`[\d.,]+([CD])`)
	trailingSign = regexp.MustCompile(`[CD]\s*$`)
	datePrefix   = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}`)
)

// isContraCode reports whether a numeric token looks like a contra-account
// code rather than a monetary amount: no thousands or decimal separator and
// at most 4 digits.
func isContraCode(tok string) bool {
	return !strings.ContainsAny(tok, ".,") && len(tok) <= 4
}

// parseEntryLine turns one dated physical line into a LedgerEntry.
//
// Expected shapes (batch after the date, 2-4 numeric tokens at the tail):
//
//	31/01/2025 3825 PGTO REF BDG TRANSPORTES 1336 460,00 0,00
//	10/01/2025 9 COMPRAS CONFORME NF. Nº 21100 55 4.524,08 8.654,11C
//	08/01/2025 4 COMPRAS CONFORME NF. 292065 1.994,40 1.994,40C
//
// The last token is always the running balance; a C/D right after it records
// its sign. Among the remaining tail tokens the contra-account code is told
// apart from the amount by isContraCode. Returns false when the line does
// not open an entry.
func (p *StatementParser) parseEntryLine(line string) (*LedgerEntry, bool) {
	m := entryStart.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	dateStr, batch, rest := m[1], m[2], m[3]

	tokens := numericToken.FindAllString(rest, -1)
	if len(tokens) < 2 {
		return nil, false
	}

	balanceStr := tokens[len(tokens)-1]
	sign := ""
	if sm := balanceSign.FindStringSubmatch(rest); sm != nil {
		sign = sm[1]
	}

	var contra, amountStr string
	if len(tokens) >= 3 {
		penult := tokens[len(tokens)-2]
		antepenult := tokens[len(tokens)-3]
		if isContraCode(penult) {
			contra = penult
			// With only three tokens the remaining one is likely a digit run
			// from the narration (an NF number), not an amount; require a
			// fourth token before trusting it.
			if len(tokens) >= 4 {
				amountStr = antepenult
			}
		} else {
			amountStr = penult
			if isContraCode(antepenult) {
				contra = antepenult
			}
		}
	} else {
		amountStr = tokens[len(tokens)-2]
	}

	amount := decimal.Zero
	if amountStr != "" {
		amount = ParseAmount(amountStr)
	}

	// Debit column means the supplier is being settled; the keyword test
	// decides which column this line's amount belongs to. It is re-validated
	// during block finalization once the narration is complete.
	debit, credit := decimal.Zero, decimal.Zero
	upper := strings.ToUpper(rest)
	if containsAny(upper, paymentKeywords) || containsAny(upper, advanceKeywords) {
		debit = amount
	} else {
		credit = amount
	}

	// Narration is the tail minus the consumed numeric tokens and the C/D
	// marker. Remove last occurrences so digit runs inside the description
	// survive.
	narration := rest
	for _, tok := range []string{balanceStr, amountStr, contra} {
		if tok == "" {
			continue
		}
		if idx := strings.LastIndex(narration, tok); idx != -1 {
			narration = narration[:idx] + narration[idx+len(tok):]
		}
	}
	narration = strings.TrimSpace(trailingSign.ReplaceAllString(narration, ""))

	e := &LedgerEntry{
		Batch:         batch,
		Narration:     narration,
		ContraAccount: contra,
		Debit:         debit,
		Credit:        credit,
		Balance:       ParseAmount(balanceStr),
		BalanceSign:   sign,
	}
	if d, ok := ParseDate(dateStr); ok {
		e.Date = &d
	} else {
		p.diag.TokenDefaulted("date", dateStr)
	}
	e.InvoiceNumber = ExtractInvoiceNumber(narration)
	e.TaxID = ExtractTaxID(narration)
	e.Operation = ClassifyOperation(narration, debit, credit)
	return e, true
}
