// Package diag provides the production Diagnostics implementation: parser
// fallback events become structured log lines instead of vanishing.
package diag

import "go.uber.org/zap"

// ZapDiagnostics logs parser degradation events through zap. The parser
// stays lenient; this only makes the leniency visible.
type ZapDiagnostics struct {
	log *zap.Logger
}

// NewZap wraps a zap logger as a core.Diagnostics.
func NewZap(log *zap.Logger) *ZapDiagnostics {
	return &ZapDiagnostics{log: log}
}

func (d *ZapDiagnostics) LineDropped(line string) {
	d.log.Debug("ledger line dropped", zap.String("line", line))
}

func (d *ZapDiagnostics) TokenDefaulted(kind, token string) {
	d.log.Debug("token defaulted", zap.String("kind", kind), zap.String("token", token))
}

func (d *ZapDiagnostics) BlocksConsolidated(accountCode string, fragments int) {
	d.log.Info("supplier block consolidated across pages",
		zap.String("account_code", accountCode), zap.Int("fragments", fragments))
}
