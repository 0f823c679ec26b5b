package recorder

import "github.com/dev-minimalism/us-bnf-strategy/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordBacktest(_ RunMeta, _ *model.BacktestResult) (string, error) {
	return "", nil
}
func (n *NoopRecorder) RecordPortfolio(_ RunMeta, _ *model.PortfolioResult) (string, error) {
	return "", nil
}
func (n *NoopRecorder) RecordAlert(_ *Alert) error { return nil }
func (n *NoopRecorder) Close() error               { return nil }
