package usage

import "context"

// Repository port for the usage ledger
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Summary(ctx context.Context, sinceDays int) ([]ProviderSummary, error)
}
