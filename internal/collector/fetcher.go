package collector

import "context"

// BalanceFetcher reads the current balance of a card from a remote provider.
type BalanceFetcher interface {
	FetchBalance(ctx context.Context, cardID int64) (float64, error)
	Name() string
}
