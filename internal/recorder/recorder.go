package recorder

import (
	"context"
	"iter"

	"CardWatch/internal/model"
)

// Store is an append-only log of observed balance values.
type Store interface {
	// AppendBalance durably records value with the current UTC time.
	AppendBalance(ctx context.Context, value float64) error
	// CurrentBalance returns the most recently appended value, or 0 when empty.
	CurrentBalance(ctx context.Context) (float64, error)
	// History yields every recorded value in insertion order. Each call re-reads the store.
	History(ctx context.Context) iter.Seq2[float64, error]
	// Records is History with ids and timestamps.
	Records(ctx context.Context) iter.Seq2[model.BalanceRecord, error]
	Close() error
}
