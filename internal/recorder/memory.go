package recorder

import (
	"context"
	"iter"
	"sync"
	"time"

	"CardWatch/internal/model"
)

// MemoryStore keeps balance history in process memory. Used for dry runs and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records []model.BalanceRecord
	now     func() time.Time

	// AppendErr, when set, is returned by AppendBalance instead of recording.
	AppendErr error
}

func NewMemoryStore(initial ...float64) *MemoryStore {
	m := &MemoryStore{now: time.Now}
	for _, v := range initial {
		m.append(v)
	}
	return m
}

func (m *MemoryStore) append(value float64) {
	m.records = append(m.records, model.BalanceRecord{
		ID:         int64(len(m.records) + 1),
		ObservedAt: m.now().UTC(),
		Value:      value,
	})
}

func (m *MemoryStore) AppendBalance(_ context.Context, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return &model.StorageError{Op: "append", Err: m.AppendErr}
	}
	m.append(value)
	return nil
}

func (m *MemoryStore) CurrentBalance(_ context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.records) == 0 {
		return 0.0, nil
	}
	return m.records[len(m.records)-1].Value, nil
}

func (m *MemoryStore) History(ctx context.Context) iter.Seq2[float64, error] {
	return func(yield func(float64, error) bool) {
		for rec := range m.Records(ctx) {
			if !yield(rec.Value, nil) {
				return
			}
		}
	}
}

func (m *MemoryStore) Records(_ context.Context) iter.Seq2[model.BalanceRecord, error] {
	return func(yield func(model.BalanceRecord, error) bool) {
		m.mu.Lock()
		snapshot := append([]model.BalanceRecord(nil), m.records...)
		m.mu.Unlock()
		for _, rec := range snapshot {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (m *MemoryStore) Close() error { return nil }
