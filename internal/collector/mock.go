package collector

import (
	"context"
	"sync"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu    sync.Mutex
	Value float64
	Err   error
	Calls []int64
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBalance(_ context.Context, cardID int64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, cardID)
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Value, nil
}
