package model

import "time"

// BalanceRecord is one observed balance value. Records are never updated.
type BalanceRecord struct {
	ID         int64
	ObservedAt time.Time // UTC
	Value      float64
}

// Observation is the outcome of a single comparison pass.
type Observation struct {
	At       time.Time // local wall-clock time of the pass
	CardID   int64
	Previous float64
	Current  float64
	Delta    float64
	Changed  bool
	Notified bool
}
