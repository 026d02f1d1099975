package metrics

import "sync/atomic"

// InMemory is a Recorder backed by atomic counters. Useful for tests
// and for exposing a snapshot on an admin endpoint.
type InMemory struct {
	categoryCreated atomic.Int64
	categoryUpdated atomic.Int64
	categoryDeleted atomic.Int64
	itemCreated     atomic.Int64
	itemUpdated     atomic.Int64
	itemDeleted     atomic.Int64
	loginSucceeded  atomic.Int64
	loginFailed     atomic.Int64
}

// NewInMemory creates an in-memory Recorder.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (m *InMemory) IncCategoryCreated() { m.categoryCreated.Add(1) }
func (m *InMemory) IncCategoryUpdated() { m.categoryUpdated.Add(1) }
func (m *InMemory) IncCategoryDeleted() { m.categoryDeleted.Add(1) }
func (m *InMemory) IncItemCreated()     { m.itemCreated.Add(1) }
func (m *InMemory) IncItemUpdated()     { m.itemUpdated.Add(1) }
func (m *InMemory) IncItemDeleted()     { m.itemDeleted.Add(1) }
func (m *InMemory) IncLoginSucceeded()  { m.loginSucceeded.Add(1) }
func (m *InMemory) IncLoginFailed()     { m.loginFailed.Add(1) }

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	CategoryCreated int64
	CategoryUpdated int64
	CategoryDeleted int64
	ItemCreated     int64
	ItemUpdated     int64
	ItemDeleted     int64
	LoginSucceeded  int64
	LoginFailed     int64
}

// Snapshot returns the current counter values.
func (m *InMemory) Snapshot() Snapshot {
	return Snapshot{
		CategoryCreated: m.categoryCreated.Load(),
		CategoryUpdated: m.categoryUpdated.Load(),
		CategoryDeleted: m.categoryDeleted.Load(),
		ItemCreated:     m.itemCreated.Load(),
		ItemUpdated:     m.itemUpdated.Load(),
		ItemDeleted:     m.itemDeleted.Load(),
		LoginSucceeded:  m.loginSucceeded.Load(),
		LoginFailed:     m.loginFailed.Load(),
	}
}
