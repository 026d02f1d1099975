package metrics

// Noop is a Recorder that discards every event.
type Noop struct{}

// NewNoop creates a no-op Recorder.
func NewNoop() *Noop {
	return &Noop{}
}

func (Noop) IncCategoryCreated() {}
func (Noop) IncCategoryUpdated() {}
func (Noop) IncCategoryDeleted() {}
func (Noop) IncItemCreated()     {}
func (Noop) IncItemUpdated()     {}
func (Noop) IncItemDeleted()     {}
func (Noop) IncLoginSucceeded()  {}
func (Noop) IncLoginFailed()     {}
