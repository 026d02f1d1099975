// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	IncCategoryCreated()
	IncCategoryUpdated()
	IncCategoryDeleted()

	IncItemCreated()
	IncItemUpdated()
	IncItemDeleted()

	IncLoginSucceeded()
	IncLoginFailed()
}
