package dataflow

// Option configures the behavior of pipeline stages.
type Option func(*config)

type config struct {
	workers    int
	bufferSize int
	// errorHandler sees every item fn failed on. Returning false stops the
	// stage.
	errorHandler func(error) bool
}

// defaultConfig returns the default configuration.
func defaultConfig() *config {
	return &config{
		workers:    1,
		bufferSize: 0,
	}
}

// WithWorkers sets the number of concurrent workers for a stage.
// Default is 1 (sequential).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithBufferSize sets the buffer size for the output channel of a stage.
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.bufferSize = n
		}
	}
}

// WithErrorHandler sets a custom error handler. It may be called from
// several workers at once.
// If the handler returns true, the item is skipped and the stage continues.
// If false, the stage stops consuming further items.
func WithErrorHandler(h func(error) bool) Option {
	return func(c *config) {
		c.errorHandler = h
	}
}
