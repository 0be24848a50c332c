package components

// Component represents a service component with lifecycle management
type Component interface {
	// Start starts the component
	Start() error

	// Stop stops the component
	Stop() error

	// Name returns the component name for logging
	Name() string
}

var (
	_ Component = (*ProxyService)(nil)
	_ Component = (*APIServer)(nil)
)
