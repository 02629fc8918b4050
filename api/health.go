// Package api defines public API contracts for plugin-mq.
package api

// Probe reports whether a component can serve traffic.
type Probe interface {
	Ready() error
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func() error

func (f ProbeFunc) Ready() error {
	return f()
}
