//go:build !linux

package input

import "context"

// Run fails on platforms without the GPIO character device.
func (s *GPIOSource) Run(ctx context.Context, sink Sink) error {
	return ErrGPIOUnsupported
}
