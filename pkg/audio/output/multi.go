// ABOUTME: Fan-out audio output
// ABOUTME: Duplicates samples to several outputs, e.g. speaker and WAV file
package output

import (
	"errors"
	"fmt"
)

// Multi writes every call through to each of its outputs in order
type Multi struct {
	outputs []Output
}

// NewMulti creates an output that fans out to outputs
func NewMulti(outputs ...Output) *Multi {
	return &Multi{outputs: outputs}
}

// Open opens each output, stopping at the first failure
func (m *Multi) Open(sampleRate, channels int) error {
	for i, out := range m.outputs {
		if err := out.Open(sampleRate, channels); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}
	return nil
}

// Write writes samples to each output, stopping at the first failure
func (m *Multi) Write(samples []float64) error {
	for i, out := range m.outputs {
		if err := out.Write(samples); err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
	}
	return nil
}

// Close closes every output and joins their errors
func (m *Multi) Close() error {
	var errs []error
	for _, out := range m.outputs {
		if err := out.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
