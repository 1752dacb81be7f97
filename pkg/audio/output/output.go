// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for render sinks consuming decoded samples
package output

// Output represents a sink for decoded audio
type Output interface {
	// Open prepares the sink for interleaved samples in the given layout
	Open(sampleRate, channels int) error

	// Write outputs interleaved float64 samples (blocks until written)
	Write(samples []float64) error

	// Close releases output resources
	Close() error
}
