// ABOUTME: Sample rate converting audio output
// ABOUTME: Wraps another output and resamples to a fixed device rate
package output

import (
	"log"

	"github.com/Resonate-Protocol/resonate-playback/pkg/audio/resample"
)

// Resampled converts whatever rate it is opened with to a fixed rate
// before handing samples to the wrapped output
type Resampled struct {
	out       Output
	rate      int
	inputRate int
	channels  int
	resampler *resample.Resampler
}

// NewResampled wraps out so it always receives samples at rate
func NewResampled(out Output, rate int) *Resampled {
	return &Resampled{out: out, rate: rate}
}

// Open opens the wrapped output at the fixed rate. Reopening with the
// same format drops the interpolation state left by earlier writes.
func (r *Resampled) Open(sampleRate, channels int) error {
	if r.resampler != nil && r.inputRate == sampleRate && r.channels == channels {
		r.resampler.Reset()
		return r.out.Open(r.rate, channels)
	}

	r.resampler = resample.New(sampleRate, r.rate, channels)
	r.inputRate = sampleRate
	r.channels = channels
	if !r.resampler.Passthrough() {
		log.Printf("Resampling %dHz -> %dHz", sampleRate, r.rate)
	}
	return r.out.Open(r.rate, channels)
}

// Write resamples and forwards samples
func (r *Resampled) Write(samples []float64) error {
	if r.resampler == nil {
		return r.out.Write(samples)
	}
	converted := r.resampler.Resample(samples)
	if len(converted) == 0 {
		return nil
	}
	return r.out.Write(converted)
}

// Close closes the wrapped output
func (r *Resampled) Close() error {
	return r.out.Close()
}
