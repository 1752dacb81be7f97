// ABOUTME: Tests for the linear resampler
// ABOUTME: Tests identity, up/down sampling and continuity across chunks
package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPassthroughRate(t *testing.T) {
	r := New(44100, 44100, 2)
	in := []float64{0.1, 0.2, 0.3, 0.4}
	assert.True(t, r.Passthrough())
	assert.Equal(t, in, r.Resample(in))
}

func TestUpsampleAcrossChunks(t *testing.T) {
	r := New(1, 2, 1)

	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 1.5, 2, 2.5}, r.Resample([]float64{0, 1, 2, 3}), 1e-9)
	// the first output of the next chunk interpolates from the carried frame
	assert.InDeltaSlice(t, []float64{3, 3.5, 4, 4.5}, r.Resample([]float64{4, 5}), 1e-9)
}

func TestDownsampleAcrossChunks(t *testing.T) {
	r := New(2, 1, 1)

	assert.InDeltaSlice(t, []float64{0, 2, 4}, r.Resample([]float64{0, 1, 2, 3, 4, 5}), 1e-9)
	assert.InDeltaSlice(t, []float64{6, 8}, r.Resample([]float64{6, 7, 8, 9}), 1e-9)
}

func TestStereoInterleaving(t *testing.T) {
	r := New(1, 2, 2)

	out := r.Resample([]float64{0, 1, 1, 0})
	assert.InDeltaSlice(t, []float64{0, 1, 0.5, 0.5}, out, 1e-9)
}

func TestEmptyAndPartialFrames(t *testing.T) {
	r := New(48000, 44100, 2)
	assert.Nil(t, r.Resample(nil))
	assert.Nil(t, r.Resample([]float64{0.5}))
}

func TestReset(t *testing.T) {
	r := New(1, 2, 1)
	r.Resample([]float64{0, 1, 2})
	r.Reset()

	assert.InDeltaSlice(t, []float64{10, 10.5}, r.Resample([]float64{10, 11}), 1e-9)
}

func TestOutputSamplesNeeded(t *testing.T) {
	assert.Equal(t, 3, New(2, 1, 1).OutputSamplesNeeded(6))
	assert.Equal(t, 4*2, New(1, 2, 2).OutputSamplesNeeded(4))
}
