// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Streams interleaved float64 samples through linear interpolation
package resample

import "math"

// Resampler performs linear interpolation to convert between sample rates.
// It keeps the last frame of each chunk so consecutive calls join without
// gaps.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64 // in input frames, relative to the next chunk
	lastFrame  []float64
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastFrame:  make([]float64, channels),
	}
}

// Passthrough reports whether input and output rates match
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// Resample converts one chunk of interleaved samples at inputRate to
// interleaved samples at outputRate. A trailing partial frame is ignored.
func (r *Resampler) Resample(input []float64) []float64 {
	if r.Passthrough() {
		return input
	}

	frames := len(input) / r.channels
	if frames == 0 {
		return nil
	}

	sample := func(frame, ch int) float64 {
		if frame < 0 {
			return r.lastFrame[ch]
		}
		return input[frame*r.channels+ch]
	}

	if !r.primed {
		r.position = 0
		r.primed = true
	}

	output := make([]float64, 0, r.OutputSamplesNeeded(len(input))+r.channels)
	for r.position < float64(frames-1) {
		idx := int(math.Floor(r.position))
		frac := r.position - float64(idx)

		for ch := 0; ch < r.channels; ch++ {
			s1 := sample(idx, ch)
			s2 := sample(idx+1, ch)
			output = append(output, s1*(1.0-frac)+s2*frac)
		}
		r.position += r.ratio
	}

	// Carry the final frame and rebase the position on the next chunk
	copy(r.lastFrame, input[(frames-1)*r.channels:frames*r.channels])
	r.position -= float64(frames)

	return output
}

// Reset resets the resampler state, e.g. after a seek
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	for i := range r.lastFrame {
		r.lastFrame[i] = 0
	}
}

// OutputSamplesNeeded estimates how many output samples inputSamples produce
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.channels
}
