// ABOUTME: WAV file audio output implementation
// ABOUTME: Writes decoded samples as 16-bit PCM using go-audio/wav
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Resonate-Protocol/resonate-playback/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// WAV output writes a 16-bit PCM WAV file
type WAV struct {
	path    string
	file    *os.File
	encoder *wav.Encoder
	format  *goaudio.Format
	written int
}

// NewWAV creates a WAV output that will write to path on Open
func NewWAV(path string) *WAV {
	return &WAV{path: path}
}

// Open creates the file and writes the WAV header
func (w *WAV) Open(sampleRate, channels int) error {
	if w.file != nil {
		return fmt.Errorf("wav output already open: %s", w.path)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}

	// audio format 1 is integer PCM
	w.file = f
	w.encoder = wav.NewEncoder(f, sampleRate, wavBitDepth, channels, 1)
	w.format = &goaudio.Format{SampleRate: sampleRate, NumChannels: channels}
	return nil
}

// Write appends samples to the file
func (w *WAV) Write(samples []float64) error {
	if w.encoder == nil {
		return fmt.Errorf("output not initialized")
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(audio.SampleToInt16(s))
	}

	buf := &goaudio.IntBuffer{Data: data, Format: w.format, SourceBitDepth: wavBitDepth}
	if err := w.encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to write to wav encoder: %w", err)
	}
	w.written += len(samples)
	return nil
}

// Written returns the number of samples written so far
func (w *WAV) Written() int {
	return w.written
}

// Close finalises the WAV header and closes the file
func (w *WAV) Close() error {
	if w.file == nil {
		return nil
	}

	encErr := w.encoder.Close()
	fileErr := w.file.Close()
	w.file = nil
	w.encoder = nil

	if encErr != nil {
		return fmt.Errorf("failed to finalize wav file: %w", encErr)
	}
	return fileErr
}
