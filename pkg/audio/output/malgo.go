// ABOUTME: Malgo-based audio output implementation with float32 device format
// ABOUTME: Uses miniaudio via malgo, fed from a ring buffer by the device callback
package output

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/smallnest/ringbuffer"
)

const (
	malgoBytesPerSample = 4 // float32

	// Ring buffer capacity in milliseconds of audio
	malgoBufferMs = 500

	// How long Write waits for the callback to drain a full buffer
	malgoWriteRetry = 5 * time.Millisecond
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	malgoCtx   *malgo.AllocatedContext
	device     *malgo.Device
	sampleRate int
	channels   int
	volume     int
	muted      bool
	ready      bool

	// Ring buffer of float32 little-endian samples, drained by the callback
	ringBuffer *ringbuffer.RingBuffer
	mu         sync.Mutex
}

// NewMalgo creates a new Malgo output
func NewMalgo() *Malgo {
	return &Malgo{
		volume: 100,
	}
}

// Open initializes the output device with specified format
func (m *Malgo) Open(sampleRate, channels int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// If already initialized with same format, reuse
	if m.device != nil && m.sampleRate == sampleRate && m.channels == channels {
		log.Printf("Audio output already initialized with same format, reusing device")
		return nil
	}

	// If format changed, reinitialize
	if m.device != nil {
		log.Printf("Format change detected (%dHz/%dch -> %dHz/%dch), reinitializing device",
			m.sampleRate, m.channels, sampleRate, channels)
		m.closeDevice()
	}

	// Create malgo context if needed
	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	bufferBytes := (sampleRate * channels * malgoBufferMs / 1000) * malgoBytesPerSample
	m.ringBuffer = ringbuffer.New(bufferBytes)

	// Configure device
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, frameCount uint32) {
			m.dataCallback(pOutputSample)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.sampleRate = sampleRate
	m.channels = channels
	m.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels (malgo/F32)", sampleRate, channels)

	return nil
}

// Write queues audio samples for playback, waiting while the buffer is full
func (m *Malgo) Write(samples []float64) error {
	m.mu.Lock()
	ready, rb := m.ready, m.ringBuffer
	multiplier := getVolumeMultiplier(m.volume, m.muted)
	m.mu.Unlock()

	if !ready {
		return fmt.Errorf("output not initialized")
	}

	data := encodeFloat32LE(samples, multiplier)
	for written := 0; written < len(data); {
		n, err := rb.Write(data[written:])
		written += n
		if err != nil && n == 0 && !errors.Is(err, ringbuffer.ErrIsFull) {
			return fmt.Errorf("ring buffer write failed: %w", err)
		}
		if written < len(data) {
			time.Sleep(malgoWriteRetry)
		}
	}

	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(pOutput []byte) {
	n, _ := m.ringBuffer.Read(pOutput)

	// Zero-fill remaining on underrun
	for i := n; i < len(pOutput); i++ {
		pOutput[i] = 0
	}
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()

	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device == nil {
		return
	}
	if err := m.device.Stop(); err != nil {
		log.Printf("Warning: device stop error: %v", err)
	}
	m.device.Uninit()
	m.device = nil
	m.ready = false
}

// SetVolume sets the volume (0-100)
func (m *Malgo) SetVolume(volume int) {
	volume = clampVolume(volume)
	m.mu.Lock()
	m.volume = volume
	m.mu.Unlock()
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (m *Malgo) SetMuted(muted bool) {
	m.mu.Lock()
	m.muted = muted
	m.mu.Unlock()
	log.Printf("Muted: %v", muted)
}

// GetVolume returns current volume
func (m *Malgo) GetVolume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// IsMuted returns mute state
func (m *Malgo) IsMuted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// encodeFloat32LE scales samples, clips them to [-1, 1] and packs them as
// float32 little-endian
func encodeFloat32LE(samples []float64, multiplier float64) []byte {
	output := make([]byte, len(samples)*malgoBytesPerSample)
	for i, sample := range samples {
		v := sample * multiplier
		switch {
		case math.IsNaN(v):
			v = 0
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		}
		binary.LittleEndian.PutUint32(output[i*malgoBytesPerSample:], math.Float32bits(float32(v)))
	}
	return output
}
