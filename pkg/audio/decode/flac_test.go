// ABOUTME: Tests for the FLAC decoder
// ABOUTME: Tests frame aligned seeking, end of stream and sample scaling on encoded streams
package decode

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFLACBlock  = 4096
	testFLACFrames = 3
	testFLACLength = testFLACBlock * testFLACFrames
)

// flacStream encodes frames blocks of stereo audio where every left
// sample is left and every right sample is right. The stream is written
// to a file so the encoder can fill in the sample count on Close.
func flacStream(t *testing.T, bitDepth uint8, frames int, left, right int32) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.flac")
	f, err := os.Create(path)
	require.NoError(t, err)

	info := &meta.StreamInfo{
		BlockSizeMin:  testFLACBlock,
		BlockSizeMax:  testFLACBlock,
		SampleRate:    44100,
		NChannels:     2,
		BitsPerSample: bitDepth,
	}
	enc, err := flac.NewEncoder(f, info)
	require.NoError(t, err)

	subframe := func(v int32) *frame.Subframe {
		samples := make([]int32, testFLACBlock)
		for i := range samples {
			samples[i] = v
		}
		return &frame.Subframe{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   samples,
			NSamples:  testFLACBlock,
		}
	}

	for i := 0; i < frames; i++ {
		fr := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         testFLACBlock,
				SampleRate:        44100,
				Channels:          frame.ChannelsLR,
				BitsPerSample:     bitDepth,
				Num:               uint64(i),
			},
			Subframes: []*frame.Subframe{subframe(left), subframe(right)},
		}
		require.NoError(t, enc.WriteFrame(fr))
	}
	require.NoError(t, enc.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func newTestFLAC(t *testing.T) Decoder {
	t.Helper()
	d, err := NewFLAC(bytes.NewReader(flacStream(t, 16, testFLACFrames, 16384, -8192)))
	require.NoError(t, err)
	return d
}

func TestNewFLAC(t *testing.T) {
	d := newTestFLAC(t)

	format := d.Format()
	assert.Equal(t, "flac", format.Codec)
	assert.Equal(t, 44100, format.SampleRate)
	assert.Equal(t, 2, format.Channels)
	assert.Equal(t, 16, format.BitDepth)
}

func TestFLACDecodesWholeStream(t *testing.T) {
	d := newTestFLAC(t)
	assert.Equal(t, testFLACLength, drain(t, d))

	pkt, err := d.NextPacket()
	require.NoError(t, err)
	assert.Nil(t, pkt)
}

func TestFLACSeek(t *testing.T) {
	tests := []struct {
		name    string
		target  uint64
		reached uint64
	}{
		{"start", 0, 0},
		{"inside first frame", 100, 0},
		{"frame boundary", testFLACBlock, testFLACBlock},
		{"inside second frame", 5000, testFLACBlock},
		{"inside last frame", testFLACLength - 1, testFLACLength - testFLACBlock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestFLAC(t)

			reached, err := d.Seek(tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.reached, reached)

			// output resumes at the start of the containing frame
			pkt, err := d.NextPacket()
			require.NoError(t, err)
			require.NotNil(t, pkt)
			assert.Equal(t, PacketSamples, pkt.Kind())
			assert.Equal(t, testFLACBlock*2, pkt.Len())

			rest := drain(t, d)
			assert.Equal(t, testFLACLength-int(reached), testFLACBlock+rest)
		})
	}
}

func TestFLACSeekToEnd(t *testing.T) {
	d := newTestFLAC(t)

	reached, err := d.Seek(testFLACLength)
	require.NoError(t, err)
	assert.Equal(t, uint64(testFLACLength), reached)

	pkt, err := d.NextPacket()
	require.NoError(t, err)
	assert.Nil(t, pkt)

	// a seek back revives the decoder
	_, err = d.Seek(0)
	require.NoError(t, err)
	assert.Equal(t, testFLACLength, drain(t, d))
}

func TestFLACSeekBeyondEnd(t *testing.T) {
	d := newTestFLAC(t)

	_, err := d.Seek(testFLACLength + 1)
	require.Error(t, err)
	assert.True(t, IsDecoderError(err, KindFullDecode))
	assert.EqualError(t, err, "full decoder error: seek position 12289 beyond end of stream (12288)")
}

func TestFLACScalesByBitDepth(t *testing.T) {
	tests := []struct {
		bitDepth    uint8
		left, right int32
	}{
		{16, 16384, -8192},
		{24, 1 << 22, -(1 << 21)},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d-bit", tt.bitDepth), func(t *testing.T) {
			d, err := NewFLAC(bytes.NewReader(flacStream(t, tt.bitDepth, 1, tt.left, tt.right)))
			require.NoError(t, err)
			assert.Equal(t, int(tt.bitDepth), d.Format().BitDepth)

			pkt, err := d.NextPacket()
			require.NoError(t, err)
			require.NotNil(t, pkt)

			samples, err := pkt.Samples()
			require.NoError(t, err)
			require.Len(t, samples, testFLACBlock*2)
			assert.Equal(t, 0.5, samples[0])
			assert.Equal(t, -0.25, samples[1])
			assert.Equal(t, 0.5, samples[len(samples)-2])
		})
	}
}
