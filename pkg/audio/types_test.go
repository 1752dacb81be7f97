// ABOUTME: Tests for audio types
// ABOUTME: Tests file format naming and sample conversion functions
package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileFormatString(t *testing.T) {
	assert.Equal(t, "OGG_VORBIS_320", FormatOggVorbis320.String())
	assert.Equal(t, "MP3_160_ENC", FormatMP3_160Enc.String())
	assert.Equal(t, "UNKNOWN", FormatUnknown.String())
	assert.Equal(t, "FileFormat(99)", FileFormat(99).String())
}

func TestParseFileFormat(t *testing.T) {
	for _, f := range AllFileFormats() {
		parsed, err := ParseFileFormat(f.String())
		require.NoError(t, err, f.String())
		assert.Equal(t, f, parsed)
	}

	parsed, err := ParseFileFormat(" mp3_96 ")
	require.NoError(t, err)
	assert.Equal(t, FormatMP3_96, parsed)

	_, err = ParseFileFormat("UNKNOWN")
	assert.Error(t, err)

	_, err = ParseFileFormat("WMA_128")
	assert.EqualError(t, err, `unknown file format: "WMA_128"`)
}

func TestAllFileFormats(t *testing.T) {
	formats := AllFileFormats()
	assert.Len(t, formats, len(fileFormatNames)-1)
	assert.NotContains(t, formats, FormatUnknown)
}

func TestFormatForExtension(t *testing.T) {
	tests := []struct {
		ext      string
		expected FileFormat
	}{
		{".ogg", FormatOggVorbis320},
		{"OGG", FormatOggVorbis320},
		{".mp3", FormatMP3_320},
		{".flac", FormatFLAC},
		{".opus", FormatOggOpus},
		{".wav", FormatUnknown},
		{"", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatForExtension(tt.ext))
		})
	}
}

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected float64
	}{
		{"zero", 0, 0},
		{"half", 16384, 0.5},
		{"negative half", -16384, -0.5},
		{"min", -32768, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SampleFromInt16(tt.input))
		})
	}
}

func TestSampleFromPCM(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		bitDepth int
		expected float64
	}{
		{"16-bit half", 16384, 16, 0.5},
		{"24-bit min", -8388608, 24, -1},
		{"24-bit quarter", 2097152, 24, 0.25},
		{"8-bit", 64, 8, 0.5},
		{"invalid depth", 100, 0, 0},
		{"oversized depth", 100, 33, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SampleFromPCM(tt.input, tt.bitDepth))
		})
	}
}

func TestSampleToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected int16
	}{
		{"zero", 0, 0},
		{"half", 0.5, 16384},
		{"full scale clips", 1, 32767},
		{"over range clips", 3.5, 32767},
		{"under range clips", -2, -32768},
		{"min", -1, -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SampleToInt16(tt.input))
		})
	}
}

func TestRoundTrip16Bit(t *testing.T) {
	samples := []int16{0, 100, -100, 1000, -1000, 32767, -32768}

	for _, original := range samples {
		result := SampleToInt16(SampleFromInt16(original))
		assert.Equal(t, original, result, "round-trip failed for %d", original)
	}
}
