// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats, catalog file formats and sample conversions
package audio

import (
	"fmt"
	"math"
	"strings"
)

// Format describes a decoded audio stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int // Source bit depth, 0 for lossy codecs
}

// FileFormat identifies an encoded file as offered by the catalog.
// The zero value is FormatUnknown.
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatOggVorbis96
	FormatOggVorbis160
	FormatOggVorbis320
	FormatMP3_96
	FormatMP3_160
	FormatMP3_160Enc // encrypted MP3, not decodable as plain MP3
	FormatMP3_256
	FormatMP3_320
	FormatAAC24
	FormatAAC48
	FormatFLAC
	FormatFLAC24Bit
	FormatOggOpus
)

var fileFormatNames = map[FileFormat]string{
	FormatUnknown:      "UNKNOWN",
	FormatOggVorbis96:  "OGG_VORBIS_96",
	FormatOggVorbis160: "OGG_VORBIS_160",
	FormatOggVorbis320: "OGG_VORBIS_320",
	FormatMP3_96:       "MP3_96",
	FormatMP3_160:      "MP3_160",
	FormatMP3_160Enc:   "MP3_160_ENC",
	FormatMP3_256:      "MP3_256",
	FormatMP3_320:      "MP3_320",
	FormatAAC24:        "AAC_24",
	FormatAAC48:        "AAC_48",
	FormatFLAC:         "FLAC_FLAC",
	FormatFLAC24Bit:    "FLAC_FLAC_24BIT",
	FormatOggOpus:      "OGG_OPUS",
}

// AllFileFormats lists every known format except FormatUnknown
func AllFileFormats() []FileFormat {
	formats := make([]FileFormat, 0, len(fileFormatNames)-1)
	for f := FormatOggVorbis96; f <= FormatOggOpus; f++ {
		formats = append(formats, f)
	}
	return formats
}

func (f FileFormat) String() string {
	if name, ok := fileFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("FileFormat(%d)", int(f))
}

// ParseFileFormat converts a catalog name such as "OGG_VORBIS_320" to a FileFormat
func ParseFileFormat(name string) (FileFormat, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for f, n := range fileFormatNames {
		if f != FormatUnknown && n == upper {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown file format: %q", name)
}

// FormatForExtension picks a representative format for a file extension.
// Bitrate is not recoverable from the extension, so the highest tier is used.
func FormatForExtension(ext string) FileFormat {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "ogg", "oga":
		return FormatOggVorbis320
	case "mp3":
		return FormatMP3_320
	case "flac":
		return FormatFLAC
	case "opus":
		return FormatOggOpus
	default:
		return FormatUnknown
	}
}

// SampleFromInt16 converts a 16-bit sample to a float in [-1, 1)
func SampleFromInt16(sample int16) float64 {
	return float64(sample) / 32768
}

// SampleFromPCM converts a signed integer sample of the given bit depth
// to a float in [-1, 1)
func SampleFromPCM(sample int32, bitDepth int) float64 {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0
	}
	return float64(sample) / float64(uint64(1)<<(bitDepth-1))
}

// SampleToInt16 converts a float sample to 16-bit, clipping out of range values
func SampleToInt16(sample float64) int16 {
	if math.IsNaN(sample) {
		return 0
	}
	scaled := math.Round(sample * 32768)
	if scaled > math.MaxInt16 {
		return math.MaxInt16
	}
	if scaled < math.MinInt16 {
		return math.MinInt16
	}
	return int16(scaled)
}
