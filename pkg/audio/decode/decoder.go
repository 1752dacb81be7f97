// ABOUTME: Decoder interface definition
// ABOUTME: Seek/read contract, format classifiers and backend selection
package decode

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/resonate-playback/pkg/audio"
)

// Decoder pulls packets from one encoded stream.
//
// Implementations are not safe for concurrent use; one reader drives a
// decoder at a time.
type Decoder interface {
	// Seek moves the cursor to the nearest reachable position at or before
	// absgp and returns it. Positions are in samples per channel (granule
	// positions for Ogg streams). Seeking past the end of the stream fails.
	Seek(absgp uint64) (uint64, error)

	// NextPacket returns the next packet, or nil with a nil error once the
	// stream is exhausted. Exhaustion is sticky until a successful Seek.
	NextPacket() (*Packet, error)

	// Format describes the stream being decoded
	Format() audio.Format

	// Close releases decoder resources, including the source if it is an io.Closer
	Close() error
}

// IsOggVorbis reports whether f belongs to the Ogg Vorbis family
func IsOggVorbis(f audio.FileFormat) bool {
	switch f {
	case audio.FormatOggVorbis320, audio.FormatOggVorbis160, audio.FormatOggVorbis96:
		return true
	default:
		return false
	}
}

// IsMP3 reports whether f belongs to the plain MP3 family. The encrypted
// MP3_160_ENC variant is not included.
func IsMP3(f audio.FileFormat) bool {
	switch f {
	case audio.FormatMP3_320, audio.FormatMP3_256, audio.FormatMP3_160, audio.FormatMP3_96:
		return true
	default:
		return false
	}
}

// IsFLAC reports whether f belongs to the FLAC family
func IsFLAC(f audio.FileFormat) bool {
	return f == audio.FormatFLAC || f == audio.FormatFLAC24Bit
}

// IsOggOpus reports whether f is Opus in an Ogg container
func IsOggOpus(f audio.FileFormat) bool {
	return f == audio.FormatOggOpus
}

// Options tune backend selection in New
type Options struct {
	// Passthrough forwards Ogg Vorbis pages instead of decoding them
	Passthrough bool
}

// New creates the decoder matching format f over r
func New(f audio.FileFormat, r io.ReadSeeker, opts Options) (Decoder, error) {
	switch {
	case IsOggVorbis(f) && opts.Passthrough:
		return NewPassthrough(r)
	case IsOggVorbis(f):
		return NewVorbis(r)
	case IsMP3(f):
		return NewMP3(r)
	case IsFLAC(f):
		return NewFLAC(r)
	case IsOggOpus(f):
		return NewOpus(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// closeSource closes r when it owns a resource
func closeSource(r io.Reader) error {
	if c, ok := r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
