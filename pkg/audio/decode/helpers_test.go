// ABOUTME: Test fixtures for decoder tests
// ABOUTME: Builds in-memory Ogg Vorbis and Ogg Opus streams
package decode

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/Resonate-Protocol/resonate-playback/pkg/audio/ogg"
	"github.com/stretchr/testify/require"
	"gopkg.in/hraban/opus.v2"
)

// closeTracker records whether Close was called on a source
type closeTracker struct {
	*bytes.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func vorbisIdentHeader(channels byte, sampleRate uint32) []byte {
	ident := make([]byte, vorbisIdentLen)
	ident[0] = 1
	copy(ident[1:7], "vorbis")
	ident[11] = channels
	binary.LittleEndian.PutUint32(ident[12:16], sampleRate)
	ident[28] = 0xB8 // blocksizes 256/2048
	ident[29] = 1    // framing bit
	return ident
}

// vorbisCommentSetupHeaders returns minimal Vorbis comment and setup
// header packets
func vorbisCommentSetupHeaders() ([]byte, []byte) {
	comment := append([]byte{3}, "vorbis"...)
	comment = binary.LittleEndian.AppendUint32(comment, 0) // vendor length
	comment = binary.LittleEndian.AppendUint32(comment, 0) // comment count
	comment = append(comment, 1)

	setup := append([]byte{5}, "vorbis"...)
	setup = append(setup, bytes.Repeat([]byte{0x42}, 40)...)
	return comment, setup
}

// headerPageCount is the number of pages vorbisPassthroughStream spends on
// headers: the identification page and one page with comment and setup
const headerPageCount = 2

// vorbisPassthroughStream builds an Ogg Vorbis stream of two header pages
// followed by audio pages at the given granules. It returns the stream and
// the serialised pages.
func vorbisPassthroughStream(t *testing.T, granules ...uint64) ([]byte, [][]byte) {
	t.Helper()

	var stream bytes.Buffer
	var pages [][]byte

	first, err := ogg.NewPage(1, 0, 0, ogg.FlagBOS, vorbisIdentHeader(2, 44100))
	require.NoError(t, err)
	pages = append(pages, first.Bytes())

	comment, setup := vorbisCommentSetupHeaders()
	second, err := ogg.NewPage(1, 1, 0, 0, comment, setup)
	require.NoError(t, err)
	pages = append(pages, second.Bytes())

	for i, g := range granules {
		flags := byte(0)
		if i == len(granules)-1 {
			flags = ogg.FlagEOS
		}
		page, err := ogg.NewPage(1, uint32(i+headerPageCount), g, flags, bytes.Repeat([]byte{byte(i + 1)}, 100+i))
		require.NoError(t, err)
		pages = append(pages, page.Bytes())
	}

	for _, p := range pages {
		stream.Write(p)
	}
	return stream.Bytes(), pages
}

const (
	testPreSkip   = 312
	testFrameSize = 960 // 20ms at 48kHz
)

func opusHeadPacket(channels byte, preSkip uint16) []byte {
	head := make([]byte, opusHeadLen)
	copy(head[0:8], "OpusHead")
	head[8] = 1
	head[9] = channels
	binary.LittleEndian.PutUint16(head[10:12], preSkip)
	binary.LittleEndian.PutUint32(head[12:16], opusSampleRate)
	return head
}

func opusTagsPacket() []byte {
	tags := []byte("OpusTags")
	vendor := "resonate-test"
	tags = binary.LittleEndian.AppendUint32(tags, uint32(len(vendor)))
	tags = append(tags, vendor...)
	return binary.LittleEndian.AppendUint32(tags, 0)
}

// opusStream encodes frames 20ms packets of a stereo sine wave into an
// Ogg Opus stream with one packet per page. The last page's granule is
// frames*960, so the stream holds frames*960-312 audible samples.
func opusStream(t *testing.T, frames int) []byte {
	t.Helper()

	enc, err := opus.NewEncoder(opusSampleRate, 2, opus.AppAudio)
	require.NoError(t, err)

	var stream bytes.Buffer
	write := func(p *ogg.Page, err error) {
		require.NoError(t, err)
		stream.Write(p.Bytes())
	}

	write(ogg.NewPage(7, 0, 0, ogg.FlagBOS, opusHeadPacket(2, testPreSkip)))
	write(ogg.NewPage(7, 1, 0, 0, opusTagsPacket()))

	pcm := make([]int16, testFrameSize*2)
	data := make([]byte, 4000)
	for f := 0; f < frames; f++ {
		for i := 0; i < testFrameSize; i++ {
			v := int16(8000 * math.Sin(2*math.Pi*440*float64(f*testFrameSize+i)/opusSampleRate))
			pcm[i*2] = v
			pcm[i*2+1] = v
		}
		n, err := enc.Encode(pcm, data)
		require.NoError(t, err)

		flags := byte(0)
		if f == frames-1 {
			flags = ogg.FlagEOS
		}
		packet := append([]byte(nil), data[:n]...)
		write(ogg.NewPage(7, uint32(f+2), uint64((f+1)*testFrameSize), flags, packet))
	}
	return stream.Bytes()
}

// drain pulls packets until the end of the stream and returns how many
// samples per channel were produced
func drain(t *testing.T, d Decoder) int {
	t.Helper()
	total := 0
	for {
		pkt, err := d.NextPacket()
		require.NoError(t, err)
		if pkt == nil {
			return total
		}
		samples, err := pkt.Samples()
		require.NoError(t, err)
		total += len(samples) / d.Format().Channels
	}
}

var _ io.ReadSeeker = (*closeTracker)(nil)
