// ABOUTME: Decoder output packet
// ABOUTME: Holds either decoded PCM samples or a raw Ogg page
package decode

import "fmt"

// PacketKind tells which variant a Packet holds
type PacketKind int

const (
	PacketSamples PacketKind = iota
	PacketRaw
)

func (k PacketKind) String() string {
	switch k {
	case PacketSamples:
		return "samples"
	case PacketRaw:
		return "raw"
	default:
		return fmt.Sprintf("PacketKind(%d)", int(k))
	}
}

// Packet is one unit of decoder output: interleaved float64 samples or the
// bytes of an undecoded page. The caller owns it once returned.
type Packet struct {
	kind    PacketKind
	samples []float64
	raw     []byte
}

// NewSamplesPacket wraps decoded samples without copying them
func NewSamplesPacket(samples []float64) *Packet {
	return &Packet{kind: PacketSamples, samples: samples}
}

// NewRawPacket wraps undecoded bytes without copying them
func NewRawPacket(data []byte) *Packet {
	return &Packet{kind: PacketRaw, raw: data}
}

// Kind returns the variant held by the packet
func (p *Packet) Kind() PacketKind {
	return p.kind
}

// Samples returns the decoded samples, or ErrRawPacket for a raw packet
func (p *Packet) Samples() ([]float64, error) {
	if p.kind != PacketSamples {
		return nil, ErrRawPacket
	}
	return p.samples, nil
}

// OggData returns the raw page bytes, or ErrSamplesPacket for a samples packet
func (p *Packet) OggData() ([]byte, error) {
	if p.kind != PacketRaw {
		return nil, ErrSamplesPacket
	}
	return p.raw, nil
}

// IsEmpty reports whether the held sequence has no elements
func (p *Packet) IsEmpty() bool {
	return p.Len() == 0
}

// Len returns the number of samples or bytes held
func (p *Packet) Len() int {
	switch p.kind {
	case PacketSamples:
		return len(p.samples)
	case PacketRaw:
		return len(p.raw)
	}
	return 0
}
