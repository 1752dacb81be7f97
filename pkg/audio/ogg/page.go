// ABOUTME: Ogg page representation and serialisation
// ABOUTME: Builds pages from packets and computes the Ogg CRC
package ogg

import (
	"encoding/binary"
	"errors"
)

const (
	// HeaderSize is the fixed part of a page header, before the segment table
	HeaderSize = 27

	// MaxSegments is the largest segment table a page can carry
	MaxSegments = 255

	// UnknownGranule marks a page on which no packet ends
	UnknownGranule = ^uint64(0)
)

// Header type flags
const (
	FlagContinued byte = 0x01
	FlagBOS       byte = 0x02
	FlagEOS       byte = 0x04
)

var capturePattern = [4]byte{'O', 'g', 'g', 'S'}

// ErrPageTooLarge is returned when packets need more than MaxSegments lacing values
var ErrPageTooLarge = errors.New("ogg: packets do not fit in one page")

// Page is one Ogg page. Segments holds the lacing values and Payload the
// concatenated segment data.
type Page struct {
	HeaderType byte
	Granule    uint64
	Serial     uint32
	Sequence   uint32
	Segments   []byte
	Payload    []byte

	// Offset is the byte offset of the capture pattern in the source stream.
	// Zero for pages built in memory.
	Offset int64
}

// NewPage lays out packets in a single page. Every packet is terminated
// on this page.
func NewPage(serial, sequence uint32, granule uint64, headerType byte, packets ...[]byte) (*Page, error) {
	var segments []byte
	var payload []byte
	for _, pkt := range packets {
		n := len(pkt)
		for n >= 255 {
			segments = append(segments, 255)
			n -= 255
		}
		segments = append(segments, byte(n))
		payload = append(payload, pkt...)
	}
	if len(segments) > MaxSegments {
		return nil, ErrPageTooLarge
	}

	return &Page{
		HeaderType: headerType,
		Granule:    granule,
		Serial:     serial,
		Sequence:   sequence,
		Segments:   segments,
		Payload:    payload,
	}, nil
}

// Continued reports whether the first segment continues a packet from the previous page
func (p *Page) Continued() bool { return p.HeaderType&FlagContinued != 0 }

// BOS reports whether this is the first page of a logical stream
func (p *Page) BOS() bool { return p.HeaderType&FlagBOS != 0 }

// EOS reports whether this is the last page of a logical stream
func (p *Page) EOS() bool { return p.HeaderType&FlagEOS != 0 }

// Unterminated reports whether the last packet on the page continues on the next page
func (p *Page) Unterminated() bool {
	return len(p.Segments) > 0 && p.Segments[len(p.Segments)-1] == 255
}

// Packets splits the payload along the lacing values. When Unterminated
// is true the last element is only the first part of a packet; when
// Continued is true the first element is the tail of an earlier one.
func (p *Page) Packets() [][]byte {
	var packets [][]byte
	start, idx := 0, 0
	for i, seg := range p.Segments {
		idx += int(seg)
		if seg < 255 || i == len(p.Segments)-1 {
			packets = append(packets, p.Payload[start:idx])
			start = idx
		}
	}
	return packets
}

// Len returns the serialised size of the page in bytes
func (p *Page) Len() int {
	return HeaderSize + len(p.Segments) + len(p.Payload)
}

// Bytes serialises the page, computing its checksum
func (p *Page) Bytes() []byte {
	buf := make([]byte, p.Len())
	copy(buf[0:4], capturePattern[:])
	buf[4] = 0 // stream structure version
	buf[5] = p.HeaderType
	binary.LittleEndian.PutUint64(buf[6:14], p.Granule)
	binary.LittleEndian.PutUint32(buf[14:18], p.Serial)
	binary.LittleEndian.PutUint32(buf[18:22], p.Sequence)
	buf[26] = byte(len(p.Segments))
	copy(buf[HeaderSize:], p.Segments)
	copy(buf[HeaderSize+len(p.Segments):], p.Payload)

	binary.LittleEndian.PutUint32(buf[22:26], crc(buf))
	return buf
}

// crcTable is the Ogg variant of CRC-32: polynomial 0x04c11db7, no
// reflection, zero initial value and no final xor.
var crcTable = func() [256]uint32 {
	var table [256]uint32
	for i := range table {
		r := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if r&0x80000000 != 0 {
				r = r<<1 ^ 0x04c11db7
			} else {
				r <<= 1
			}
		}
		table[i] = r
	}
	return table
}()

// crc computes the checksum of a serialised page whose checksum field is zero
func crc(data []byte) uint32 {
	var c uint32
	for _, b := range data {
		c = c<<8 ^ crcTable[byte(c>>24)^b]
	}
	return c
}
