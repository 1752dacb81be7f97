// ABOUTME: Ogg page and packet readers
// ABOUTME: Parses pages from a byte stream and reassembles logical packets
package ogg

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrChecksum is returned for a page whose CRC does not match its contents
	ErrChecksum = errors.New("ogg: page checksum mismatch")

	// ErrVersion is returned for a page with an unsupported stream structure version
	ErrVersion = errors.New("ogg: unsupported stream structure version")

	// ErrNotSeekable is returned by Seek when the source does not implement io.Seeker
	ErrNotSeekable = errors.New("ogg: source is not seekable")
)

// Reader reads Ogg pages from a byte stream. Junk between pages is skipped
// by scanning for the capture pattern.
type Reader struct {
	src    io.Reader
	r      *bufio.Reader
	offset int64
}

// NewReader creates a Reader that will read Ogg data from r
func NewReader(r io.Reader) *Reader {
	return &Reader{src: r, r: bufio.NewReader(r)}
}

// Offset returns the byte offset of the next unread byte
func (r *Reader) Offset() int64 {
	return r.offset
}

// Seek repositions the reader at an absolute byte offset, normally a
// Page.Offset returned earlier.
func (r *Reader) Seek(offset int64) error {
	seeker, ok := r.src.(io.Seeker)
	if !ok {
		return ErrNotSeekable
	}
	if _, err := seeker.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("ogg: seek to %d: %w", offset, err)
	}
	r.r.Reset(r.src)
	r.offset = offset
	return nil
}

// Next returns the next page. It returns io.EOF when the stream ends on a
// page boundary and io.ErrUnexpectedEOF when a page is truncated.
func (r *Reader) Next() (*Page, error) {
	header := make([]byte, HeaderSize)
	start, err := r.sync(header)
	if err != nil {
		return nil, err
	}
	if err := r.readFull(header[4:]); err != nil {
		return nil, err
	}
	if header[4] != 0 {
		return nil, fmt.Errorf("%w: %d at offset %d", ErrVersion, header[4], start)
	}

	page := &Page{
		HeaderType: header[5],
		Granule:    binary.LittleEndian.Uint64(header[6:14]),
		Serial:     binary.LittleEndian.Uint32(header[14:18]),
		Sequence:   binary.LittleEndian.Uint32(header[18:22]),
		Segments:   make([]byte, header[26]),
		Offset:     start,
	}
	if err := r.readFull(page.Segments); err != nil {
		return nil, err
	}

	var total int
	for _, v := range page.Segments {
		total += int(v)
	}
	page.Payload = make([]byte, total)
	if err := r.readFull(page.Payload); err != nil {
		return nil, err
	}

	// Bytes recomputes the checksum from the parsed fields
	want := binary.LittleEndian.Uint32(header[22:26])
	if got := binary.LittleEndian.Uint32(page.Bytes()[22:26]); got != want {
		return nil, fmt.Errorf("%w at offset %d", ErrChecksum, start)
	}

	return page, nil
}

// sync scans for the capture pattern and returns the offset where it starts.
// The pattern is left in header[0:4].
func (r *Reader) sync(header []byte) (int64, error) {
	n, err := io.ReadFull(r.r, header[0:4])
	r.offset += int64(n)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, io.EOF
		}
		return 0, err
	}
	for [4]byte(header[0:4]) != capturePattern {
		b, err := r.r.ReadByte()
		if err != nil {
			return 0, err
		}
		r.offset++
		copy(header[0:3], header[1:4])
		header[3] = b
	}
	return r.offset - 4, nil
}

func (r *Reader) readFull(buf []byte) error {
	n, err := io.ReadFull(r.r, buf)
	r.offset += int64(n)
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Packet is a logical packet reassembled from one or more pages
type Packet struct {
	Data []byte

	// Granule is the granule position of the page on which the packet ends
	Granule uint64
	Serial  uint32
	BOS     bool
	EOS     bool

	// PageOffset is the offset of the page on which the packet ends
	PageOffset int64
}

// PacketReader reassembles packets split across page boundaries
type PacketReader struct {
	pages   *Reader
	pending []Packet
	partial []byte
	// skipping is set after Reset so that a continued first page is
	// dropped until the next packet boundary
	skipping bool
}

// NewPacketReader creates a PacketReader on top of a page Reader
func NewPacketReader(pages *Reader) *PacketReader {
	return &PacketReader{pages: pages}
}

// Pages returns the underlying page reader
func (pr *PacketReader) Pages() *Reader {
	return pr.pages
}

// Reset discards buffered and partial packets. Call it after seeking the
// underlying Reader.
func (pr *PacketReader) Reset() {
	pr.pending = nil
	pr.partial = nil
	pr.skipping = true
}

// Next returns the next complete packet, or io.EOF at the end of the stream.
// A packet left incomplete by the last page is dropped.
func (pr *PacketReader) Next() (*Packet, error) {
	for len(pr.pending) == 0 {
		page, err := pr.pages.Next()
		if err != nil {
			return nil, err
		}
		pr.assemble(page)
	}

	pkt := pr.pending[0]
	pr.pending = pr.pending[1:]
	return &pkt, nil
}

func (pr *PacketReader) assemble(page *Page) {
	parts := page.Packets()
	if len(parts) == 0 {
		return
	}

	dropFirst := false
	if page.Continued() {
		if pr.partial == nil || pr.skipping {
			dropFirst = true
		}
	} else {
		pr.partial = nil
	}
	pr.skipping = false

	unterminated := page.Unterminated()
	for i, part := range parts {
		last := i == len(parts)-1
		if i == 0 && dropFirst {
			if last && unterminated {
				// the whole page is the middle of a packet we never saw
				pr.partial = nil
				pr.skipping = true
				return
			}
			continue
		}

		data := append(pr.partial, part...)
		pr.partial = nil
		if last && unterminated {
			pr.partial = data
			continue
		}
		pr.pending = append(pr.pending, Packet{
			Data:       data,
			Granule:    page.Granule,
			Serial:     page.Serial,
			BOS:        page.BOS(),
			EOS:        page.EOS() && last,
			PageOffset: page.Offset,
		})
	}
}
