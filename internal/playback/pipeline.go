// ABOUTME: Render loop driving a single decoder
// ABOUTME: Seeks once, then routes packets to the sample output or raw writer
package playback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/Resonate-Protocol/resonate-playback/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-playback/pkg/audio/ogg"
	"github.com/Resonate-Protocol/resonate-playback/pkg/audio/output"
)

// ErrNoSink is returned by Run when neither Output nor Raw is set
var ErrNoSink = errors.New("no output or raw writer configured")

// Pipeline pulls packets from one decoder until end of stream. Sample
// packets go to Output, raw pages to Raw. Packets with no matching sink
// are logged and skipped.
type Pipeline struct {
	Decoder decode.Decoder
	Output  output.Output
	Raw     io.Writer
	Metrics *Metrics
}

// Stats tracks what one run did
type Stats struct {
	Packets  int64
	Samples  int64
	RawBytes int64
	Skipped  int64
	// Position is the stream position in samples per channel, starting
	// from the position Seek reached
	Position uint64
}

// Result is delivered by Start when the run ends
type Result struct {
	Stats Stats
	Err   error
}

// Run seeks to start and drains the decoder. It returns nil at end of
// stream, the context error on cancellation, and any decoder or sink
// error otherwise.
func (p *Pipeline) Run(ctx context.Context, start uint64) (Stats, error) {
	var stats Stats

	if p.Output == nil && p.Raw == nil {
		return stats, ErrNoSink
	}

	format := p.Decoder.Format()
	if p.Output != nil {
		if err := p.Output.Open(format.SampleRate, format.Channels); err != nil {
			return stats, fmt.Errorf("failed to open output: %w", err)
		}
	}

	reached, err := p.Decoder.Seek(start)
	p.Metrics.RecordSeek(err)
	if err != nil {
		p.Metrics.RecordDecodeError(err)
		return stats, fmt.Errorf("seek to %d: %w", start, err)
	}
	stats.Position = reached

	log.Printf("Playback started: %s %dHz %dch at %d (requested %d)",
		format.Codec, format.SampleRate, format.Channels, reached, start)

	for {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		pkt, err := p.Decoder.NextPacket()
		if err != nil {
			p.Metrics.RecordDecodeError(err)
			return stats, fmt.Errorf("packet %d: %w", stats.Packets, err)
		}
		if pkt == nil {
			log.Printf("Playback finished: %d packets, %d skipped, position %d",
				stats.Packets, stats.Skipped, stats.Position)
			return stats, nil
		}

		stats.Packets++
		p.Metrics.RecordPacket(pkt.Kind())

		if err := p.handle(pkt, format.Channels, &stats); err != nil {
			return stats, err
		}
	}
}

// Start runs the pipeline on its own goroutine. The channel receives
// exactly one Result and is then closed.
func (p *Pipeline) Start(ctx context.Context, start uint64) <-chan Result {
	done := make(chan Result, 1)
	go func() {
		defer close(done)
		stats, err := p.Run(ctx, start)
		done <- Result{Stats: stats, Err: err}
	}()
	return done
}

func (p *Pipeline) handle(pkt *decode.Packet, channels int, stats *Stats) error {
	if p.Output != nil {
		samples, err := pkt.Samples()
		switch {
		case err == nil:
			if err := p.Output.Write(samples); err != nil {
				return fmt.Errorf("output write failed: %w", err)
			}
			stats.Samples += int64(len(samples))
			if channels > 0 {
				stats.Position += uint64(len(samples) / channels)
			}
			p.Metrics.RecordSamples(len(samples))
			return nil
		case !errors.Is(err, decode.ErrRawPacket):
			return err
		}
	}

	if p.Raw != nil {
		data, err := pkt.OggData()
		switch {
		case err == nil:
			if _, err := p.Raw.Write(data); err != nil {
				return fmt.Errorf("raw write failed: %w", err)
			}
			stats.RawBytes += int64(len(data))
			// replayed header pages carry granule 0 and must not rewind
			if granule, ok := pageGranule(data); ok && granule > stats.Position {
				stats.Position = granule
			}
			p.Metrics.RecordRawBytes(len(data))
			return nil
		case !errors.Is(err, decode.ErrSamplesPacket):
			return err
		}
	}

	stats.Skipped++
	p.Metrics.RecordSkipped(pkt.Kind())
	log.Printf("Skipping %s packet %d: no sink for it", pkt.Kind(), stats.Packets)
	return nil
}

// pageGranule reads the granule position of a raw page. Pages with no
// finished packet report false.
func pageGranule(data []byte) (uint64, bool) {
	page, err := ogg.NewReader(bytes.NewReader(data)).Next()
	if err != nil || page.Granule == ogg.UnknownGranule {
		return 0, false
	}
	return page.Granule, true
}
