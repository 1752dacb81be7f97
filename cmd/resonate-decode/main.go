// ABOUTME: Entry point for the resonate-decode tool
// ABOUTME: Opens an audio file, seeks, and drains the decoder into sinks
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Resonate-Protocol/resonate-playback/internal/playback"
	"github.com/Resonate-Protocol/resonate-playback/internal/version"
	"github.com/Resonate-Protocol/resonate-playback/pkg/audio"
	"github.com/Resonate-Protocol/resonate-playback/pkg/audio/decode"
	"github.com/Resonate-Protocol/resonate-playback/pkg/audio/output"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

var (
	file        = flag.String("file", "", "Audio file to decode (Ogg Vorbis, MP3, FLAC, Ogg Opus)")
	formatName  = flag.String("format", "", "File format name, e.g. OGG_VORBIS_320 (default: from extension)")
	seek        = flag.Uint64("seek", 0, "Start position in samples per channel")
	passthrough = flag.Bool("passthrough", false, "Forward Ogg Vorbis pages instead of decoding")
	rawOut      = flag.String("raw-out", "", "Write raw Ogg pages to this file")
	wavOut      = flag.String("wav-out", "", "Write decoded samples to this WAV file")
	play        = flag.Bool("play", false, "Play decoded samples on the default audio device")
	volume      = flag.Int("volume", 100, "Playback volume (0-100)")
	backend     = flag.String("backend", "oto", "Playback backend for -play: oto or malgo")
	rate        = flag.Int("rate", 0, "Resample decoded audio to this rate in Hz (default: stream rate)")
	metrics     = flag.Bool("metrics", false, "Print pipeline metrics on exit")
	logFile     = flag.String("log-file", "", "Also write logs to this file")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// config holds everything run needs
type config struct {
	File        string
	Format      string
	Seek        uint64
	Passthrough bool
	RawOut      string
	WAVOut      string
	Play        bool
	Volume      int
	Backend     string
	Rate        int
}

// speaker is a device output with software volume
type speaker interface {
	output.Output
	SetVolume(volume int)
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("error opening log file: %v", err)
		}
		defer f.Close()

		// Log to both file and stderr
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	log.Printf("Starting %s", version.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Printf("Received %v signal, stopping playback", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	registry := prometheus.NewRegistry()
	pipelineMetrics, err := playback.NewMetrics(registry)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	cfg := config{
		File:        *file,
		Format:      *formatName,
		Seek:        *seek,
		Passthrough: *passthrough,
		RawOut:      *rawOut,
		WAVOut:      *wavOut,
		Play:        *play,
		Volume:      *volume,
		Backend:     *backend,
		Rate:        *rate,
	}

	stats, err := run(ctx, cfg, pipelineMetrics)

	if *metrics {
		if mErr := writeMetrics(os.Stdout, registry); mErr != nil {
			log.Printf("Failed to write metrics: %v", mErr)
		}
	}

	if err != nil {
		log.Fatalf("Decode failed: %v", err)
	}

	log.Printf("Done: %d packets, %d samples, %d raw bytes, %d skipped, position %d",
		stats.Packets, stats.Samples, stats.RawBytes, stats.Skipped, stats.Position)
}

// run opens the file, builds the decoder and sinks, and drives one pipeline
func run(ctx context.Context, cfg config, m *playback.Metrics) (playback.Stats, error) {
	format, err := resolveFormat(cfg.File, cfg.Format)
	if err != nil {
		return playback.Stats{}, err
	}

	f, err := os.Open(cfg.File)
	if err != nil {
		return playback.Stats{}, fmt.Errorf("failed to open file: %w", err)
	}

	decoder, err := decode.New(format, f, decode.Options{Passthrough: cfg.Passthrough})
	if err != nil {
		f.Close()
		return playback.Stats{}, fmt.Errorf("failed to create decoder: %w", err)
	}
	defer decoder.Close()

	p := &playback.Pipeline{Decoder: decoder, Metrics: m}

	sink, err := buildOutput(cfg)
	if err != nil {
		return playback.Stats{}, err
	}
	if sink != nil {
		defer func() {
			if err := sink.Close(); err != nil {
				log.Printf("Error closing output: %v", err)
			}
		}()
		p.Output = sink
	}

	if cfg.RawOut != "" {
		raw, err := os.Create(cfg.RawOut)
		if err != nil {
			return playback.Stats{}, fmt.Errorf("failed to create raw output: %w", err)
		}
		defer raw.Close()
		p.Raw = raw
	}

	return p.Run(ctx, cfg.Seek)
}

// buildOutput returns the sample sink for cfg, nil when only raw pages
// are wanted
func buildOutput(cfg config) (output.Output, error) {
	var outputs []output.Output
	if cfg.WAVOut != "" {
		outputs = append(outputs, output.NewWAV(cfg.WAVOut))
	}
	if cfg.Play {
		var device speaker
		switch cfg.Backend {
		case "", "oto":
			device = output.NewOto()
		case "malgo":
			device = output.NewMalgo()
		default:
			return nil, fmt.Errorf("unknown playback backend %q", cfg.Backend)
		}
		device.SetVolume(cfg.Volume)
		outputs = append(outputs, device)
	}
	if len(outputs) == 0 && cfg.RawOut == "" {
		return nil, fmt.Errorf("nothing to do: set -wav-out, -play or -raw-out")
	}

	var sink output.Output
	switch len(outputs) {
	case 0:
		return nil, nil
	case 1:
		sink = outputs[0]
	default:
		sink = output.NewMulti(outputs...)
	}
	if cfg.Rate > 0 {
		sink = output.NewResampled(sink, cfg.Rate)
	}
	return sink, nil
}

// resolveFormat uses the explicit format name when given, else the file
// extension
func resolveFormat(path, name string) (audio.FileFormat, error) {
	if name != "" {
		return audio.ParseFileFormat(name)
	}
	format := audio.FormatForExtension(filepath.Ext(path))
	if format == audio.FormatUnknown {
		return audio.FormatUnknown, fmt.Errorf("cannot infer format from %q, use -format", path)
	}
	return format, nil
}

// writeMetrics prints the registry in the text exposition format
func writeMetrics(w io.Writer, registry *prometheus.Registry) error {
	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
