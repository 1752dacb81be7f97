// ABOUTME: Tests for the resonate-decode command
// ABOUTME: Tests format resolution, sink selection and an end to end passthrough run
package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/Resonate-Protocol/resonate-playback/internal/playback"
	"github.com/Resonate-Protocol/resonate-playback/pkg/audio"
	"github.com/Resonate-Protocol/resonate-playback/pkg/audio/ogg"
	"github.com/Resonate-Protocol/resonate-playback/pkg/audio/output"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		path    string
		name    string
		want    audio.FileFormat
		wantErr bool
	}{
		{"song.mp3", "", audio.FormatMP3_320, false},
		{"song.OGG", "", audio.FormatOggVorbis320, false},
		{"song.flac", "", audio.FormatFLAC, false},
		{"song.opus", "", audio.FormatOggOpus, false},
		{"song.ogg", "ogg_vorbis_96", audio.FormatOggVorbis96, false},
		{"song.wav", "", audio.FormatUnknown, true},
		{"song.mp3", "NOT_A_FORMAT", audio.FormatUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.name, func(t *testing.T) {
			got, err := resolveFormat(tt.path, tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildOutput(t *testing.T) {
	_, err := buildOutput(config{})
	assert.Error(t, err)

	out, err := buildOutput(config{RawOut: "x.ogg"})
	require.NoError(t, err)
	assert.Nil(t, out)

	out, err = buildOutput(config{WAVOut: "x.wav"})
	require.NoError(t, err)
	assert.IsType(t, &output.WAV{}, out)

	_, err = buildOutput(config{Play: true, Backend: "pulse"})
	assert.ErrorContains(t, err, "unknown playback backend")

	out, err = buildOutput(config{Play: true, Backend: "malgo", Volume: 50})
	require.NoError(t, err)
	assert.IsType(t, &output.Malgo{}, out)

	out, err = buildOutput(config{WAVOut: "x.wav", Play: true})
	require.NoError(t, err)
	assert.IsType(t, &output.Multi{}, out)

	out, err = buildOutput(config{WAVOut: "x.wav", Rate: 48000})
	require.NoError(t, err)
	assert.IsType(t, &output.Resampled{}, out)
}

func writeVorbisStream(t *testing.T, path string) []byte {
	t.Helper()

	ident := make([]byte, 30)
	ident[0] = 1
	copy(ident[1:7], "vorbis")
	ident[11] = 2
	binary.LittleEndian.PutUint32(ident[12:16], 44100)
	ident[29] = 1

	var stream bytes.Buffer
	header, err := ogg.NewPage(3, 0, 0, ogg.FlagBOS, ident)
	require.NoError(t, err)
	stream.Write(header.Bytes())
	comment := append([]byte{3}, "vorbis"...)
	comment = append(comment, 0, 0, 0, 0, 0, 0, 0, 0, 1)
	setup := append([]byte{5}, "vorbis"...)
	rest, err := ogg.NewPage(3, 1, 0, 0, comment, setup)
	require.NoError(t, err)
	stream.Write(rest.Bytes())

	for i, g := range []uint64{4096, 8192} {
		flags := byte(0)
		if i == 1 {
			flags = ogg.FlagEOS
		}
		page, err := ogg.NewPage(3, uint32(i+2), g, flags, bytes.Repeat([]byte{0xAB}, 200))
		require.NoError(t, err)
		stream.Write(page.Bytes())
	}

	require.NoError(t, os.WriteFile(path, stream.Bytes(), 0o644))
	return stream.Bytes()
}

func TestRunPassthroughToRawFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.ogg")
	want := writeVorbisStream(t, in)

	registry := prometheus.NewRegistry()
	m, err := playback.NewMetrics(registry)
	require.NoError(t, err)

	cfg := config{
		File:        in,
		Passthrough: true,
		RawOut:      filepath.Join(dir, "out.ogg"),
	}
	stats, err := run(context.Background(), cfg, m)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Packets)
	assert.Equal(t, uint64(8192), stats.Position)

	got, err := os.ReadFile(cfg.RawOut)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var text bytes.Buffer
	require.NoError(t, writeMetrics(&text, registry))
	assert.Contains(t, text.String(), `playback_packets_total{kind="raw"} 4`)
}

func TestRunMissingFile(t *testing.T) {
	cfg := config{File: filepath.Join(t.TempDir(), "missing.mp3"), RawOut: "unused"}
	_, err := run(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "failed to open file")
}
