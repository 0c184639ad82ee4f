package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	cftypes "centroidfinder/type"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{
		"--input", "clip.mp4",
		"--output", "out.csv",
		"--target-color", "#FF8800",
		"--threshold", "42.5",
		"--fps", "10",
		"--serial",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, SourceVideo, cfg.Source)
	assert.Equal(t, "clip.mp4", cfg.Input)
	assert.Equal(t, "out.csv", cfg.Output)
	assert.Equal(t, 42.5, cfg.Threshold)
	assert.Equal(t, 10.0, cfg.FPS)
	assert.Equal(t, time.Second, cfg.Interval)
	assert.Equal(t, 30, cfg.ProgressEvery)
	assert.Equal(t, -1, cfg.DebugFrame)
	assert.Equal(t, 1, cfg.Workers())

	target, err := cfg.Target()
	require.NoError(t, err)
	assert.Equal(t, cftypes.Color(0xFF8800), target)
}

func TestLoadPositional(t *testing.T) {
	cfg, err := Load([]string{"--parallel", "8", "video.mp4", "track.csv", "0x00FF00", "25"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "video.mp4", cfg.Input)
	assert.Equal(t, "track.csv", cfg.Output)
	assert.Equal(t, "0x00FF00", cfg.TargetColor)
	assert.Equal(t, 25.0, cfg.Threshold)
	assert.Equal(t, 8, cfg.Workers())
}

func TestLoadEnvAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "centroidfinder.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: from-file.mp4\nthreshold: 12\ntarget-color: \"112233\"\nlog-level: debug\n"), 0o644))
	t.Setenv("CENTROID_THRESHOLD", "30")

	cfg, err := Load([]string{"--config", path}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "from-file.mp4", cfg.Input)
	assert.Equal(t, 30.0, cfg.Threshold, "env overrides file")
	assert.Equal(t, "112233", cfg.TargetColor)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	tests := map[string][]string{
		"missing input":        {"--target-color", "FFFFFF"},
		"bad color":            {"--input", "a.mp4", "--target-color", "XYZ"},
		"negative threshold":   {"--input", "a.mp4", "--target-color", "FFFFFF", "--threshold", "-1"},
		"bad positional":       {"a.mp4", "b.csv", "FFFFFF", "ten"},
		"wrong arg count":      {"a.mp4", "b.csv"},
		"unknown source":       {"--source", "webcam", "--input", "a", "--target-color", "FFFFFF"},
		"screen without limit": {"--source", "screen", "--target-color", "FFFFFF"},
		"missing config file":  {"--config", "/nonexistent/centroidfinder.yaml"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestLoadHelp(t *testing.T) {
	_, err := Load([]string{"--help"}, io.Discard)
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 1, Config{Parallel: 0}.Workers())
	assert.Equal(t, 1, Config{Parallel: 6, Serial: true}.Workers())
	assert.Equal(t, 6, Config{Parallel: 6}.Workers())
}
