// Package media wraps the external ffmpeg/ffprobe tools: probing video
// duration, extracting single frames, and rendering animated GIF previews
// for accepted segments.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Executor runs ffmpeg and ffprobe commands.
type Executor struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
	logger      zerolog.Logger
}

// NewExecutor locates ffmpeg and ffprobe in PATH and prepares a temp
// directory for extracted frames. Missing tools are a setup error.
func NewExecutor(logger zerolog.Logger) (*Executor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}

	tempDir := filepath.Join(os.TempDir(), "brollscout-frames")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &Executor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		tempDir:     tempDir,
		logger:      logger.With().Str("component", "media").Logger(),
	}, nil
}

// ProbeDuration returns the video duration in seconds.
func (e *Executor) ProbeDuration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable duration %q: %w", stdout.String(), err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("invalid video duration: %f", duration)
	}
	return duration, nil
}

// ExtractFrame writes a single JPEG frame at the given timestamp into the
// executor's temp directory and returns its path. The caller owns the
// file and is expected to remove it.
func (e *Executor) ExtractFrame(ctx context.Context, videoPath string, timestamp float64) (string, error) {
	outPath := filepath.Join(e.tempDir, fmt.Sprintf("frame_%d_%.2f.jpg", os.Getpid(), timestamp))

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-ss", fmt.Sprintf("%.2f", timestamp),
		"-i", videoPath,
		"-vframes", "1",
		"-q:v", "2",
		"-f", "mjpeg",
		outPath,
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("failed to extract frame at %.2fs: %w (%s)", timestamp, err, strings.TrimSpace(stderr.String()))
	}
	return outPath, nil
}

// Cleanup removes the executor's temp directory.
func (e *Executor) Cleanup() error {
	return os.RemoveAll(e.tempDir)
}
