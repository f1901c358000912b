package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// PreviewOptions controls the rendered GIF previews.
type PreviewOptions struct {
	FPS       int
	Width     int
	MaxColors int
}

// DefaultPreviewOptions match the catalog's standard preview look.
func DefaultPreviewOptions() PreviewOptions {
	return PreviewOptions{FPS: 9, Width: 320, MaxColors: 96}
}

// RenderPreview renders an infinitely looping GIF for the given window.
// The seek is applied after the input (accurate seek) so short previews do
// not drift on their first frames.
func (e *Executor) RenderPreview(ctx context.Context, videoPath string, w Window, outPath string, opts PreviewOptions) error {
	if opts.FPS <= 0 {
		opts.FPS = 9
	}
	if opts.Width <= 0 {
		opts.Width = 320
	}
	if opts.MaxColors <= 0 {
		opts.MaxColors = 96
	}

	filter := fmt.Sprintf(
		"fps=%d,scale=%d:-1:flags=lanczos,split[a][b];[a]palettegen=max_colors=%d[p];[b][p]paletteuse=dither=bayer:bayer_scale=4",
		opts.FPS, opts.Width, opts.MaxColors)

	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", videoPath,
		"-ss", fmt.Sprintf("%.3f", w.Start),
		"-t", fmt.Sprintf("%.3f", w.Duration),
		"-filter_complex", filter,
		"-loop", "0",
		outPath,
	}

	e.logger.Debug().Str("video", videoPath).Float64("start", w.Start).Float64("duration", w.Duration).Msg("rendering preview")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("preview render failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
