package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkravets/brollscout/internal/ai"
	"github.com/mkravets/brollscout/internal/catalog"
)

// VerifyProvider is the remote surface the verifier needs.
type VerifyProvider interface {
	VerifyThumbnails(ctx context.Context, images [][]byte, descriptions []string) ([]ai.Verdict, error)
	PickBestImage(ctx context.Context, images [][]byte, description string) (int, error)
}

// FrameExtractor produces candidate frames for the re-pick pass.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoPath string, timestamp float64) (string, error)
}

// repickOffsets are the candidate positions, in seconds, around a clip's
// representative moment. Offsets landing before 0 are dropped.
var repickOffsets = []float64{-2, -1, 0, 1, 2, 3}

// Verifier cross-checks persisted previews against their descriptions and
// re-picks a better source frame for mismatches. It never alters a clip's
// description.
type Verifier struct {
	store    *catalog.Store
	provider VerifyProvider
	frames   FrameExtractor
	logger   zerolog.Logger
	pace     time.Duration
}

// NewVerifier wires a verifier. frames may be nil, which disables the
// re-pick pass.
func NewVerifier(store *catalog.Store, provider VerifyProvider, frames FrameExtractor, logger zerolog.Logger) *Verifier {
	return &Verifier{
		store:    store,
		provider: provider,
		frames:   frames,
		logger:   logger.With().Str("component", "verifier").Logger(),
		pace:     2 * time.Second,
	}
}

// VerifySummary reports the outcome of a verification pass.
type VerifySummary struct {
	Checked    int
	Matched    int
	Mismatched int
	Repicked   int
	Skipped    int
}

// Run verifies every clip in the catalog that has a readable preview.
func (v *Verifier) Run(ctx context.Context) (*VerifySummary, error) {
	idx, err := v.store.LoadIndex()
	if err != nil {
		return nil, err
	}

	summary := &VerifySummary{}

	// Gather every clip with a readable preview into one batch request.
	var images [][]byte
	var descriptions []string
	var clipIDs []string
	for i := range idx.Clips {
		clip := &idx.Clips[i]
		if clip.Thumbnail == "" {
			summary.Skipped++
			continue
		}
		data, err := os.ReadFile(filepath.Join(v.store.ThumbnailsDir(), clip.Thumbnail))
		if err != nil {
			v.logger.Warn().Err(err).Str("clip", clip.ID).Msg("preview unreadable, skipping")
			summary.Skipped++
			continue
		}
		images = append(images, data)
		descriptions = append(descriptions, clip.Description)
		clipIDs = append(clipIDs, clip.ID)
	}

	if len(images) == 0 {
		v.logger.Info().Msg("no clips with readable previews to verify")
		return summary, nil
	}

	v.logger.Info().Int("clips", len(images)).Msg("verifying previews against descriptions")
	verdicts, err := v.provider.VerifyThumbnails(ctx, images, descriptions)
	if err != nil {
		return nil, fmt.Errorf("batch verification failed: %w", err)
	}

	judged := make(map[string]bool, len(verdicts))
	for _, verdict := range verdicts {
		if verdict.Index < 0 || verdict.Index >= len(clipIDs) {
			v.logger.Warn().Int("index", verdict.Index).Msg("verdict index out of range, skipping")
			continue
		}
		clip := idx.FindClip(clipIDs[verdict.Index])
		if clip == nil {
			continue
		}
		judged[clip.ID] = true
		summary.Checked++
		if verdict.Matches {
			clip.Verified = true
			clip.Mismatch = false
			summary.Matched++
		} else {
			clip.Verified = false
			clip.Mismatch = true
			summary.Mismatched++
		}
	}
	summary.Skipped += len(clipIDs) - len(judged)

	if err := v.store.SaveIndex(idx); err != nil {
		return nil, err
	}

	if summary.Mismatched == 0 {
		v.logger.Info().Int("matched", summary.Matched).Msg("all judged previews match")
		return summary, nil
	}
	if v.frames == nil {
		v.logger.Info().Int("mismatched", summary.Mismatched).Msg("no frame extractor available, leaving mismatches flagged")
		return summary, nil
	}

	first := true
	for i := range idx.Clips {
		clip := &idx.Clips[i]
		if !clip.Mismatch || !judged[clip.ID] {
			continue
		}

		if !first {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(v.pace):
			}
		}
		first = false

		if err := v.repick(ctx, idx, clip); err != nil {
			v.logger.Warn().Err(err).Str("clip", clip.ID).Msg("re-pick failed, leaving mismatch flagged")
			continue
		}
		if !clip.Mismatch {
			summary.Repicked++
		}
	}

	if err := v.store.SaveIndex(idx); err != nil {
		return nil, err
	}

	v.logger.Info().
		Int("matched", summary.Matched).
		Int("mismatched", summary.Mismatched).
		Int("repicked", summary.Repicked).
		Msg("verification pass complete")
	return summary, nil
}

// repick extracts candidate frames around the clip's representative
// moment, asks the provider for the best one, and on a valid choice
// replaces the preview file. An invalid or out-of-range choice leaves the
// clip mismatched without error.
func (v *Verifier) repick(ctx context.Context, idx *catalog.Index, clip *catalog.Clip) error {
	video, ok := idx.Videos[clip.VideoID]
	if !ok {
		return fmt.Errorf("clip %s references unknown video %s", clip.ID, clip.VideoID)
	}

	moment := (clip.StartSeconds + clip.EndSeconds) / 2

	var framePaths []string
	defer func() {
		for _, p := range framePaths {
			os.Remove(p)
		}
	}()

	var images [][]byte
	for _, offset := range repickOffsets {
		ts := moment + offset
		if ts < 0 {
			continue
		}
		framePath, err := v.frames.ExtractFrame(ctx, video.SourcePath, ts)
		if err != nil {
			v.logger.Warn().Err(err).Str("clip", clip.ID).Float64("timestamp", ts).Msg("candidate frame extraction failed")
			continue
		}
		framePaths = append(framePaths, framePath)
		data, err := os.ReadFile(framePath)
		if err != nil {
			return fmt.Errorf("failed to read candidate frame: %w", err)
		}
		images = append(images, data)
	}
	if len(images) == 0 {
		return fmt.Errorf("no candidate frames could be extracted")
	}

	choice, err := v.provider.PickBestImage(ctx, images, clip.Description)
	if err != nil {
		return err
	}
	if choice < 0 || choice >= len(images) {
		v.logger.Warn().Int("choice", choice).Str("clip", clip.ID).Msg("provider picked an out-of-range candidate, skipping")
		return nil
	}

	thumbPath := filepath.Join(v.store.ThumbnailsDir(), clip.Thumbnail)
	if err := os.WriteFile(thumbPath, images[choice], 0644); err != nil {
		return fmt.Errorf("failed to replace preview: %w", err)
	}

	clip.Mismatch = false
	clip.Verified = true
	v.logger.Info().Str("clip", clip.ID).Int("candidate", choice).Msg("preview replaced with better matching frame")
	return nil
}
