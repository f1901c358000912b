// Package pipeline drives the per-video analysis loop: upload, classify,
// filter, render previews, merge into the catalog, and learn taxonomy
// terms. Videos are processed strictly one at a time; the catalog is saved
// after each video so an interrupted run keeps all completed work.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mkravets/brollscout/internal/ai"
	"github.com/mkravets/brollscout/internal/catalog"
	"github.com/mkravets/brollscout/internal/media"
	"github.com/mkravets/brollscout/internal/segment"
	"github.com/mkravets/brollscout/internal/taxonomy"
	"github.com/mkravets/brollscout/internal/timecode"
)

// Classifier is the remote provider surface the pipeline needs.
type Classifier interface {
	Upload(ctx context.Context, path string) (*ai.RemoteFileHandle, error)
	Classify(ctx context.Context, handle *ai.RemoteFileHandle, tax *taxonomy.Taxonomy) ([]segment.Segment, error)
	Delete(ctx context.Context, handle *ai.RemoteFileHandle)
}

// MediaTool is the external frame/clip extraction surface.
type MediaTool interface {
	ProbeDuration(ctx context.Context, videoPath string) (float64, error)
	RenderPreview(ctx context.Context, videoPath string, w media.Window, outPath string, opts media.PreviewOptions) error
	ExtractFrame(ctx context.Context, videoPath string, timestamp float64) (string, error)
}

// Options configure one analysis run.
type Options struct {
	// NewOnly skips files whose filename is already in the catalog.
	NewOnly bool
	// OnlyFile restricts the run to a single filename in the project.
	OnlyFile string
	// Preview controls the rendered GIFs.
	Preview media.PreviewOptions
}

// Runner executes analysis runs against one project.
type Runner struct {
	store  *catalog.Store
	cls    Classifier
	tool   MediaTool
	logger zerolog.Logger
	opts   Options
}

// NewRunner wires a pipeline runner.
func NewRunner(store *catalog.Store, cls Classifier, tool MediaTool, opts Options, logger zerolog.Logger) *Runner {
	if opts.Preview.FPS == 0 && opts.Preview.Width == 0 {
		opts.Preview = media.DefaultPreviewOptions()
	}
	return &Runner{
		store:  store,
		cls:    cls,
		tool:   tool,
		logger: logger.With().Str("component", "pipeline").Logger(),
		opts:   opts,
	}
}

// Summary reports what a run accomplished.
type Summary struct {
	VideosProcessed int
	VideosFailed    int
	VideosSkipped   int
	NewClips        int
	EquipmentCounts map[string]int
	TechniqueCounts map[string]int
}

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}

// Run processes every candidate video in the project folder in listing
// order. Per-video failures are logged and skipped; only setup problems
// abort the run.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	files, err := listVideoFiles(r.store.ProjectDir())
	if err != nil {
		return nil, err
	}

	if r.opts.OnlyFile != "" {
		found := false
		for _, f := range files {
			if f == r.opts.OnlyFile {
				files = []string{f}
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("file %s not found in project folder", r.opts.OnlyFile)
		}
	}

	idx, err := r.store.LoadIndex()
	if err != nil {
		return nil, err
	}
	tax, err := taxonomy.Load(r.store.TaxonomyPath())
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		EquipmentCounts: make(map[string]int),
		TechniqueCounts: make(map[string]int),
	}

	r.logger.Info().Int("videos", len(files)).Str("project", r.store.ProjectDir()).Msg("starting analysis run")

	for _, filename := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if r.opts.NewOnly && idx.HasFilename(filename) {
			r.logger.Info().Str("file", filename).Msg("already indexed, skipping")
			summary.VideosSkipped++
			continue
		}

		clips, err := r.processVideo(ctx, idx, tax, filename)
		if err != nil {
			r.logger.Error().Err(err).Str("file", filename).Msg("video failed, continuing with next")
			summary.VideosFailed++
			continue
		}

		summary.VideosProcessed++
		summary.NewClips += len(clips)
		for _, clip := range clips {
			for _, term := range clip.Tags.Equipment {
				summary.EquipmentCounts[term]++
			}
			for _, term := range clip.Tags.Technique {
				summary.TechniqueCounts[term]++
			}
		}
	}

	r.logSummary(summary)
	return summary, nil
}

// processVideo runs the full per-video sequence and saves the catalog
// before returning. The remote file is always released, even on failure.
func (r *Runner) processVideo(ctx context.Context, idx *catalog.Index, tax *taxonomy.Taxonomy, filename string) ([]catalog.Clip, error) {
	path := filepath.Join(r.store.ProjectDir(), filename)
	r.logger.Info().Str("file", filename).Msg("uploading")

	handle, err := r.cls.Upload(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.cls.Delete(ctx, handle)

	r.logger.Info().Str("file", filename).Msg("classifying")
	segs, err := r.cls.Classify(ctx, handle, tax)
	if err != nil {
		return nil, err
	}

	accepted := segment.Filter(segs, tax.MinimumBrollScore)
	r.logger.Info().
		Int("reported", len(segs)).
		Int("accepted", len(accepted)).
		Float64("threshold", tax.MinimumBrollScore).
		Msg("segments filtered")

	if added := tax.Learn(accepted); added > 0 {
		r.logger.Info().Int("terms", added).Msg("taxonomy learned new terms")
	}
	if err := taxonomy.Save(r.store.TaxonomyPath(), tax); err != nil {
		return nil, err
	}

	duration, err := r.tool.ProbeDuration(ctx, path)
	if err != nil {
		return nil, err
	}

	if removed := idx.RemoveVideoByFilename(filename, r.store.ThumbnailsDir(), r.logger); removed > 0 {
		r.logger.Info().Int("clips", removed).Str("file", filename).Msg("replaced prior analysis")
	}

	video := catalog.VideoAsset{
		ID:           idx.NextVideoID(),
		Filename:     filename,
		Title:        strings.TrimSuffix(filename, filepath.Ext(filename)),
		Duration:     timecode.FormatSeconds(duration),
		SourcePath:   path,
		DateAnalyzed: time.Now().UTC(),
	}
	idx.AddVideo(video)

	clips := make([]catalog.Clip, 0, len(accepted))
	for _, seg := range accepted {
		clip, err := r.buildClip(ctx, idx, video.ID, path, seg)
		if err != nil {
			r.logger.Warn().Err(err).Str("file", filename).Msg("segment dropped")
			continue
		}
		clips = append(clips, clip)
	}

	if err := idx.AddClips(clips); err != nil {
		return nil, err
	}
	if err := r.store.SaveIndex(idx); err != nil {
		return nil, err
	}

	r.logger.Info().Str("video", video.ID).Int("clips", len(clips)).Msg("video committed to catalog")
	return clips, nil
}

// buildClip turns one accepted segment into a catalog clip, rendering its
// preview. A failed render is logged and leaves the clip without a
// thumbnail; it never fails the clip itself.
func (r *Runner) buildClip(ctx context.Context, idx *catalog.Index, videoID, videoPath string, seg segment.Segment) (catalog.Clip, error) {
	startSec, err := timecode.ParseTimestamp(seg.StartTime)
	if err != nil {
		return catalog.Clip{}, fmt.Errorf("bad start time %q: %w", seg.StartTime, err)
	}
	endSec, err := timecode.ParseTimestamp(seg.EndTime)
	if err != nil {
		return catalog.Clip{}, fmt.Errorf("bad end time %q: %w", seg.EndTime, err)
	}

	clipID := idx.NewClipID()
	thumbnail := clipID + ".gif"

	window := media.TidyWindow(startSec, endSec)
	outPath := filepath.Join(r.store.ThumbnailsDir(), thumbnail)
	if err := r.tool.RenderPreview(ctx, videoPath, window, outPath, r.opts.Preview); err != nil {
		r.logger.Warn().Err(err).Str("clip", clipID).Msg("preview render failed, recording clip without thumbnail")
		thumbnail = ""
	}

	return catalog.Clip{
		ID:           clipID,
		VideoID:      videoID,
		StartTime:    seg.StartTime,
		EndTime:      seg.EndTime,
		StartSeconds: startSec,
		EndSeconds:   endSec,
		Thumbnail:    thumbnail,
		Tags: catalog.ClipTags{
			ShotType:           seg.ShotType,
			Equipment:          seg.Equipment,
			Technique:          seg.Technique,
			SubjectDescriptors: seg.SubjectDescriptors,
			Products:           seg.Products,
			Other:              seg.Other,
		},
		Description:      seg.Description,
		BrollScore:       seg.BrollScore,
		PresenterVisible: seg.PresenterVisible,
	}, nil
}

func (r *Runner) logSummary(s *Summary) {
	r.logger.Info().
		Int("processed", s.VideosProcessed).
		Int("failed", s.VideosFailed).
		Int("skipped", s.VideosSkipped).
		Int("new_clips", s.NewClips).
		Msg("run complete")

	if top := topTerms(s.EquipmentCounts, 5); len(top) > 0 {
		r.logger.Info().Strs("equipment", top).Msg("top equipment")
	}
	if top := topTerms(s.TechniqueCounts, 5); len(top) > 0 {
		r.logger.Info().Strs("techniques", top).Msg("top techniques")
	}
}

func topTerms(counts map[string]int, n int) []string {
	type entry struct {
		term  string
		count int
	}
	entries := make([]entry, 0, len(counts))
	for term, count := range counts {
		entries = append(entries, entry{term, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].term < entries[j].term
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = fmt.Sprintf("%s (%d)", e.term, e.count)
	}
	return out
}

// listVideoFiles returns the project folder's video files in listing
// order.
func listVideoFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list project folder: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if videoExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
