package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// RemoveVideoByFilename drops every video entry sharing the given source
// filename, along with its clips and their on-disk preview files. This is
// what makes re-analysis replace rather than duplicate: it runs before any
// new data for the filename is added. Returns the number of clips removed.
func (idx *Index) RemoveVideoByFilename(filename, thumbnailsDir string, logger zerolog.Logger) int {
	stale := make(map[string]bool)
	for id, video := range idx.Videos {
		if video.Filename == filename {
			stale[id] = true
		}
	}
	if len(stale) == 0 {
		return 0
	}

	kept := idx.Clips[:0]
	removed := 0
	for _, clip := range idx.Clips {
		if !stale[clip.VideoID] {
			kept = append(kept, clip)
			continue
		}
		removed++
		if clip.Thumbnail == "" {
			continue
		}
		thumbPath := filepath.Join(thumbnailsDir, clip.Thumbnail)
		if err := os.Remove(thumbPath); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("clip", clip.ID).Msg("failed to remove stale preview")
		}
	}
	idx.Clips = kept

	for id := range stale {
		delete(idx.Videos, id)
		logger.Info().Str("video", id).Str("filename", filename).Msg("removed stale video entry")
	}
	return removed
}

// AddVideo records a video asset in the catalog.
func (idx *Index) AddVideo(video VideoAsset) {
	idx.Videos[video.ID] = video
}

// AddClips appends clips to the catalog. Every clip must reference a video
// already present; an orphaned clip is a defect and is rejected outright.
func (idx *Index) AddClips(clips []Clip) error {
	for _, clip := range clips {
		if _, ok := idx.Videos[clip.VideoID]; !ok {
			return fmt.Errorf("clip %s references unknown video %s", clip.ID, clip.VideoID)
		}
	}
	idx.Clips = append(idx.Clips, clips...)
	return nil
}

// FindClip returns a pointer into the catalog's clip list, or nil.
func (idx *Index) FindClip(id string) *Clip {
	for i := range idx.Clips {
		if idx.Clips[i].ID == id {
			return &idx.Clips[i]
		}
	}
	return nil
}

// HasFilename reports whether any video entry was created from the given
// source filename.
func (idx *Index) HasFilename(filename string) bool {
	for _, video := range idx.Videos {
		if video.Filename == filename {
			return true
		}
	}
	return false
}
