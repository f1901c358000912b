// Package catalog defines the persisted clip catalog: video assets, clips
// and the index document that holds them, plus the merge rules applied on
// re-analysis.
package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const indexVersion = 1

// VideoAsset is one physical source file that has been analyzed.
type VideoAsset struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	Title        string    `json:"title"`
	Duration     string    `json:"duration"`
	SourcePath   string    `json:"sourcePath"`
	DateAnalyzed time.Time `json:"dateAnalyzed"`
}

// ClipTags groups the vocabulary tags attached to a clip.
type ClipTags struct {
	ShotType           string   `json:"shotType"`
	Equipment          []string `json:"equipment"`
	Technique          []string `json:"technique"`
	SubjectDescriptors []string `json:"subjectDescriptors"`
	Products           []string `json:"products"`
	Other              []string `json:"other"`
}

// Clip is a persisted, filtered segment with its rendered preview.
type Clip struct {
	ID               string   `json:"id"`
	VideoID          string   `json:"videoId"`
	StartTime        string   `json:"startTime"`
	EndTime          string   `json:"endTime"`
	StartSeconds     float64  `json:"startSeconds"`
	EndSeconds       float64  `json:"endSeconds"`
	Thumbnail        string   `json:"thumbnail,omitempty"`
	Tags             ClipTags `json:"tags"`
	Description      string   `json:"description"`
	BrollScore       float64  `json:"brollScore"`
	PresenterVisible bool     `json:"presenterVisible"`
	UserVerified     bool     `json:"userVerified"`
	UserEdited       bool     `json:"userEdited"`
	UserNotes        string   `json:"userNotes,omitempty"`
	Excluded         bool     `json:"excluded"`
	Verified         bool     `json:"verified,omitempty"`
	Mismatch         bool     `json:"mismatch,omitempty"`
}

// Index is the sole unit of persisted catalog state. It is always
// rewritten in full.
type Index struct {
	Version     int       `json:"version"`
	LastUpdated time.Time `json:"lastUpdated"`

	// LastClipSeq records the highest clip sequence number ever issued so
	// that clip ids are never reused, even after the clip is deleted.
	LastClipSeq int `json:"lastClipSeq"`

	Videos map[string]VideoAsset `json:"videos"`
	Clips  []Clip                `json:"clips"`
}

// NewIndex returns an empty catalog.
func NewIndex() *Index {
	return &Index{
		Version: indexVersion,
		Videos:  make(map[string]VideoAsset),
		Clips:   []Clip{},
	}
}

var (
	videoIDPattern = regexp.MustCompile(`^vid_(\d+)$`)
	clipIDPattern  = regexp.MustCompile(`^clip_(\d+)$`)
)

// NextVideoID allocates the next video id (vid_001, vid_002, ...) from the
// highest numeric suffix currently in the catalog.
func (idx *Index) NextVideoID() string {
	max := 0
	for id := range idx.Videos {
		if m := videoIDPattern.FindStringSubmatch(id); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > max {
				max = n
			}
		}
	}
	return fmt.Sprintf("vid_%03d", max+1)
}

// NewClipID allocates the next clip id (clip_0001, ...). The sequence is
// monotonic across the catalog's lifetime: deleting a clip never frees its
// id for reuse.
func (idx *Index) NewClipID() string {
	seq := idx.LastClipSeq
	for _, clip := range idx.Clips {
		if m := clipIDPattern.FindStringSubmatch(clip.ID); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > seq {
				seq = n
			}
		}
	}
	idx.LastClipSeq = seq + 1
	return fmt.Sprintf("clip_%04d", idx.LastClipSeq)
}
