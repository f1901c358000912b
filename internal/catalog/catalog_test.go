package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func testClip(id, videoID string) Clip {
	return Clip{
		ID:           id,
		VideoID:      videoID,
		StartTime:    "0:10",
		EndTime:      "0:13",
		StartSeconds: 10,
		EndSeconds:   13,
		Thumbnail:    id + ".gif",
		BrollScore:   0.9,
	}
}

func TestNextVideoID(t *testing.T) {
	idx := NewIndex()
	if got := idx.NextVideoID(); got != "vid_001" {
		t.Errorf("empty catalog: got %s, want vid_001", got)
	}

	idx.AddVideo(VideoAsset{ID: "vid_007", Filename: "a.mp4"})
	idx.AddVideo(VideoAsset{ID: "vid_002", Filename: "b.mp4"})
	if got := idx.NextVideoID(); got != "vid_008" {
		t.Errorf("got %s, want vid_008", got)
	}
}

func TestClipIDMonotonicity(t *testing.T) {
	idx := NewIndex()

	first := idx.NewClipID()
	second := idx.NewClipID()
	if first != "clip_0001" || second != "clip_0002" {
		t.Fatalf("unexpected ids: %s, %s", first, second)
	}

	// Record the clips, then delete them all. The next id must still move
	// forward: ids are never reused once issued.
	idx.AddVideo(VideoAsset{ID: "vid_001", Filename: "a.mp4"})
	if err := idx.AddClips([]Clip{testClip(first, "vid_001"), testClip(second, "vid_001")}); err != nil {
		t.Fatal(err)
	}
	idx.Clips = idx.Clips[:0]

	if got := idx.NewClipID(); got != "clip_0003" {
		t.Errorf("after deletion got %s, want clip_0003", got)
	}
}

func TestClipIDPicksUpExistingClips(t *testing.T) {
	// A catalog written before LastClipSeq existed derives the sequence
	// from the clips themselves.
	idx := NewIndex()
	idx.AddVideo(VideoAsset{ID: "vid_001", Filename: "a.mp4"})
	if err := idx.AddClips([]Clip{}); err != nil {
		t.Fatal(err)
	}
	idx.Clips = append(idx.Clips, testClip("clip_0041", "vid_001"))

	if got := idx.NewClipID(); got != "clip_0042" {
		t.Errorf("got %s, want clip_0042", got)
	}
}

func TestAddClipsRejectsOrphans(t *testing.T) {
	idx := NewIndex()
	err := idx.AddClips([]Clip{testClip("clip_0001", "vid_404")})
	if err == nil {
		t.Fatal("expected orphaned clip to be rejected")
	}
	if len(idx.Clips) != 0 {
		t.Errorf("rejected batch must not be partially applied: %v", idx.Clips)
	}
}

func TestReanalysisReplacesPriorEntries(t *testing.T) {
	thumbs := t.TempDir()
	logger := zerolog.Nop()

	idx := NewIndex()
	idx.AddVideo(VideoAsset{ID: "vid_001", Filename: "kitchen.mp4"})
	idx.AddVideo(VideoAsset{ID: "vid_002", Filename: "garden.mp4"})

	oldClip := testClip(idx.NewClipID(), "vid_001")
	keptClip := testClip(idx.NewClipID(), "vid_002")
	if err := idx.AddClips([]Clip{oldClip, keptClip}); err != nil {
		t.Fatal(err)
	}

	// Materialize the preview files the merge is expected to clean up.
	oldThumb := filepath.Join(thumbs, oldClip.Thumbnail)
	keptThumb := filepath.Join(thumbs, keptClip.Thumbnail)
	for _, p := range []string{oldThumb, keptThumb} {
		if err := os.WriteFile(p, []byte("gif"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	removed := idx.RemoveVideoByFilename("kitchen.mp4", thumbs, logger)
	if removed != 1 {
		t.Fatalf("expected 1 clip removed, got %d", removed)
	}

	// Second-run data for the same filename.
	newID := idx.NextVideoID()
	idx.AddVideo(VideoAsset{ID: newID, Filename: "kitchen.mp4"})
	newClip := testClip(idx.NewClipID(), newID)
	if err := idx.AddClips([]Clip{newClip}); err != nil {
		t.Fatal(err)
	}

	// Exactly one video entry for the filename.
	count := 0
	for _, v := range idx.Videos {
		if v.Filename == "kitchen.mp4" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one video entry for kitchen.mp4, got %d", count)
	}

	// Only the second run's clip set remains for that video.
	for _, c := range idx.Clips {
		if c.ID == oldClip.ID {
			t.Error("first run's clip leaked into the catalog")
		}
	}

	// First run's preview is gone, unrelated preview untouched.
	if _, err := os.Stat(oldThumb); !os.IsNotExist(err) {
		t.Error("first run's preview file was not removed")
	}
	if _, err := os.Stat(keptThumb); err != nil {
		t.Error("unrelated preview file should not be touched")
	}

	// Replaced clip's id is not reissued.
	if newClip.ID == oldClip.ID {
		t.Errorf("clip id %s was reused", newClip.ID)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	projectDir := t.TempDir()
	store, err := NewStore(projectDir)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	idx, err := store.LoadIndex()
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(idx.Videos) != 0 || len(idx.Clips) != 0 {
		t.Fatal("fresh index should be empty")
	}

	idx.AddVideo(VideoAsset{ID: "vid_001", Filename: "a.mp4", Title: "a", Duration: "1:23"})
	clip := testClip(idx.NewClipID(), "vid_001")
	if err := idx.AddClips([]Clip{clip}); err != nil {
		t.Fatal(err)
	}

	if err := store.SaveIndex(idx); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.LoadIndex()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(loaded.Clips) != 1 || loaded.Clips[0].ID != clip.ID {
		t.Errorf("clips lost on reload: %+v", loaded.Clips)
	}
	if loaded.LastClipSeq != 1 {
		t.Errorf("clip sequence lost on reload: %d", loaded.LastClipSeq)
	}
	if loaded.Videos["vid_001"].Duration != "1:23" {
		t.Errorf("video metadata lost on reload")
	}
	if loaded.LastUpdated.IsZero() {
		t.Error("lastUpdated not stamped on save")
	}

	// No stray temp file left behind.
	if _, err := os.Stat(store.IndexPath() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after save")
	}
}

func TestNewStoreMissingProject(t *testing.T) {
	if _, err := NewStore(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing project folder")
	}
}
