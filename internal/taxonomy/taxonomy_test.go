package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mkravets/brollscout/internal/segment"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	tax, err := Load(filepath.Join(t.TempDir(), "taxonomy.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tax.ShotTypes) == 0 {
		t.Error("default taxonomy should have shot types")
	}
	if tax.MinimumBrollScore != segment.DefaultMinimumScore {
		t.Errorf("expected default minimum score %v, got %v", segment.DefaultMinimumScore, tax.MinimumBrollScore)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "taxonomy.json")

	tax := Default()
	tax.Equipment = append(tax.Equipment, "drone")
	tax.MinimumBrollScore = 0.65
	tax.PromptContext = "cooking channel"

	if err := Save(path, tax); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.MinimumBrollScore != 0.65 {
		t.Errorf("minimum score lost: %v", loaded.MinimumBrollScore)
	}
	if loaded.PromptContext != "cooking channel" {
		t.Errorf("prompt context lost: %q", loaded.PromptContext)
	}
	if loaded.Equipment[len(loaded.Equipment)-1] != "drone" {
		t.Errorf("equipment lost: %v", loaded.Equipment)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for corrupt taxonomy")
	}
}

func TestLearnAddsNovelTerms(t *testing.T) {
	tax := &Taxonomy{
		Equipment:  []string{"tripod"},
		Techniques: []string{"natural light"},
	}

	segs := []segment.Segment{
		{
			Equipment:          segment.StringList{"tripod", "gimbal"},
			Technique:          segment.StringList{"backlight"},
			Products:           segment.StringList{"espresso machine"},
			SubjectDescriptors: segment.StringList{"hands"},
		},
	}

	added := tax.Learn(segs)
	if added != 4 {
		t.Fatalf("expected 4 new terms, got %d", added)
	}
	if len(tax.Equipment) != 2 || tax.Equipment[1] != "gimbal" {
		t.Errorf("equipment not learned in order: %v", tax.Equipment)
	}
	if len(tax.Products) != 1 {
		t.Errorf("products not learned: %v", tax.Products)
	}
}

func TestLearnIsCaseInsensitiveAndIdempotent(t *testing.T) {
	tax := &Taxonomy{Equipment: []string{"Tripod"}}

	segs := []segment.Segment{
		{Equipment: segment.StringList{"tripod", "TRIPOD", "Gimbal"}},
	}

	if added := tax.Learn(segs); added != 1 {
		t.Fatalf("expected 1 new term, got %d (equipment %v)", added, tax.Equipment)
	}

	// Learning the same terms again adds nothing.
	if added := tax.Learn(segs); added != 0 {
		t.Fatalf("second learn should add nothing, got %d", added)
	}
	if len(tax.Equipment) != 2 {
		t.Errorf("expected 2 equipment entries, got %v", tax.Equipment)
	}
	// Original casing of the first appearance is preserved.
	if tax.Equipment[0] != "Tripod" || tax.Equipment[1] != "Gimbal" {
		t.Errorf("casing not preserved: %v", tax.Equipment)
	}
}

func TestLearnSkipsBlankTerms(t *testing.T) {
	tax := &Taxonomy{}
	segs := []segment.Segment{
		{Equipment: segment.StringList{"", "  ", "slider"}},
	}
	if added := tax.Learn(segs); added != 1 {
		t.Fatalf("expected 1 new term, got %d", added)
	}
}
