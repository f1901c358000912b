// Package taxonomy holds the per-project controlled vocabulary that both
// drives the classification prompt and tags accepted clips.
package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkravets/brollscout/internal/segment"
)

// Taxonomy is the editable vocabulary for one project. List fields only
// ever grow; MinimumBrollScore is user-set and controls segment filtering.
type Taxonomy struct {
	ShotTypes          []string `json:"shotTypes"`
	Equipment          []string `json:"equipment"`
	Products           []string `json:"products"`
	Techniques         []string `json:"techniques"`
	SubjectDescriptors []string `json:"subjectDescriptors"`
	MinimumBrollScore  float64  `json:"minimumBrollScore"`
	PromptContext      string   `json:"promptContext,omitempty"`
}

// Default returns the starter vocabulary used for projects that have not
// yet saved their own.
func Default() *Taxonomy {
	return &Taxonomy{
		ShotTypes: []string{
			"close-up", "extreme close-up", "medium shot", "wide shot",
			"overhead", "macro", "pan", "tilt", "rack focus", "slow motion",
		},
		Equipment: []string{
			"tripod", "gimbal", "slider", "softbox", "ring light",
		},
		Products:  []string{},
		Techniques: []string{
			"shallow depth of field", "natural light", "backlight", "handheld",
		},
		SubjectDescriptors: []string{
			"hands", "product", "workspace", "texture detail",
		},
		MinimumBrollScore: segment.DefaultMinimumScore,
	}
}

// Load reads a project taxonomy from disk. A missing file yields the
// default taxonomy rather than an error.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read taxonomy: %w", err)
	}

	var t Taxonomy
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	if t.MinimumBrollScore <= 0 {
		t.MinimumBrollScore = segment.DefaultMinimumScore
	}
	return &t, nil
}

// Save writes the taxonomy atomically.
func Save(path string, t *Taxonomy) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode taxonomy: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create taxonomy directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write taxonomy: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace taxonomy: %w", err)
	}
	return nil
}
