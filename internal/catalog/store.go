package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const dataDirName = ".broll"

// Store reads and writes a project's catalog files under the project's
// private data directory.
type Store struct {
	projectDir string
	dataDir    string
}

// NewStore opens the catalog store for a project folder, creating the data
// and thumbnail directories if needed.
func NewStore(projectDir string) (*Store, error) {
	info, err := os.Stat(projectDir)
	if err != nil {
		return nil, fmt.Errorf("project folder not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path is not a directory: %s", projectDir)
	}

	dataDir := filepath.Join(projectDir, dataDirName)
	if err := os.MkdirAll(filepath.Join(dataDir, "thumbnails"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Store{projectDir: projectDir, dataDir: dataDir}, nil
}

// ProjectDir returns the project folder the store is rooted at.
func (s *Store) ProjectDir() string { return s.projectDir }

// IndexPath returns the location of the catalog index document.
func (s *Store) IndexPath() string { return filepath.Join(s.dataDir, "index.json") }

// TaxonomyPath returns the location of the project taxonomy document.
func (s *Store) TaxonomyPath() string { return filepath.Join(s.dataDir, "taxonomy.json") }

// ThumbnailsDir returns the directory preview media is written to.
func (s *Store) ThumbnailsDir() string { return filepath.Join(s.dataDir, "thumbnails") }

// LoadIndex reads the catalog index; a missing file yields an empty index.
func (s *Store) LoadIndex() (*Index, error) {
	data, err := os.ReadFile(s.IndexPath())
	if err != nil {
		if os.IsNotExist(err) {
			return NewIndex(), nil
		}
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}
	if idx.Videos == nil {
		idx.Videos = make(map[string]VideoAsset)
	}
	if idx.Clips == nil {
		idx.Clips = []Clip{}
	}
	return &idx, nil
}

// SaveIndex rewrites the full index atomically (temp file + rename) so a
// crash mid-write never leaves a torn catalog on disk.
func (s *Store) SaveIndex(idx *Index) error {
	idx.Version = indexVersion
	idx.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	tmp := s.IndexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := os.Rename(tmp, s.IndexPath()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace index: %w", err)
	}
	return nil
}
