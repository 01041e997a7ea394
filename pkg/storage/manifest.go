package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"xfollowers/pkg/models"
)

// ManifestSuffix is appended to an export's filename to name its manifest
const ManifestSuffix = ".json"

// Manifest describes the run behind one export
type Manifest struct {
	Handle     string         `json:"handle"`
	Mode       models.RunMode `json:"mode"`
	RunID      string         `json:"run_id,omitempty"`
	Filename   string         `json:"filename"`
	Counts     models.Counts  `json:"counts"`
	Truncated  bool           `json:"truncated,omitempty"`
	ExportedAt time.Time      `json:"exported_at"`
}

// NewManifest fills the export time with now in UTC
func NewManifest(handle string, mode models.RunMode, filename string, counts models.Counts) *Manifest {
	return &Manifest{
		Handle:     handle,
		Mode:       mode,
		Filename:   filepath.Base(filename),
		Counts:     counts,
		ExportedAt: time.Now().UTC(),
	}
}

// SaveManifest writes meta next to its export
func (m *Manager) SaveManifest(meta *Manifest) (string, error) {
	if meta.Filename == "" {
		return "", fmt.Errorf("manifest has no export filename")
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return m.SaveExport(bytes.NewReader(data), meta.Filename+ManifestSuffix)
}

// LoadManifest reads the manifest of the export named filename
func (m *Manager) LoadManifest(filename string) (*Manifest, error) {
	path := filepath.Join(m.outputDir, cleanName(filename)+ManifestSuffix)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var meta Manifest
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &meta, nil
}
