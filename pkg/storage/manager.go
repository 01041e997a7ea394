package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Manager handles export files in one output directory
type Manager struct {
	outputDir string
	exports   map[string]bool
	mu        sync.RWMutex
}

// NewManager creates the output directory if needed and indexes the
// exports already in it
func NewManager(outputDir string) (*Manager, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir: outputDir,
		exports:   make(map[string]bool),
	}
	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}
	return manager, nil
}

func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".csv" {
			m.exports[entry.Name()] = true
		}
	}
	return nil
}

// Exists reports whether an export named filename is already present
func (m *Manager) Exists(filename string) bool {
	name := cleanName(filename)

	m.mu.RLock()
	known := m.exports[name]
	m.mu.RUnlock()
	if known {
		return true
	}

	if _, err := os.Stat(filepath.Join(m.outputDir, name)); err == nil {
		m.mu.Lock()
		m.exports[name] = true
		m.mu.Unlock()
		return true
	}
	return false
}

// SaveExport writes r to filename atomically, replacing any earlier export
// of the same name, and returns the written path
func (m *Manager) SaveExport(r io.Reader, filename string) (string, error) {
	name := cleanName(filename)
	if name == "" {
		return "", fmt.Errorf("invalid export filename %q", filename)
	}

	path := filepath.Join(m.outputDir, name)
	if err := writeAtomic(path, r); err != nil {
		return "", err
	}

	if filepath.Ext(name) == ".csv" {
		m.mu.Lock()
		m.exports[name] = true
		m.mu.Unlock()
	}
	return path, nil
}

// Exports lists the CSV exports in the directory, sorted by name
func (m *Manager) Exports() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.exports))
	for name := range m.exports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

func writeAtomic(path string, r io.Reader) error {
	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write export: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func cleanName(filename string) string {
	name := filepath.Base(strings.TrimSpace(filename))
	switch name {
	case ".", "..", string(filepath.Separator):
		return ""
	}
	return name
}
