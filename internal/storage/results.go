package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// ResultStore persists one analysis run as a machine-readable JSON file
// plus a human-readable markdown report, under
// <baseDir>/<symbol>/<timeKey>/.
type ResultStore struct {
	baseDir string
}

func NewResultStore(baseDir string) *ResultStore {
	return &ResultStore{baseDir: baseDir}
}

func (s *ResultStore) runDir(symbol, timeKey string) string {
	return filepath.Join(s.baseDir, symbol, timeKey)
}

// Save writes the full result payload and the rendered report. Failures
// are returned so the caller can log them, but a run is never aborted
// because its persistence failed.
func (s *ResultStore) Save(symbol, timeKey string, payload any, report string) error {
	dir := s.runDir(symbol, timeKey)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create result dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result for %s: %w", symbol, err)
	}
	jsonPath := filepath.Join(dir, "result.json")
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", jsonPath, err)
	}

	mdPath := filepath.Join(dir, "report.md")
	if err := os.WriteFile(mdPath, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}

	log.Printf("[storage] result written to %s", dir)
	return nil
}

// Load reads back a previously saved result payload.
func (s *ResultStore) Load(symbol, timeKey string, payload any) error {
	jsonPath := filepath.Join(s.runDir(symbol, timeKey), "result.json")
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", jsonPath, err)
	}
	return json.Unmarshal(data, payload)
}
