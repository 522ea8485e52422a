package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ExportPattern matches the scraper's multi-region output files.
const ExportPattern = "camra_heritage_3STAR_*.json"

// ReadRecords decodes a scraper export: a JSON array of flat objects.
func ReadRecords(r io.Reader) ([]map[string]any, error) {
	var out []map[string]any
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return out, nil
}

// LatestExport returns the most recently modified export in dir.
func LatestExport(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, ExportPattern))
	if err != nil {
		return "", err
	}
	var latest string
	var latestMod int64
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil || st.IsDir() {
			continue
		}
		if mod := st.ModTime().UnixNano(); latest == "" || mod > latestMod {
			latest, latestMod = m, mod
		}
	}
	if latest == "" {
		return "", fmt.Errorf("no scraper output matching %s in %s", ExportPattern, dir)
	}
	return latest, nil
}
