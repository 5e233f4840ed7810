package generator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteDataset writes each feed as <name>.json, its page as <name>.html when
// one was generated, and a manifest.json listing the injected defects.
func WriteDataset(dataset Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, f := range dataset.Feeds {
		blobPath := filepath.Join(dir, f.Name+".json")
		if err := os.WriteFile(blobPath, f.Blob, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", blobPath, err)
		}
		if f.Page == "" {
			continue
		}
		pagePath := filepath.Join(dir, f.Name+".html")
		if err := os.WriteFile(pagePath, []byte(f.Page), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", pagePath, err)
		}
	}

	return writeJSON(filepath.Join(dir, "manifest.json"), dataset)
}

func writeJSON(path string, data any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encode json for %s: %w", path, err)
	}
	return nil
}
