package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one written texture in the output manifest.
type ManifestEntry struct {
	Name     string `json:"name"`
	Config   string `json:"config"`
	Material string `json:"material"`
	Size     int    `json:"size"`
	Image    string `json:"image"`
	Preview  string `json:"preview,omitempty"`
}

// WriteManifest writes manifest.json listing every texture of the
// successful results.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		for _, t := range r.Textures {
			entries = append(entries, ManifestEntry{
				Name:     r.Name,
				Config:   r.Config,
				Material: t.Material,
				Size:     t.Size,
				Image:    t.Path,
				Preview:  t.Preview,
			})
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
