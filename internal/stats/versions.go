package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/yourusername/horsemen/internal/models"
)

// ListVersions returns the model version directories found directly under root,
// sorted by name, with the artifacts each one is missing.
func ListVersions(root string, layout Layout) ([]models.ModelVersion, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read models directory %s: %w", root, err)
	}

	var versions []models.ModelVersion
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}

		dir := filepath.Join(root, entry.Name())
		missing := layout.Missing(dir)
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = string(m)
		}

		versions = append(versions, models.ModelVersion{
			Name:       entry.Name(),
			Path:       dir,
			ModifiedAt: info.ModTime(),
			Complete:   len(missing) == 0,
			Missing:    names,
		})
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Name < versions[j].Name
	})
	return versions, nil
}
