package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yourusername/horsemen/internal/models"
	"github.com/yourusername/horsemen/internal/stats"
)

// LatestVersion selects the newest usable model version
const LatestVersion = "latest"

// ErrNoUsableVersion indicates the models root holds no complete version directory
var ErrNoUsableVersion = errors.New("no usable model version found")

// ResolveVersionDir maps a configured version to its directory under root.
// "latest" picks the last complete version in name order.
func ResolveVersionDir(root, version string, layout stats.Layout) (string, error) {
	if version != "" && version != LatestVersion {
		if strings.ContainsAny(version, `/\`) || version == ".." {
			return "", fmt.Errorf("%w: invalid version name %q", models.ErrNotFound, version)
		}
		return filepath.Join(root, version), nil
	}

	versions, err := stats.ListVersions(root, layout)
	if err != nil {
		return "", err
	}
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].IsUsable() {
			return versions[i].Path, nil
		}
	}
	return "", fmt.Errorf("%w under %s", ErrNoUsableVersion, root)
}
