package platform

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dominic-sylvester/trilium/internal/config"
	"github.com/dominic-sylvester/trilium/pkg/adapters/fs"
)

// FindRoot looks upwards from startDir for a vault root indicator: the
// system directory, a trilium.toml file or a .git directory. It returns the
// absolute path of the first directory that has one.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, fs.DefaultSystemDir) || hasFile(dir, config.FileName) || hasFile(dir, ".git") {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("vault root not found above %s", abs)
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
