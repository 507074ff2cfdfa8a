package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigFileNames are the config files FindConfig looks for, in order.
var ConfigFileNames = []string{"globalstate.yaml", "globalstate.yml", ".globalstate.yaml"}

// ErrNoConfig is returned by FindConfig when no config file exists between
// the start directory and the filesystem root.
var ErrNoConfig = errors.New("config file not found")

// FindConfig looks upwards from startDir for a config file and returns its
// absolute path.
func FindConfig(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, name := range ConfigFileNames {
			if hasFile(dir, name) {
				return filepath.Join(dir, name), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrNoConfig
}

func hasFile(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
