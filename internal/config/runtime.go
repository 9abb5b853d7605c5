package config

import (
	"os"
	"path/filepath"
)

func GetRuntimePath() string {
	path := os.Getenv("PORCH_RUNTIME_PATH")
	if path == "" {
		path = ".porch"
	}
	return resolveRuntimePath(path)
}

// resolveRuntimePath anchors relative runtime paths under the user's home.
func resolveRuntimePath(path string) string {
	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}
