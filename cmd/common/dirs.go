package common

import (
	"os"
	"path/filepath"
)

func CacheDir() string {
	return filepath.Join(cacheHome(), "mityguitar")
}

// SessionsDir is where finished song sessions are written, one JSON file
// per run.
func SessionsDir() string {
	return filepath.Join(CacheDir(), "sessions")
}

// https://specifications.freedesktop.org/basedir/latest/#variables
func cacheHome() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".cache")
	}
	return dir
}
