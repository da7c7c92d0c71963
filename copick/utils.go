package copick

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	Kilo = 1 << 10
	Mega = 1 << 20
	Giga = 1 << 30
)

// NumCPU is the number of cores available to this server.
var NumCPU = runtime.NumCPU()

// ConvertToAbsolute returns an absolute path for the given path, treating a
// relative path as relative to baseDir.
func ConvertToAbsolute(path, baseDir string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("cannot convert empty path to absolute path")
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(filepath.Join(baseDir, path))
}

// ValidKey returns an error if a chunk key is empty or has an empty, "." or ".."
// segment.  Keys are always relative and slash-separated.
func ValidKey(key string) error {
	if key == "" {
		return InvalidPathf("empty key")
	}
	for _, part := range strings.Split(key, "/") {
		switch part {
		case "", ".", "..":
			return InvalidPathf("key %q has invalid segment %q", key, part)
		}
	}
	return nil
}
