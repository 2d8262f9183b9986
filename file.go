package midiio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Reads and decodes the named SMF file.
func ReadFile(path string) (*Song, error) {
	data, e := os.ReadFile(path)
	if e != nil {
		return nil, fmt.Errorf("Failed reading %s: %w", path, e)
	}
	s, e := Decode(data)
	if e != nil {
		return nil, fmt.Errorf("Failed parsing %s: %w", path, e)
	}
	return s, nil
}

// Returns path with a ".mid" extension appended, unless it already ends in
// ".mid" (in any case).
func MIDIPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mid") {
		return path
	}
	return path + ".mid"
}

// Encodes the song and writes it to path, which gets a ".mid" extension if
// it lacks one. Missing parent directories are created. Returns the path
// that was written.
func WriteFile(path string, s *Song) (string, error) {
	path = MIDIPath(path)
	data, e := Encode(s)
	if e != nil {
		return "", fmt.Errorf("Failed encoding %s: %w", path, e)
	}
	e = os.MkdirAll(filepath.Dir(path), 0755)
	if e != nil {
		return "", fmt.Errorf("Failed creating directory for %s: %w", path, e)
	}
	e = os.WriteFile(path, data, 0644)
	if e != nil {
		return "", fmt.Errorf("Failed writing %s: %w", path, e)
	}
	return path, nil
}
