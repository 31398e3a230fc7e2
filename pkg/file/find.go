package file

import (
	"io/fs"
	"path/filepath"
	"time"
)

// FindRecentAfter walks dir and returns every regular file whose
// modification time is after startTime.
func FindRecentAfter(dir string, startTime time.Time) ([]string, error) {
	var recent []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(startTime) {
			recent = append(recent, path)
		}
		return nil
	})

	return recent, err
}
