package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Local stores pictures in one directory per area.
type Local struct {
	dirs map[Area]string
}

// NewLocal creates the area directories if needed.
func NewLocal(largeDir, mediumDir, archiveDir string) (*Local, error) {
	dirs := map[Area]string{
		AreaLarge:   largeDir,
		AreaMedium:  mediumDir,
		AreaArchive: archiveDir,
	}
	for area, dir := range dirs {
		if dir == "" {
			return nil, fmt.Errorf("missing directory for %s images", area)
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create %s image directory: %w", area, err)
		}
	}
	return &Local{dirs: dirs}, nil
}

// Dir returns the directory backing area.
func (l *Local) Dir(area Area) string {
	return l.dirs[area]
}

// Put writes data to the area directory.
func (l *Local) Put(_ context.Context, area Area, name string, data []byte, _ string) (string, error) {
	dir, ok := l.dirs[area]
	if !ok || !validName(name) {
		return "", fmt.Errorf("%w: %s/%s", errInvalidKey, area, name)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return Key(area, name), nil
}

// Archive moves the file behind key into the archive directory.
func (l *Local) Archive(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	area, name, err := ParseKey(key)
	if err != nil {
		return err
	}
	if area == AreaArchive {
		return nil
	}

	src := filepath.Join(l.dirs[area], name)
	dst := filepath.Join(l.dirs[AreaArchive], archiveName(area, name))
	if err := os.Rename(src, dst); err != nil {
		if os.IsNotExist(err) {
			slog.WarnContext(ctx, "image to archive is missing", "key", key)
			return nil
		}
		return fmt.Errorf("archive image: %w", err)
	}
	return nil
}
