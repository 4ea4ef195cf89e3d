// Package storage keeps profile pictures on local disk or in a MinIO bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Area is a picture category. Each area has its own directory or prefix.
type Area string

const (
	AreaLarge   Area = "large"
	AreaMedium  Area = "medium"
	AreaArchive Area = "archive"
)

// KeyPrefix is the leading segment of every stored key.
const KeyPrefix = "images"

var errInvalidKey = errors.New("invalid storage key")

// Store persists pictures by key. Keys have the form images/<area>/<name>
// and double as the public path of the picture.
type Store interface {
	Put(ctx context.Context, area Area, name string, data []byte, contentType string) (string, error)
	// Archive moves a stored picture into the archive area. Unknown keys are ignored.
	Archive(ctx context.Context, key string) error
}

// Key builds the key of name in area.
func Key(area Area, name string) string {
	return path.Join(KeyPrefix, string(area), name)
}

// ParseKey splits a key into area and name.
func ParseKey(key string) (Area, string, error) {
	parts := strings.Split(strings.TrimPrefix(key, "/"), "/")
	if len(parts) != 3 || parts[0] != KeyPrefix || !validName(parts[2]) {
		return "", "", fmt.Errorf("%w: %q", errInvalidKey, key)
	}
	switch area := Area(parts[1]); area {
	case AreaLarge, AreaMedium, AreaArchive:
		return area, parts[2], nil
	}
	return "", "", fmt.Errorf("%w: %q", errInvalidKey, key)
}

// archiveName keeps the source area in the archived name so large and
// medium copies of one upload do not collide.
func archiveName(area Area, name string) string {
	return string(area) + "_" + name
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." || len(name) > 128 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}
