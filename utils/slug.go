package utils

import (
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugLength  = 255
	slugTimeLayout = "20060102150405"
)

// foldDiacritics decomposes accented characters and drops the
// combining marks, so "résumé" normalizes to "resume".
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeSlugBase(s string) string {
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '.' || r == '-' || r == ' ':
			b.WriteRune(r)
		}
	}

	// collapse runs of whitespace into single underscores
	fields := strings.Fields(b.String())
	return strings.ToLower(strings.Join(fields, "_"))
}

// FileSlug builds a URL-safe identifier for a file display name. The
// shape is base-uuidfragment-timestamp-ext; the uuid fragment plus the
// second-resolution timestamp make collisions negligible, and the
// store still enforces uniqueness on the column.
func FileSlug(name string, now time.Time) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	base := normalizeSlugBase(strings.TrimSuffix(name, filepath.Ext(name)))
	ts := now.Format(slugTimeLayout)
	if base == "" {
		base = ts
	}

	suffix := "-" + uuidFragment() + "-" + ts
	if ext != "" {
		suffix += "-" + ext
	}
	return truncateBase(base, suffix) + suffix
}

// FolderSlug is FileSlug without the extension segment.
func FolderSlug(name string, now time.Time) string {
	base := normalizeSlugBase(name)
	ts := now.Format(slugTimeLayout)
	if base == "" {
		base = ts
	}

	suffix := "-" + uuidFragment() + "-" + ts
	return truncateBase(base, suffix) + suffix
}

func uuidFragment() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

func truncateBase(base, suffix string) string {
	if len(base)+len(suffix) <= maxSlugLength {
		return base
	}
	keep := maxSlugLength - len(suffix)
	if keep < 1 {
		keep = 1
	}
	return base[:keep]
}
