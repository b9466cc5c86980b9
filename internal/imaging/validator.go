// Package imaging implements the pure upload-image checks: format, size,
// decodability and minimum resolution. Nothing here touches disk or network.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
)

const (
	MaxSizeMB = 8
	MinWidth  = 256
	MinHeight = 256
)

var supportedFormats = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
}

// Result is the structured validation outcome. Reason names the first
// failing check; later checks are not evaluated.
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func invalid(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks, in order: declared format membership, byte-size ceiling,
// decodability, minimum resolution. A decode failure is terminal.
func Validate(data []byte, declaredType string) Result {
	format := subtype(declaredType)
	if _, ok := supportedFormats[format]; !ok {
		return invalid("unsupported format: %s", format)
	}

	sizeMB := float64(len(data)) / (1024 * 1024)
	if sizeMB > MaxSizeMB {
		return invalid("file too large: %.2fMB", sizeMB)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return invalid("corrupted image or cannot open: %v", err)
	}
	if cfg.Width < MinWidth || cfg.Height < MinHeight {
		return invalid("image resolution too low: %dx%d", cfg.Width, cfg.Height)
	}
	return Result{Valid: true}
}

// Metadata inspects a decodable image. SizeMB is rounded to two decimals.
func Metadata(data []byte) (domain.ImageMeta, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.ImageMeta{}, fmt.Errorf("decode image config: %w", err)
	}
	sizeMB := float64(len(data)) / (1024 * 1024)
	return domain.ImageMeta{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		SizeMB: math.Round(sizeMB*100) / 100,
	}, nil
}

// Dimensions returns (width, height) of a decodable image.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// subtype extracts the lowercase MIME subtype ("image/PNG" -> "png").
func subtype(declaredType string) string {
	s := strings.ToLower(strings.TrimSpace(declaredType))
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		s = s[idx+1:]
	}
	return s
}

// SupportedUpload reports whether a stored filename looks like an upload
// the pipeline recognizes, by extension.
func SupportedUpload(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	_, ok := supportedFormats[ext]
	return ok
}
