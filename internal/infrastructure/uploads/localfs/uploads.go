// Package localfs implements the upload area and session summary logs on
// the local filesystem: uploads/<session_id>/<file> and
// logs/<session_id>_log.txt.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
	"github.com/gluteintel/progress-tracker/internal/imaging"
)

const summaryLogSuffix = "_log.txt"

type Area struct {
	uploadsPath string
	logsPath    string
}

func New(uploadsPath, logsPath string) (*Area, error) {
	if uploadsPath == "" {
		uploadsPath = "./uploads"
	}
	if logsPath == "" {
		logsPath = "./data/logs"
	}
	for _, dir := range []string{uploadsPath, logsPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return &Area{uploadsPath: uploadsPath, logsPath: logsPath}, nil
}

func (a *Area) SaveImage(_ context.Context, sessionID, filename string, data io.Reader) error {
	dir := filepath.Join(a.uploadsPath, sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, filepath.Base(filename)))
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write image file: %w", err)
	}
	return nil
}

func (a *Area) ListImages(_ context.Context, sessionID string) ([]domain.UploadedImage, error) {
	entries, err := os.ReadDir(filepath.Join(a.uploadsPath, sessionID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrSessionNotFound, "list images", err)
		}
		return nil, fmt.Errorf("read session dir: %w", err)
	}

	out := make([]domain.UploadedImage, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !imaging.SupportedUpload(entry.Name()) {
			continue
		}
		out = append(out, domain.UploadedImage{
			SessionID: sessionID,
			Filename:  entry.Name(),
			Pose:      poseFromFilename(entry.Name()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out, nil
}

func (a *Area) OpenImage(_ context.Context, sessionID, filename string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(a.uploadsPath, sessionID, filepath.Base(filename)))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return f, nil
}

func (a *Area) ListSessions(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(a.uploadsPath)
	if err != nil {
		return nil, fmt.Errorf("read uploads dir: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			out = append(out, entry.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// SummaryLines returns the non-empty lines of the session's summary log.
func (a *Area) SummaryLines(_ context.Context, sessionID string) ([]string, error) {
	raw, err := os.ReadFile(a.summaryPath(sessionID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrSessionNotFound, "read summary log", err)
		}
		return nil, fmt.Errorf("read summary log: %w", err)
	}

	lines := make([]string, 0)
	for _, line := range strings.Split(string(raw), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines, nil
}

func (a *Area) HasSummaryLog(_ context.Context, sessionID string) (bool, error) {
	_, err := os.Stat(a.summaryPath(sessionID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat summary log: %w", err)
}

func (a *Area) summaryPath(sessionID string) string {
	return filepath.Join(a.logsPath, sessionID+summaryLogSuffix)
}

func poseFromFilename(name string) domain.Pose {
	base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
	switch base {
	case "front":
		return domain.PoseFront
	case "side":
		return domain.PoseSide
	case "rear":
		return domain.PoseRear
	default:
		return ""
	}
}
