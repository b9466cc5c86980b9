package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
	"github.com/gluteintel/progress-tracker/internal/core/ports"
	"github.com/gluteintel/progress-tracker/internal/imaging"
)

type UploadImagesUseCase struct {
	area       ports.UploadArea
	classifier ports.PoseClassifier
}

// NewUploadImagesUseCase builds the upload flow. The classifier is optional;
// when present it infers a pose for files uploaded without one.
func NewUploadImagesUseCase(area ports.UploadArea, classifier ports.PoseClassifier) *UploadImagesUseCase {
	return &UploadImagesUseCase{area: area, classifier: classifier}
}

// UploadBatch validates and stores a batch of images for one session.
// Validation failures are reported per file, never as a batch error; the
// only batch-level failure is binding the same pose to two files, which
// rejects the whole operation before anything is stored.
func (uc *UploadImagesUseCase) UploadBatch(ctx context.Context, sessionID string, files []ports.UploadFile) ([]ports.UploadResult, error) {
	if sessionID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload batch", errors.New("session id is required"))
	}
	if len(files) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload batch", errors.New("empty upload batch"))
	}

	seenPoses := make(map[domain.Pose]string, len(domain.Poses))
	for _, file := range files {
		if file.Pose == "" || !domain.IsPose(file.Pose) {
			continue
		}
		pose := domain.Pose(file.Pose)
		if prev, ok := seenPoses[pose]; ok {
			return nil, domain.WrapError(
				domain.ErrPoseConflict,
				"upload batch",
				fmt.Errorf("pose %s bound to both %q and %q", pose, prev, file.Filename),
			)
		}
		seenPoses[pose] = file.Filename
	}

	results := make([]ports.UploadResult, 0, len(files))
	for _, file := range files {
		result := ports.UploadResult{Filename: file.Filename}

		if verdict := imaging.Validate(file.Data, file.DeclaredType); !verdict.Valid {
			result.Reason = verdict.Reason
			results = append(results, result)
			continue
		}

		meta, err := imaging.Metadata(file.Data)
		if err != nil {
			result.Reason = fmt.Sprintf("decode failed: %v", err)
			results = append(results, result)
			continue
		}
		result.Metadata = meta

		switch {
		case file.Pose != "" && !domain.IsPose(file.Pose):
			result.PoseReason = fmt.Sprintf("unknown pose %q, stored without pose assignment", file.Pose)
		case file.Pose != "":
			result.Pose = domain.Pose(file.Pose)
		case uc.classifier != nil:
			result.Pose, result.PoseReason = uc.inferPose(ctx, file, seenPoses)
		}

		storedAs := storedFilename(file.Filename, result.Pose)
		if err := uc.area.SaveImage(ctx, sessionID, storedAs, bytes.NewReader(file.Data)); err != nil {
			return results, fmt.Errorf("save image %s: %w", file.Filename, err)
		}
		result.StoredAs = storedAs
		result.Accepted = true
		results = append(results, result)
	}
	return results, nil
}

// inferPose classifies an unassigned file. A degraded estimate or a pose
// already taken in this batch leaves the file unassigned; the fallback
// (Front, 33.3) is never trusted enough to rename a file.
func (uc *UploadImagesUseCase) inferPose(ctx context.Context, file ports.UploadFile, seenPoses map[domain.Pose]string) (domain.Pose, string) {
	est := uc.classifier.ClassifyPose(ctx, bytes.NewReader(file.Data))
	if est.Outcome != domain.OutcomeOK {
		return "", fmt.Sprintf("pose classification degraded: %s", est.Cause)
	}
	if prev, taken := seenPoses[est.Pose]; taken {
		return "", fmt.Sprintf("classified as %s but that pose is already bound to %q", est.Pose, prev)
	}
	seenPoses[est.Pose] = file.Filename
	return est.Pose, fmt.Sprintf("classified as %s (%.1f%% confidence)", est.Pose, est.Confidence)
}

// storedFilename names pose-assigned files after their pose so the chain
// engine and the validator can locate them, and gives everything else a
// collision-proof uuid prefix.
func storedFilename(original string, pose domain.Pose) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = ".jpg"
	}
	if pose != "" {
		return strings.ToLower(string(pose)) + ext
	}
	return fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeFilename(original))
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "image.jpg"
	}
	return base
}
