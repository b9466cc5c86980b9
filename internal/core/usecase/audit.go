package usecase

import (
	"context"
	"fmt"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
	"github.com/gluteintel/progress-tracker/internal/core/ports"
)

const auditAllClear = "OK"

type AuditSessionUseCase struct {
	area  ports.UploadArea
	store ports.SessionStore
}

func NewAuditSessionUseCase(area ports.UploadArea, store ports.SessionStore) *AuditSessionUseCase {
	return &AuditSessionUseCase{area: area, store: store}
}

// Validate runs four independent completeness checks and returns one issue
// string per failing check, or ["OK"] when the session is complete. A
// missing upload directory counts as a missing-images issue, not an error;
// the remaining checks still run.
func (uc *AuditSessionUseCase) Validate(ctx context.Context, sessionID string) ([]string, error) {
	issues := make([]string, 0, 4)

	images, err := uc.area.ListImages(ctx, sessionID)
	switch {
	case domain.IsKind(err, domain.ErrSessionNotFound):
		issues = append(issues, "no upload folder for session")
	case err != nil:
		return nil, fmt.Errorf("list session images: %w", err)
	case len(images) == 0:
		issues = append(issues, "no supported images uploaded")
	}

	hasTags, err := uc.store.HasTags(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("check tag records: %w", err)
	}
	if !hasTags {
		issues = append(issues, "no tags recorded")
	} else {
		onlySentinels, err := uc.onlySentinelTags(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if onlySentinels {
			issues = append(issues, "only Unknown sentinel tags recorded")
		}
	}

	hasPlans, err := uc.store.HasPlans(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("check plan records: %w", err)
	}
	if !hasPlans {
		issues = append(issues, "no plans archived")
	}

	hasLog, err := uc.area.HasSummaryLog(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("check summary log: %w", err)
	}
	if !hasLog {
		issues = append(issues, "no summary log")
	}

	if len(issues) == 0 {
		return []string{auditAllClear}, nil
	}
	return issues, nil
}

// onlySentinelTags reports whether every recorded tag is the Unknown
// sentinel, which means every tagging run so far was degraded.
func (uc *AuditSessionUseCase) onlySentinelTags(ctx context.Context, sessionID string) (bool, error) {
	frequency, err := uc.store.TagFrequency(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("tag frequency: %w", err)
	}
	for _, tc := range frequency {
		if tc.Tag != domain.UnknownTag {
			return false, nil
		}
	}
	return len(frequency) > 0, nil
}

func (uc *AuditSessionUseCase) ValidateAll(ctx context.Context) (map[string][]string, error) {
	sessions, err := uc.area.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	out := make(map[string][]string, len(sessions))
	for _, id := range sessions {
		issues, err := uc.Validate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("validate session %s: %w", id, err)
		}
		out[id] = issues
	}
	return out, nil
}
