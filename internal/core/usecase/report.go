package usecase

import (
	"context"
	"fmt"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
	"github.com/gluteintel/progress-tracker/internal/core/ports"
)

type ReportSessionUseCase struct {
	area  ports.UploadArea
	store ports.SessionStore
}

func NewReportSessionUseCase(area ports.UploadArea, store ports.SessionStore) *ReportSessionUseCase {
	return &ReportSessionUseCase{area: area, store: store}
}

// Report assembles the dashboard view for one session. A session counts as
// known if any artifact exists for it; only a session with no images, no
// log, no tags and no plans is reported as not found.
func (uc *ReportSessionUseCase) Report(ctx context.Context, sessionID string) (*domain.SessionReport, error) {
	lines, err := uc.area.SummaryLines(ctx, sessionID)
	if err != nil && !domain.IsKind(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("read summary log: %w", err)
	}

	images, err := uc.area.ListImages(ctx, sessionID)
	if err != nil && !domain.IsKind(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("list session images: %w", err)
	}

	frequency, err := uc.store.TagFrequency(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("tag frequency: %w", err)
	}

	plans, err := uc.store.PlansFor(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	if len(lines) == 0 && len(images) == 0 && len(frequency) == 0 && len(plans) == 0 {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "session report", fmt.Errorf("no artifacts for session %s", sessionID))
	}

	return &domain.SessionReport{
		SessionID:    sessionID,
		SummaryLines: lines,
		Images:       images,
		TagFrequency: frequency,
		Plans:        plans,
	}, nil
}

func (uc *ReportSessionUseCase) Sessions(ctx context.Context) ([]string, error) {
	sessions, err := uc.area.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
