package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
	"github.com/gluteintel/progress-tracker/internal/core/ports"
	"github.com/gluteintel/progress-tracker/internal/expert"
)

// ChainDefaults are the coaching parameters used when the caller supplies
// no overrides, mirroring the historical one-click chain behavior.
type ChainDefaults struct {
	FitnessLevel string
	Goal         string
	Expert       string
	TopK         int
}

type ChainSessionUseCase struct {
	area      ports.UploadArea
	store     ports.SessionStore
	tagger    ports.ShapeTagger
	generator ports.PlanGenerator
	experts   *expert.Catalog
	defaults  ChainDefaults

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewChainSessionUseCase(
	area ports.UploadArea,
	store ports.SessionStore,
	tagger ports.ShapeTagger,
	generator ports.PlanGenerator,
	experts *expert.Catalog,
	defaults ChainDefaults,
) *ChainSessionUseCase {
	if experts == nil {
		experts = expert.NewCatalog()
	}
	return &ChainSessionUseCase{
		area:      area,
		store:     store,
		tagger:    tagger,
		generator: generator,
		experts:   experts,
		defaults:  defaults,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (uc *ChainSessionUseCase) AutoChain(ctx context.Context, sessionID string) (domain.ChainResult, error) {
	return uc.ChainWith(ctx, sessionID, "", "", "")
}

// ChainWith tags every image of the session, generates a plan from the
// unioned tags and appends both to the store. Concurrent invocations for
// the same session serialize on a per-session mutex so appends never
// interleave. A failed generation is still archived, with the plan record
// flagged failed.
func (uc *ChainSessionUseCase) ChainWith(ctx context.Context, sessionID, fitnessLevel, goals, expertSource string) (domain.ChainResult, error) {
	unlock := uc.lockSession(sessionID)
	defer unlock()

	images, err := uc.area.ListImages(ctx, sessionID)
	if err != nil {
		return domain.ChainResult{}, fmt.Errorf("list session images: %w", err)
	}
	if len(images) == 0 {
		return domain.ChainResult{}, domain.WrapError(domain.ErrInvalidInput, "chain session", errors.New("no images uploaded"))
	}

	tags, degraded, err := uc.collectTags(ctx, sessionID, images)
	if err != nil {
		return domain.ChainResult{}, err
	}

	if fitnessLevel == "" {
		fitnessLevel = uc.defaults.FitnessLevel
	}
	if goals == "" {
		goals = uc.defaults.Goal
	}
	expertSource = uc.experts.Resolve(expertSource, uc.defaults.Expert)

	draft := uc.generator.GeneratePlan(ctx, tags, fitnessLevel, goals, expertSource)
	status := domain.PlanStatusOK
	if draft.Outcome == domain.OutcomeFailed {
		status = domain.PlanStatusFailed
	}

	now := time.Now().UTC()
	key := uuid.NewString()
	if err := uc.store.AppendTags(ctx, sessionID, tags, now, key); err != nil {
		return domain.ChainResult{}, fmt.Errorf("append tags: %w", err)
	}
	if err := uc.store.AppendPlan(ctx, sessionID, draft.Text, status, now, key); err != nil {
		return domain.ChainResult{}, fmt.Errorf("append plan: %w", err)
	}

	return domain.ChainResult{
		SessionID:  sessionID,
		Tags:       tags,
		PlanText:   draft.Text,
		PlanStatus: status,
		Degraded:   degraded,
		RecordedAt: now,
	}, nil
}

// collectTags tags every image and unions the suggestions in first-seen
// order, collapsing duplicates across images.
func (uc *ChainSessionUseCase) collectTags(ctx context.Context, sessionID string, images []domain.UploadedImage) ([]string, bool, error) {
	seen := make(map[string]struct{})
	tags := make([]string, 0)
	degraded := false

	for _, img := range images {
		rc, err := uc.area.OpenImage(ctx, sessionID, img.Filename)
		if err != nil {
			return nil, false, fmt.Errorf("open image %s: %w", img.Filename, err)
		}
		suggestion := uc.tagger.SuggestTags(ctx, rc, uc.defaults.TopK)
		rc.Close()

		if suggestion.Outcome != domain.OutcomeOK {
			degraded = true
		}
		for _, tag := range suggestion.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags, degraded, nil
}

func (uc *ChainSessionUseCase) lockSession(sessionID string) func() {
	uc.mu.Lock()
	lock, ok := uc.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		uc.locks[sessionID] = lock
	}
	uc.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
