package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
	"github.com/gluteintel/progress-tracker/internal/core/ports"
	"github.com/gluteintel/progress-tracker/internal/expert"
)

// CompareImagesUseCase contrasts two stored images of one session: both are
// tagged, the tag sets are diffed, and an updated plan can be drafted from
// the after-image tags. Nothing is appended to the session store.
type CompareImagesUseCase struct {
	area      ports.UploadArea
	tagger    ports.ShapeTagger
	generator ports.PlanGenerator
	experts   *expert.Catalog
	defaults  ChainDefaults
}

func NewCompareImagesUseCase(
	area ports.UploadArea,
	tagger ports.ShapeTagger,
	generator ports.PlanGenerator,
	experts *expert.Catalog,
	defaults ChainDefaults,
) *CompareImagesUseCase {
	if experts == nil {
		experts = expert.NewCatalog()
	}
	return &CompareImagesUseCase{
		area:      area,
		tagger:    tagger,
		generator: generator,
		experts:   experts,
		defaults:  defaults,
	}
}

func (uc *CompareImagesUseCase) Compare(ctx context.Context, sessionID string, req ports.CompareRequest) (domain.ComparisonResult, error) {
	if sessionID == "" {
		return domain.ComparisonResult{}, domain.WrapError(domain.ErrInvalidInput, "compare images", errors.New("session id is required"))
	}
	if req.BeforeFilename == "" || req.AfterFilename == "" {
		return domain.ComparisonResult{}, domain.WrapError(domain.ErrInvalidInput, "compare images", errors.New("both a before and an after filename are required"))
	}

	before, err := uc.tagImage(ctx, sessionID, req.BeforeFilename)
	if err != nil {
		return domain.ComparisonResult{}, err
	}
	after, err := uc.tagImage(ctx, sessionID, req.AfterFilename)
	if err != nil {
		return domain.ComparisonResult{}, err
	}

	result := domain.ComparisonResult{
		SessionID:  sessionID,
		BeforeTags: before.Tags,
		AfterTags:  after.Tags,
		Gained:     tagDelta(before.Tags, after.Tags),
		Lost:       tagDelta(after.Tags, before.Tags),
		Degraded:   before.Outcome != domain.OutcomeOK || after.Outcome != domain.OutcomeOK,
	}

	if req.GeneratePlan {
		level := req.FitnessLevel
		if level == "" {
			level = uc.defaults.FitnessLevel
		}
		goal := req.Goal
		if goal == "" {
			goal = uc.defaults.Goal
		}
		source := uc.experts.Resolve(req.Expert, uc.defaults.Expert)

		draft := uc.generator.GeneratePlan(ctx, after.Tags, level, goal, source)
		result.PlanText = draft.Text
		result.PlanStatus = domain.PlanStatusOK
		if draft.Outcome == domain.OutcomeFailed {
			result.PlanStatus = domain.PlanStatusFailed
		}
	}
	return result, nil
}

func (uc *CompareImagesUseCase) tagImage(ctx context.Context, sessionID, filename string) (domain.TagSuggestion, error) {
	rc, err := uc.area.OpenImage(ctx, sessionID, filename)
	if err != nil {
		return domain.TagSuggestion{}, fmt.Errorf("open image %s: %w", filename, err)
	}
	defer rc.Close()
	return uc.tagger.SuggestTags(ctx, rc, uc.defaults.TopK), nil
}

// tagDelta returns the members of to absent from from, keeping to's order.
// The Unknown sentinel is skipped on both sides.
func tagDelta(from, to []string) []string {
	seen := make(map[string]struct{}, len(from))
	for _, tag := range from {
		seen[tag] = struct{}{}
	}

	delta := make([]string, 0, len(to))
	for _, tag := range to {
		if tag == domain.UnknownTag {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		delta = append(delta, tag)
	}
	return delta
}
