package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
	"github.com/gluteintel/progress-tracker/internal/core/ports"
)

func newCompareUC(tagger *taggerFake, generator *generatorFake) *CompareImagesUseCase {
	return NewCompareImagesUseCase(newAreaFake(), tagger, generator, nil, ChainDefaults{
		FitnessLevel: "Intermediate",
		Goal:         "Aesthetic Shape + Strength",
		Expert:       "Bret Contreras (The Glute Guy)",
		TopK:         5,
	})
}

func TestCompareComputesGainedAndLostTags(t *testing.T) {
	tagger := &taggerFake{queue: []domain.TagSuggestion{
		{Tags: []string{"Flat (Pancake)", "Square"}, Outcome: domain.OutcomeOK},
		{Tags: []string{"Square", "Round (Bubble)", "Shelf Glutes"}, Outcome: domain.OutcomeOK},
	}}

	result, err := newCompareUC(tagger, &generatorFake{}).Compare(context.Background(), "S1", ports.CompareRequest{
		BeforeFilename: "front_week1.png",
		AfterFilename:  "front_week8.png",
	})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if !reflect.DeepEqual(result.Gained, []string{"Round (Bubble)", "Shelf Glutes"}) {
		t.Fatalf("gained = %v", result.Gained)
	}
	if !reflect.DeepEqual(result.Lost, []string{"Flat (Pancake)"}) {
		t.Fatalf("lost = %v", result.Lost)
	}
	if result.Degraded {
		t.Fatal("two clean tagger calls must not mark the result degraded")
	}
	if result.PlanText != "" {
		t.Fatalf("no plan was requested, got %q", result.PlanText)
	}
}

func TestCompareKeepsSentinelOutOfDeltas(t *testing.T) {
	tagger := &taggerFake{queue: []domain.TagSuggestion{
		{Tags: []string{domain.UnknownTag}, Outcome: domain.OutcomeDegraded, Cause: "inference timeout"},
		{Tags: []string{"Square"}, Outcome: domain.OutcomeOK},
	}}

	result, err := newCompareUC(tagger, &generatorFake{}).Compare(context.Background(), "S1", ports.CompareRequest{
		BeforeFilename: "before.png",
		AfterFilename:  "after.png",
	})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if !result.Degraded {
		t.Fatal("a degraded tagger call must mark the result degraded")
	}
	if !reflect.DeepEqual(result.Gained, []string{"Square"}) {
		t.Fatalf("gained = %v", result.Gained)
	}
	if len(result.Lost) != 0 {
		t.Fatalf("the sentinel must never appear as a lost trait: %v", result.Lost)
	}
	if !reflect.DeepEqual(result.BeforeTags, []string{domain.UnknownTag}) {
		t.Fatalf("observed before tags must be reported as-is: %v", result.BeforeTags)
	}
}

func TestCompareGeneratesPlanFromAfterTags(t *testing.T) {
	tagger := &taggerFake{queue: []domain.TagSuggestion{
		{Tags: []string{"Flat (Pancake)"}, Outcome: domain.OutcomeOK},
		{Tags: []string{"Round (Bubble)"}, Outcome: domain.OutcomeOK},
	}}
	generator := &generatorFake{draft: domain.PlanDraft{Text: "UPDATED_PLAN", Outcome: domain.OutcomeOK}}

	result, err := newCompareUC(tagger, generator).Compare(context.Background(), "S1", ports.CompareRequest{
		BeforeFilename: "before.png",
		AfterFilename:  "after.png",
		GeneratePlan:   true,
		Expert:         "nobody famous",
	})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if !reflect.DeepEqual(generator.gotTags, []string{"Round (Bubble)"}) {
		t.Fatalf("plan must be drafted from the after tags, got %v", generator.gotTags)
	}
	if generator.gotLevel != "Intermediate" || generator.gotGoals != "Aesthetic Shape + Strength" {
		t.Fatalf("defaults not applied: level=%q goals=%q", generator.gotLevel, generator.gotGoals)
	}
	if generator.gotExpert != "Bret Contreras (The Glute Guy)" {
		t.Fatalf("unknown expert must resolve to the default, got %q", generator.gotExpert)
	}
	if result.PlanText != "UPDATED_PLAN" || result.PlanStatus != domain.PlanStatusOK {
		t.Fatalf("unexpected plan: %q (%s)", result.PlanText, result.PlanStatus)
	}
}

func TestCompareFlagsFailedGeneration(t *testing.T) {
	tagger := &taggerFake{}
	generator := &generatorFake{draft: domain.PlanDraft{
		Text:    "Error generating plan: rate limited",
		Outcome: domain.OutcomeFailed,
		Cause:   "rate limited",
	}}

	result, err := newCompareUC(tagger, generator).Compare(context.Background(), "S1", ports.CompareRequest{
		BeforeFilename: "before.png",
		AfterFilename:  "after.png",
		GeneratePlan:   true,
	})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.PlanStatus != domain.PlanStatusFailed {
		t.Fatalf("expected failed plan status, got %s", result.PlanStatus)
	}
	if result.PlanText != "Error generating plan: rate limited" {
		t.Fatalf("error-string draft must be passed through, got %q", result.PlanText)
	}
}

func TestCompareRejectsIncompleteRequests(t *testing.T) {
	uc := newCompareUC(&taggerFake{}, &generatorFake{})

	_, err := uc.Compare(context.Background(), "", ports.CompareRequest{BeforeFilename: "a.png", AfterFilename: "b.png"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty session, got %v", err)
	}

	_, err = uc.Compare(context.Background(), "S1", ports.CompareRequest{AfterFilename: "b.png"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing before filename, got %v", err)
	}
}

func TestComparePropagatesOpenErrors(t *testing.T) {
	area := newAreaFake()
	area.openErr = domain.WrapError(domain.ErrSessionNotFound, "open image", errors.New("no such file"))
	uc := NewCompareImagesUseCase(area, &taggerFake{}, &generatorFake{}, nil, ChainDefaults{TopK: 5})

	_, err := uc.Compare(context.Background(), "S1", ports.CompareRequest{BeforeFilename: "a.png", AfterFilename: "b.png"})
	if !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not-found kind, got %v", err)
	}
}
