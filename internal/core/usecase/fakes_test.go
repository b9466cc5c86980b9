package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
)

type areaFake struct {
	images    map[string][]domain.UploadedImage
	saved     map[string][]byte
	summaries map[string][]string
	sessions  []string
	saveErr   error
	openErr   error
}

func newAreaFake() *areaFake {
	return &areaFake{
		images:    make(map[string][]domain.UploadedImage),
		saved:     make(map[string][]byte),
		summaries: make(map[string][]string),
	}
}

func (f *areaFake) SaveImage(_ context.Context, sessionID, filename string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[sessionID+"/"+filename] = raw
	f.images[sessionID] = append(f.images[sessionID], domain.UploadedImage{SessionID: sessionID, Filename: filename})
	return nil
}

func (f *areaFake) ListImages(_ context.Context, sessionID string) ([]domain.UploadedImage, error) {
	images, ok := f.images[sessionID]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "list images", errors.New("no such session dir"))
	}
	return images, nil
}

func (f *areaFake) OpenImage(context.Context, string, string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (f *areaFake) ListSessions(context.Context) ([]string, error) {
	return f.sessions, nil
}

func (f *areaFake) SummaryLines(_ context.Context, sessionID string) ([]string, error) {
	lines, ok := f.summaries[sessionID]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "read summary log", errors.New("no log"))
	}
	return lines, nil
}

func (f *areaFake) HasSummaryLog(_ context.Context, sessionID string) (bool, error) {
	_, ok := f.summaries[sessionID]
	return ok, nil
}

type tagAppend struct {
	sessionID  string
	tags       []string
	recordedAt time.Time
	key        string
}

type planAppend struct {
	sessionID  string
	planText   string
	status     domain.PlanStatus
	recordedAt time.Time
	key        string
}

type storeFake struct {
	tagCalls  []tagAppend
	planCalls []planAppend
	tags      map[string][]domain.TagRecord
	plans     map[string][]domain.PlanRecord
	appendErr error
}

func newStoreFake() *storeFake {
	return &storeFake{
		tags:  make(map[string][]domain.TagRecord),
		plans: make(map[string][]domain.PlanRecord),
	}
}

func (f *storeFake) AppendTags(_ context.Context, sessionID string, tags []string, recordedAt time.Time, key string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.tagCalls = append(f.tagCalls, tagAppend{sessionID: sessionID, tags: tags, recordedAt: recordedAt, key: key})
	for _, tag := range tags {
		f.tags[sessionID] = append(f.tags[sessionID], domain.TagRecord{
			ID:         int64(len(f.tags[sessionID]) + 1),
			SessionID:  sessionID,
			Tag:        tag,
			RecordedAt: recordedAt,
		})
	}
	return nil
}

func (f *storeFake) AppendPlan(_ context.Context, sessionID, planText string, status domain.PlanStatus, recordedAt time.Time, key string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.planCalls = append(f.planCalls, planAppend{sessionID: sessionID, planText: planText, status: status, recordedAt: recordedAt, key: key})
	f.plans[sessionID] = append(f.plans[sessionID], domain.PlanRecord{
		ID:         int64(len(f.plans[sessionID]) + 1),
		SessionID:  sessionID,
		PlanText:   planText,
		Status:     status,
		RecordedAt: recordedAt,
	})
	return nil
}

func (f *storeFake) TagsFor(_ context.Context, sessionID string) ([]domain.TagRecord, error) {
	return f.tags[sessionID], nil
}

func (f *storeFake) PlansFor(_ context.Context, sessionID string) ([]domain.PlanRecord, error) {
	return f.plans[sessionID], nil
}

func (f *storeFake) TagFrequency(_ context.Context, sessionID string) ([]domain.TagCount, error) {
	return domain.CountTags(f.tags[sessionID]), nil
}

func (f *storeFake) HasTags(_ context.Context, sessionID string) (bool, error) {
	return len(f.tags[sessionID]) > 0, nil
}

func (f *storeFake) HasPlans(_ context.Context, sessionID string) (bool, error) {
	return len(f.plans[sessionID]) > 0, nil
}

// taggerFake returns one queued suggestion per call, in order.
type taggerFake struct {
	queue []domain.TagSuggestion
	calls int
}

func (f *taggerFake) SuggestTags(context.Context, io.Reader, int) domain.TagSuggestion {
	if f.calls >= len(f.queue) {
		return domain.TagSuggestion{Outcome: domain.OutcomeOK}
	}
	s := f.queue[f.calls]
	f.calls++
	return s
}

type classifierFake struct {
	queue []domain.PoseEstimate
	calls int
}

func (f *classifierFake) ClassifyPose(context.Context, io.Reader) domain.PoseEstimate {
	if f.calls >= len(f.queue) {
		return domain.PoseEstimate{Pose: domain.PoseFront, Confidence: 33.3, Outcome: domain.OutcomeDegraded, Cause: "no estimate queued"}
	}
	e := f.queue[f.calls]
	f.calls++
	return e
}

type generatorFake struct {
	draft     domain.PlanDraft
	gotTags   []string
	gotLevel  string
	gotGoals  string
	gotExpert string
}

func (f *generatorFake) GeneratePlan(_ context.Context, tags []string, fitnessLevel, goals, expertSource string) domain.PlanDraft {
	f.gotTags = tags
	f.gotLevel = fitnessLevel
	f.gotGoals = goals
	f.gotExpert = expertSource
	return f.draft
}
