package ports

import (
	"context"
	"io"
	"time"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
)

// SessionStore is the append-only record of per-session tags and plans.
// There is no update or delete in this contract; duplicate appends are
// allowed and only suppressed when the caller supplies the same
// idempotency key twice.
type SessionStore interface {
	AppendTags(ctx context.Context, sessionID string, tags []string, recordedAt time.Time, idempotencyKey string) error
	AppendPlan(ctx context.Context, sessionID, planText string, status domain.PlanStatus, recordedAt time.Time, idempotencyKey string) error
	TagsFor(ctx context.Context, sessionID string) ([]domain.TagRecord, error)
	PlansFor(ctx context.Context, sessionID string) ([]domain.PlanRecord, error)
	TagFrequency(ctx context.Context, sessionID string) ([]domain.TagCount, error)
	HasTags(ctx context.Context, sessionID string) (bool, error)
	HasPlans(ctx context.Context, sessionID string) (bool, error)
}

// UploadArea is the directory-like image store keyed by session id.
type UploadArea interface {
	SaveImage(ctx context.Context, sessionID, filename string, data io.Reader) error
	ListImages(ctx context.Context, sessionID string) ([]domain.UploadedImage, error)
	OpenImage(ctx context.Context, sessionID, filename string) (io.ReadCloser, error)
	ListSessions(ctx context.Context) ([]string, error)
	SummaryLines(ctx context.Context, sessionID string) ([]string, error)
	HasSummaryLog(ctx context.Context, sessionID string) (bool, error)
}

// PoseClassifier maps an image to one of the fixed pose labels. It never
// returns an error from a failed model call: the estimate carries the
// degraded fallback and its cause instead.
type PoseClassifier interface {
	ClassifyPose(ctx context.Context, image io.Reader) domain.PoseEstimate
}

// ShapeTagger maps an image to a ranked shape-tag list. Same failure policy
// as PoseClassifier: degraded calls yield the Unknown sentinel, not an error.
type ShapeTagger interface {
	SuggestTags(ctx context.Context, image io.Reader, topK int) domain.TagSuggestion
}

// PlanGenerator drafts a training plan from tags and coaching parameters.
// Generation failures come back as a failed draft holding an error string,
// never as a returned error.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, tags []string, fitnessLevel, goals, expertSource string) domain.PlanDraft
}

// ChainQueue publishes/consumes asynchronous chain requests.
type ChainQueue interface {
	PublishChainRequested(ctx context.Context, sessionID string) error
	SubscribeChainRequested(ctx context.Context, handler func(context.Context, string) error) error
}
