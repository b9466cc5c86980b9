package ports

import (
	"context"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
)

// ImageIngestor is the inbound contract for the upload flow.
type ImageIngestor interface {
	UploadBatch(ctx context.Context, sessionID string, files []UploadFile) ([]UploadResult, error)
}

// UploadFile is one file of an upload batch. Pose is optional; when set it
// must be unique within the batch.
type UploadFile struct {
	Filename     string
	DeclaredType string
	Pose         string
	Data         []byte
}

// UploadResult reports the per-file validation outcome, so the upload flow
// can show a reason for every rejected file.
type UploadResult struct {
	Filename   string           `json:"filename"`
	StoredAs   string           `json:"stored_as,omitempty"`
	Accepted   bool             `json:"accepted"`
	Reason     string           `json:"reason,omitempty"`
	Metadata   domain.ImageMeta `json:"metadata,omitempty"`
	Pose       domain.Pose      `json:"pose,omitempty"`
	PoseReason string           `json:"pose_reason,omitempty"`
}

// SessionChainer tags a session's images, generates a training plan from
// the unioned tags and archives both.
type SessionChainer interface {
	AutoChain(ctx context.Context, sessionID string) (domain.ChainResult, error)
	ChainWith(ctx context.Context, sessionID, fitnessLevel, goals, expert string) (domain.ChainResult, error)
}

// CompareRequest names the two stored images to contrast and the optional
// plan-generation parameters. When GeneratePlan is set, the updated plan
// is drafted from the after-image tags.
type CompareRequest struct {
	BeforeFilename string
	AfterFilename  string
	GeneratePlan   bool
	FitnessLevel   string
	Goal           string
	Expert         string
}

// SessionComparer contrasts a before and an after image of one session.
// The result is advisory; nothing is appended to the session store.
type SessionComparer interface {
	Compare(ctx context.Context, sessionID string, req CompareRequest) (domain.ComparisonResult, error)
}

// SessionAuditor audits sessions for completeness. Issues are advisory
// strings; a complete session reports exactly ["OK"].
type SessionAuditor interface {
	Validate(ctx context.Context, sessionID string) ([]string, error)
	ValidateAll(ctx context.Context) (map[string][]string, error)
}

// SessionReporter assembles the dashboard view for one session.
type SessionReporter interface {
	Report(ctx context.Context, sessionID string) (*domain.SessionReport, error)
	Sessions(ctx context.Context) ([]string, error)
}
