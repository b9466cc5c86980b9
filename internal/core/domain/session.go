package domain

import "time"

// TagRecord is one appended shape-tag observation for a session.
// Records are immutable once written; history order is append order.
type TagRecord struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Tag        string    `json:"tag"`
	RecordedAt time.Time `json:"recorded_at"`
}

type PlanStatus string

const (
	PlanStatusOK     PlanStatus = "ok"
	PlanStatusFailed PlanStatus = "failed"
)

// PlanRecord is one archived training plan for a session. Failed generations
// are archived too, with Status set to failed and the error string as text.
type PlanRecord struct {
	ID         int64      `json:"id"`
	SessionID  string     `json:"session_id"`
	PlanText   string     `json:"plan_text"`
	Status     PlanStatus `json:"status"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// ImageMeta is derived, never stored: validity is recomputed on inspection.
type ImageMeta struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Format string  `json:"format"`
	SizeMB float64 `json:"size_mb"`
}

// UploadedImage describes one stored file in a session's upload area.
type UploadedImage struct {
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
	Pose      Pose   `json:"pose,omitempty"`
}

// ChainResult is what one auto-chain invocation produced. Degraded is true
// when any classifier substituted a fallback, so consumers can tell
// "model says Unknown" apart from "model failed".
type ChainResult struct {
	SessionID  string     `json:"session_id"`
	Tags       []string   `json:"tags"`
	PlanText   string     `json:"plan_text"`
	PlanStatus PlanStatus `json:"plan_status"`
	Degraded   bool       `json:"degraded"`
	RecordedAt time.Time  `json:"recorded_at"`
}

// ComparisonResult contrasts the tag suggestions for a before image and an
// after image of the same session. Gained and Lost hold real shape tags
// only: the Unknown sentinel marks a degraded tagger call, not a trait, so
// it never enters a delta set.
type ComparisonResult struct {
	SessionID  string     `json:"session_id"`
	BeforeTags []string   `json:"before_tags"`
	AfterTags  []string   `json:"after_tags"`
	Gained     []string   `json:"gained"`
	Lost       []string   `json:"lost"`
	Degraded   bool       `json:"degraded"`
	PlanText   string     `json:"plan_text,omitempty"`
	PlanStatus PlanStatus `json:"plan_status,omitempty"`
}

// SessionReport backs the dashboard view for one session.
type SessionReport struct {
	SessionID    string          `json:"session_id"`
	SummaryLines []string        `json:"summary_lines"`
	Images       []UploadedImage `json:"images"`
	TagFrequency []TagCount      `json:"tag_frequency"`
	Plans        []PlanRecord    `json:"plans"`
}
