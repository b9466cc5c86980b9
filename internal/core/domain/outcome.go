package domain

// Outcome is the out-of-band status carried alongside classifier and
// generator results. The original pipeline swallowed failures behind
// sentinel values; the sentinel behavior is preserved, the outcome makes
// it observable.
type Outcome string

const (
	OutcomeOK Outcome = "ok"
	// OutcomeDegraded means the call failed and a documented fallback value
	// was substituted (Front/33.3 for pose, ["Unknown"] for tags).
	OutcomeDegraded Outcome = "degraded"
	OutcomeFailed   Outcome = "failed"
)

// PoseEstimate is a pose classification result. When Outcome is degraded the
// label/confidence pair is the fixed fallback, not a real prediction.
type PoseEstimate struct {
	Pose       Pose    `json:"pose"`
	Confidence float64 `json:"confidence"`
	Outcome    Outcome `json:"outcome"`
	Cause      string  `json:"cause,omitempty"`
}

// TagSuggestion is a ranked shape-tag suggestion for one image.
type TagSuggestion struct {
	Tags    []string `json:"tags"`
	Outcome Outcome  `json:"outcome"`
	Cause   string   `json:"cause,omitempty"`
}

// PlanDraft is a generated plan. On failure Text holds the
// "Error generating plan: ..." string the original emitted; Outcome and
// Cause carry the real signal.
type PlanDraft struct {
	Text    string  `json:"text"`
	Outcome Outcome `json:"outcome"`
	Cause   string  `json:"cause,omitempty"`
}
