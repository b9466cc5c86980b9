package clip

import (
	"context"
	"io"
	"log/slog"
	"math"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
)

// Fallback returned when pose classification fails for any reason. The
// confidence matches a uniform three-way split; callers must not read it
// as a confident prediction.
const (
	fallbackPose       = domain.PoseFront
	fallbackConfidence = 33.3
)

type PoseClassifier struct {
	client *Client
}

func NewPoseClassifier(client *Client) *PoseClassifier {
	return &PoseClassifier{client: client}
}

// ClassifyPose scores the image against the three pose labels and returns
// the best one with its probability as a percentage. Failures never
// propagate: the estimate degrades to (Front, 33.3) with the cause attached.
func (p *PoseClassifier) ClassifyPose(ctx context.Context, image io.Reader) domain.PoseEstimate {
	labels := make([]string, len(domain.Poses))
	for i, pose := range domain.Poses {
		labels[i] = string(pose)
	}

	scores, err := p.client.zeroShot(ctx, image, labels)
	if err != nil {
		slog.Warn("pose_classification_degraded", "error", err)
		return domain.PoseEstimate{
			Pose:       fallbackPose,
			Confidence: fallbackConfidence,
			Outcome:    domain.OutcomeDegraded,
			Cause:      err.Error(),
		}
	}

	best := 0
	for i, score := range scores {
		if score > scores[best] {
			best = i
		}
	}
	return domain.PoseEstimate{
		Pose:       domain.Poses[best],
		Confidence: math.Round(scores[best]*1000) / 10,
		Outcome:    domain.OutcomeOK,
	}
}
