package clip

import (
	"context"
	"io"
	"log/slog"
	"sort"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
)

const defaultTopK = 5

type ShapeTagger struct {
	client *Client
}

func NewShapeTagger(client *Client) *ShapeTagger {
	return &ShapeTagger{client: client}
}

// SuggestTags scores the image against the full 25-entry shape vocabulary
// at once and returns the topK labels by descending probability. A failed
// call degrades to the single Unknown sentinel.
func (t *ShapeTagger) SuggestTags(ctx context.Context, image io.Reader, topK int) domain.TagSuggestion {
	if topK <= 0 {
		topK = defaultTopK
	}

	scores, err := t.client.zeroShot(ctx, image, domain.ShapeTags)
	if err != nil {
		slog.Warn("shape_tagging_degraded", "error", err)
		return domain.TagSuggestion{
			Tags:    []string{domain.UnknownTag},
			Outcome: domain.OutcomeDegraded,
			Cause:   err.Error(),
		}
	}

	ranked := make([]int, len(scores))
	for i := range ranked {
		ranked[i] = i
	}
	// Stable sort keeps vocabulary order for equal scores.
	sort.SliceStable(ranked, func(a, b int) bool {
		return scores[ranked[a]] > scores[ranked[b]]
	})

	if topK > len(ranked) {
		topK = len(ranked)
	}
	tags := make([]string, topK)
	for i := 0; i < topK; i++ {
		tags[i] = domain.ShapeTags[ranked[i]]
	}
	return domain.TagSuggestion{Tags: tags, Outcome: domain.OutcomeOK}
}
