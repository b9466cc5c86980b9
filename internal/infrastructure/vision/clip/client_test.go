package clip

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
)

func zeroShotServer(t *testing.T, scoresFor func(labels []string) []float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/zero-shot" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Image  string   `json:"image"`
			Labels []string `json:"labels"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Image == "" {
			t.Fatalf("expected base64 image payload")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"scores": scoresFor(req.Labels)})
	}))
}

func TestClassifyPosePicksHighestScore(t *testing.T) {
	srv := zeroShotServer(t, func(labels []string) []float64 {
		if len(labels) != 3 {
			t.Fatalf("expected 3 pose labels, got %v", labels)
		}
		return []float64{0.1, 0.2, 0.7}
	})
	defer srv.Close()

	classifier := NewPoseClassifier(New(srv.URL, nil))
	est := classifier.ClassifyPose(context.Background(), bytes.NewReader([]byte("img")))
	if est.Outcome != domain.OutcomeOK {
		t.Fatalf("unexpected outcome: %+v", est)
	}
	if est.Pose != domain.PoseRear {
		t.Fatalf("expected Rear, got %s", est.Pose)
	}
	if est.Confidence != 70.0 {
		t.Fatalf("expected 70%% confidence, got %v", est.Confidence)
	}
}

func TestClassifyPoseDegradesToFixedFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	classifier := NewPoseClassifier(New(srv.URL, nil))
	est := classifier.ClassifyPose(context.Background(), bytes.NewReader([]byte("img")))
	if est.Pose != domain.PoseFront || est.Confidence != 33.3 {
		t.Fatalf("expected (Front, 33.3) fallback, got (%s, %v)", est.Pose, est.Confidence)
	}
	if est.Outcome != domain.OutcomeDegraded || est.Cause == "" {
		t.Fatalf("fallback must be flagged degraded with a cause: %+v", est)
	}
}

func TestClassifyPoseDegradesOnEmptyImage(t *testing.T) {
	classifier := NewPoseClassifier(New("http://unreachable.invalid", nil))
	est := classifier.ClassifyPose(context.Background(), bytes.NewReader(nil))
	if est.Pose != domain.PoseFront || est.Confidence != 33.3 || est.Outcome != domain.OutcomeDegraded {
		t.Fatalf("expected degraded fallback, got %+v", est)
	}
}

func TestSuggestTagsRanksDescending(t *testing.T) {
	srv := zeroShotServer(t, func(labels []string) []float64 {
		if len(labels) != len(domain.ShapeTags) {
			t.Fatalf("expected %d labels, got %d", len(domain.ShapeTags), len(labels))
		}
		scores := make([]float64, len(labels))
		for i, label := range labels {
			switch label {
			case "Shelf Glutes":
				scores[i] = 0.5
			case "Round (Bubble)":
				scores[i] = 0.3
			case "Peach Shape":
				scores[i] = 0.1
			default:
				scores[i] = 0.001
			}
		}
		return scores
	})
	defer srv.Close()

	tagger := NewShapeTagger(New(srv.URL, nil))
	got := tagger.SuggestTags(context.Background(), bytes.NewReader([]byte("img")), 3)
	if got.Outcome != domain.OutcomeOK {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	want := []string{"Shelf Glutes", "Round (Bubble)", "Peach Shape"}
	if len(got.Tags) != 3 {
		t.Fatalf("expected 3 tags, got %v", got.Tags)
	}
	for i := range want {
		if got.Tags[i] != want[i] {
			t.Fatalf("rank %d = %q, want %q", i, got.Tags[i], want[i])
		}
	}
}

func TestSuggestTagsDegradesToUnknownSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tagger := NewShapeTagger(New(srv.URL, nil))
	got := tagger.SuggestTags(context.Background(), bytes.NewReader([]byte("img")), 5)
	if len(got.Tags) != 1 || got.Tags[0] != domain.UnknownTag {
		t.Fatalf("expected [Unknown], got %v", got.Tags)
	}
	if got.Outcome != domain.OutcomeDegraded {
		t.Fatalf("expected degraded outcome, got %+v", got)
	}
}

func TestSuggestTagsDefaultsTopK(t *testing.T) {
	srv := zeroShotServer(t, func(labels []string) []float64 {
		scores := make([]float64, len(labels))
		for i := range scores {
			scores[i] = float64(len(labels)-i) / 100
		}
		return scores
	})
	defer srv.Close()

	tagger := NewShapeTagger(New(srv.URL, nil))
	got := tagger.SuggestTags(context.Background(), bytes.NewReader([]byte("img")), 0)
	if len(got.Tags) != 5 {
		t.Fatalf("expected default top-5, got %d", len(got.Tags))
	}
	// Uniform descending scores mean vocabulary order wins.
	if got.Tags[0] != domain.ShapeTags[0] {
		t.Fatalf("expected first vocabulary entry, got %q", got.Tags[0])
	}
}
