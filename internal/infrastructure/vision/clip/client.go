// Package clip talks to a CLIP zero-shot inference service: one image plus
// a closed candidate label set in, a probability distribution out. Both the
// pose classifier and the shape tagger ride on the same endpoint.
package clip

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gluteintel/progress-tracker/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

// zeroShot scores the image against every candidate label and returns the
// softmax distribution in label order.
func (c *Client) zeroShot(ctx context.Context, image io.Reader, labels []string) ([]float64, error) {
	raw, err := io.ReadAll(image)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty image input")
	}

	request := map[string]any{
		"image":  base64.StdEncoding.EncodeToString(raw),
		"labels": labels,
	}

	var response struct {
		Scores []float64 `json:"scores"`
	}

	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/v1/zero-shot", request, &response, "zero-shot")
	}
	if c.executor != nil {
		err = c.executor.Execute(ctx, "clip.zero_shot", call, classifyClipError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}

	if len(response.Scores) != len(labels) {
		return nil, fmt.Errorf("scores/labels mismatch: %d/%d", len(response.Scores), len(labels))
	}
	return response.Scores, nil
}
