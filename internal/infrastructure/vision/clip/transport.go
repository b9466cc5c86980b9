package clip

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("clip %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newStatusError(operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

type httpStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func newStatusError(operation string, resp *http.Response) *httpStatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &httpStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}

func (e *httpStatusError) Error() string {
	if e == nil {
		return "clip status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("clip %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("clip %s status: %s: %s", e.Operation, e.Status, e.Body)
}
