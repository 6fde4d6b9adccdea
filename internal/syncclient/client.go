// Package syncclient talks to the optional remote planner API. Without a
// base URL every call is skipped; nothing in the pipeline depends on it.
package syncclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	appLog "eventplanner/internal/log"
)

// ErrSkipped is returned with a Skipped result when no base URL is configured.
var ErrSkipped = errors.New("sync: no base url configured")

type Result struct {
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Message string `json:"message,omitempty"`
}

type PullResult struct {
	OK      bool           `json:"ok"`
	Skipped bool           `json:"skipped,omitempty"`
	Changes map[string]any `json:"changes"`
}

type Client struct {
	BaseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Push posts payload as JSON to {base}/planner/sync/push.
func (c *Client) Push(ctx context.Context, payload any) (Result, error) {
	if c.BaseURL == "" {
		return Result{Skipped: true}, ErrSkipped
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("sync: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/planner/sync/push", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var res Result
	if err := c.do(req, &res); err != nil {
		return Result{}, err
	}
	appLog.Info("sync push done", "ok", res.OK, "bytes", len(body))
	return res, nil
}

// Pull fetches remote changes, optionally only those after since.
func (c *Client) Pull(ctx context.Context, since *time.Time) (PullResult, error) {
	if c.BaseURL == "" {
		return PullResult{Skipped: true, Changes: map[string]any{}}, ErrSkipped
	}

	u, err := url.Parse(c.BaseURL + "/planner/sync/pull")
	if err != nil {
		return PullResult{}, fmt.Errorf("sync: bad base url: %w", err)
	}
	if since != nil {
		q := u.Query()
		q.Set("since", since.UTC().Format(time.RFC3339))
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return PullResult{}, err
	}

	var res PullResult
	if err := c.do(req, &res); err != nil {
		return PullResult{}, err
	}
	if res.Changes == nil {
		res.Changes = map[string]any{}
	}
	appLog.Info("sync pull done", "ok", res.OK, "changes", len(res.Changes))
	return res, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sync: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("sync: read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("sync: %s %s: status %s", req.Method, req.URL.Path, resp.Status)
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return fmt.Errorf("sync: decode response: %w", err)
	}
	return nil
}
