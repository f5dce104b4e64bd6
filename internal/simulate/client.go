package simulate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/boothwise/internal/domain/model"
)

// submitResult classifies one POST /interactions outcome.
type submitResult int

const (
	resultAccepted submitResult = iota
	resultDuplicate
	resultFailed
)

type ackResponse struct {
	Status        string `json:"status"`
	Duplicate     bool   `json:"duplicate"`
	InteractionID string `json:"interaction_id"`
}

type regenerateResponse struct {
	UserID          string              `json:"user_id"`
	Recommendations []model.ScoredBooth `json:"recommendations"`
	IDs             []string            `json:"ids"`
}

// client is a small JSON client for the boothwise HTTP API.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request body: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}
	if out != nil && resp.StatusCode < http.StatusMultipleChoices {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *client) health(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

func (c *client) putBooth(ctx context.Context, b *model.Booth) error {
	status, err := c.do(ctx, http.MethodPut, "/booths/"+url.PathEscape(b.ID), b, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: put booth %s: %d", ErrUnexpectedStatus, b.ID, status)
	}
	return nil
}

func (c *client) listBooths(ctx context.Context) ([]model.Booth, error) {
	var out struct {
		Booths []model.Booth `json:"booths"`
	}
	status, err := c.do(ctx, http.MethodGet, "/booths", nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: list booths: %d", ErrUnexpectedStatus, status)
	}
	return out.Booths, nil
}

func (c *client) submit(ctx context.Context, in *model.Interaction) submitResult {
	var ack ackResponse
	status, err := c.do(ctx, http.MethodPost, "/interactions", in, &ack)
	if err != nil {
		return resultFailed
	}
	switch status {
	case http.StatusAccepted:
		return resultAccepted
	case http.StatusOK:
		return resultDuplicate
	default:
		return resultFailed
	}
}

func (c *client) profile(ctx context.Context, userID string) (model.Profile, int, error) {
	var p model.Profile
	status, err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/profile", nil, &p)
	return p, status, err
}

func (c *client) regenerate(ctx context.Context, userID string) ([]model.ScoredBooth, error) {
	var out regenerateResponse
	status, err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/recommendations", nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: regenerate %s: %d", ErrUnexpectedStatus, userID, status)
	}
	return out.Recommendations, nil
}
