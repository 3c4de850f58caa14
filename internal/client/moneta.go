// Package client provides an HTTP client for the Moneta pipeline API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AdvanceFailure is a template the advancer could not process.
type AdvanceFailure struct {
	RecurringID string `json:"recurring_id"`
	Message     string `json:"message"`
}

// AdvanceSummary is the pipeline's report of one advancement sweep.
type AdvanceSummary struct {
	Processed    int              `json:"processed"`
	Materialized int              `json:"materialized"`
	Deactivated  int              `json:"deactivated"`
	Deferred     int              `json:"deferred"`
	Errors       []AdvanceFailure `json:"errors"`
}

// MonetaClient communicates with the Moneta pipeline API.
type MonetaClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewMonetaClient creates a new pipeline API client.
func NewMonetaClient(baseURL, apiKey string, httpClient *http.Client) *MonetaClient {
	return &MonetaClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// AdvanceRecurring runs the occurrence advancer for every user.
func (c *MonetaClient) AdvanceRecurring(ctx context.Context) (*AdvanceSummary, error) {
	var summary AdvanceSummary
	if err := c.post(ctx, "/api/v1/pipeline/recurring/advance", nil, &summary); err != nil {
		return nil, fmt.Errorf("advancing recurring: %w", err)
	}
	return &summary, nil
}

// RecordSnapshots records a net worth snapshot per user at recordedAt and
// returns how many were written.
func (c *MonetaClient) RecordSnapshots(ctx context.Context, recordedAt time.Time) (int, error) {
	body := struct {
		RecordedAt string `json:"recorded_at"`
	}{RecordedAt: recordedAt.UTC().Format(time.RFC3339)}

	var result struct {
		SnapshotsRecorded int `json:"snapshots_recorded"`
	}
	if err := c.post(ctx, "/api/v1/pipeline/snapshots", body, &result); err != nil {
		return 0, fmt.Errorf("recording snapshots: %w", err)
	}
	return result.SnapshotsRecorded, nil
}

func (c *MonetaClient) post(ctx context.Context, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
