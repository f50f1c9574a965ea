package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// VideoClient wraps the call provider's REST API. It performs no retries;
// retry policy, where it exists, lives above the provisioning facade.
type VideoClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

func NewVideoClient(baseURL, apiKey, apiSecret string) *VideoClient {
	return &VideoClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type createCallRequest struct {
	CreatedByID string                 `json:"created_by_id"`
	Custom      map[string]interface{} `json:"custom"`
}

// CreateCall is a create-or-fetch: the provider returns the existing call
// when one already exists under the id, which clients treat as success.
func (c *VideoClient) CreateCall(ctx context.Context, callID, creatorID string, meta CallMetadata) error {
	body := createCallRequest{
		CreatedByID: creatorID,
		Custom: map[string]interface{}{
			"sessionId":    meta.SessionID,
			"problemTitle": meta.ProblemTitle,
			"difficulty":   meta.Difficulty,
		},
	}

	return c.doRequest(ctx, http.MethodPost, "/video/call/default/"+callID, body)
}

func (c *VideoClient) DeleteCall(ctx context.Context, callID string) error {
	return c.doRequest(ctx, http.MethodDelete, "/video/call/default/"+callID+"?hard=true", nil)
}

func (c *VideoClient) doRequest(ctx context.Context, method, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiSecret)
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call provider request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict && method == http.MethodPost:
		// Call already exists; create is get-or-create by intent.
		return nil
	case resp.StatusCode == http.StatusNotFound && method == http.MethodDelete:
		// Already gone; the teardown goal is met.
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	log.Printf("[Video Client] %s %s failed: status %d: %s", method, path, resp.StatusCode, detail)
	return fmt.Errorf("call provider returned status %d", resp.StatusCode)
}
