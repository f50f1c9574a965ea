package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// ChatClient wraps the channel provider's REST API. Channels live in the
// "messaging" namespace and share the session's call id. No retries here.
type ChatClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

func NewChatClient(baseURL, apiKey, apiSecret string) *ChatClient {
	return &ChatClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type createChannelRequest struct {
	Name        string   `json:"name"`
	CreatedByID string   `json:"created_by_id"`
	Members     []string `json:"members"`
}

func (c *ChatClient) CreateChannel(ctx context.Context, callID, creatorID, name string, members []string) error {
	body := createChannelRequest{
		Name:        name,
		CreatedByID: creatorID,
		Members:     members,
	}

	return c.doRequest(ctx, http.MethodPost, "/chat/channels/messaging/"+callID, body)
}

func (c *ChatClient) AddMember(ctx context.Context, callID, userID string) error {
	body := map[string]interface{}{
		"add_members": []string{userID},
	}

	return c.doRequest(ctx, http.MethodPost, "/chat/channels/messaging/"+callID+"/members", body)
}

func (c *ChatClient) DeleteChannel(ctx context.Context, callID string) error {
	return c.doRequest(ctx, http.MethodDelete, "/chat/channels/messaging/"+callID+"?hard_delete=true", nil)
}

// UpsertUser mirrors an identity-provider user into the chat provider's
// user registry so channel membership can reference them.
func (c *ChatClient) UpsertUser(ctx context.Context, user ChatUser) error {
	body := map[string]interface{}{
		"users": map[string]ChatUser{user.ID: user},
	}

	return c.doRequest(ctx, http.MethodPost, "/chat/users", body)
}

func (c *ChatClient) DeleteUser(ctx context.Context, userID string) error {
	return c.doRequest(ctx, http.MethodDelete, "/chat/users/"+url.PathEscape(userID), nil)
}

func (c *ChatClient) doRequest(ctx context.Context, method, path string, body interface{}) error {
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
		return fmt.Errorf("channel provider request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict && method == http.MethodPost:
		return nil
	case resp.StatusCode == http.StatusNotFound && method == http.MethodDelete:
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	log.Printf("[Chat Client] %s %s failed: status %d: %s", method, path, resp.StatusCode, detail)
	return fmt.Errorf("channel provider returned status %d", resp.StatusCode)
}
