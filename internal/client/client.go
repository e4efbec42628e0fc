// Package client is a thin HTTP client for the docqa server API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docqa/internal/domain"
)

// Client talks to a running docqa server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8000".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
	}
}

// Ask sends one chat message. An empty sessionID starts a new session.
func (c *Client) Ask(message, sessionID string) (domain.ChatResponse, error) {
	body, err := json.Marshal(map[string]string{
		"message":    message,
		"session_id": sessionID,
	})
	if err != nil {
		return domain.ChatResponse{}, err
	}
	resp, err := c.http.Post(c.baseURL+"/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return domain.ChatResponse{}, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.ChatResponse{}, apiError(resp)
	}
	var out domain.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.ChatResponse{}, fmt.Errorf("decode chat response: %w", err)
	}
	return out, nil
}

// ClearSession removes the conversation history for sessionID.
func (c *Client) ClearSession(sessionID string) error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/sessions/"+sessionID, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return apiError(resp)
	}
	return nil
}

// Health reports whether the server is reachable.
func (c *Client) Health() error {
	resp, err := c.http.Get(c.baseURL + "/health")
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
