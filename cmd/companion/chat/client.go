package chatcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/companion/api"
	"github.com/papercomputeco/companion/pkg/utils"
)

// client talks to a running companion API server.
type client struct {
	target string
	userID string
	http   *http.Client
}

func newClient(target, userID string) *client {
	return &client{
		target: strings.TrimRight(target, "/"),
		userID: userID,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *client) chat(ctx context.Context, message, conversationID string, forceNew bool) (*api.ChatResponse, error) {
	out := &api.ChatResponse{}
	err := c.do(ctx, http.MethodPost, "/v1/chat", api.ChatRequest{
		Message:        message,
		UserID:         c.userID,
		ConversationID: conversationID,
		ForceNewChat:   forceNew,
	}, out)
	return out, err
}

func (c *client) insights(ctx context.Context, conversationID string) (*api.InsightsResponse, error) {
	out := &api.InsightsResponse{}
	err := c.do(ctx, http.MethodGet, c.conversationPath(conversationID, "insights"), nil, out)
	return out, err
}

func (c *client) restart(ctx context.Context, conversationID string) (*api.RestartResponse, error) {
	out := &api.RestartResponse{}
	err := c.do(ctx, http.MethodPost, c.conversationPath(conversationID, "restart"), nil, out)
	return out, err
}

func (c *client) conversationPath(conversationID, action string) string {
	q := url.Values{"user_id": {c.userID}}
	return "/v1/conversations/" + url.PathEscape(conversationID) + "/" + action + "?" + q.Encode()
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.target+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", utils.UserAgent())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to %s: %w", c.target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr api.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
