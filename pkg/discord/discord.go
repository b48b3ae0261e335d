// Package discord is a minimal Discord REST client covering exactly what
// the monitor needs: send, fetch, and edit channel messages. No gateway
// connection is required to keep a status message edited.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const apiBase = "https://discord.com/api/v10"

// ErrNotFound reports that a message ID no longer resolves, typically
// because someone deleted the message. Callers recover by re-creating it.
var ErrNotFound = errors.New("discord: message not found")

// Client talks to one channel with a bot token.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	token   string
	channel string
}

// New builds a client for the given bot token and channel ID. Rate-limit
// (429) and server errors are retried with backoff by the HTTP layer.
func New(token, channelID string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 4
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil

	return &Client{
		http:    rc,
		baseURL: apiBase,
		token:   token,
		channel: channelID,
	}
}

// Send posts a new message and returns its ID.
func (c *Client) Send(ctx context.Context, content string) (string, error) {
	body, err := c.do(ctx, http.MethodPost,
		fmt.Sprintf("%s/channels/%s/messages", c.baseURL, c.channel), content)
	if err != nil {
		return "", err
	}
	id := gjson.Get(body, "id").String()
	if id == "" {
		return "", fmt.Errorf("discord: send response missing message id")
	}
	return id, nil
}

// Fetch returns the current content of a message, or ErrNotFound.
func (c *Client) Fetch(ctx context.Context, messageID string) (string, error) {
	body, err := c.do(ctx, http.MethodGet,
		fmt.Sprintf("%s/channels/%s/messages/%s", c.baseURL, c.channel, messageID), "")
	if err != nil {
		return "", err
	}
	return gjson.Get(body, "content").String(), nil
}

// Edit replaces the content of an existing message, or ErrNotFound.
func (c *Client) Edit(ctx context.Context, messageID, content string) error {
	_, err := c.do(ctx, http.MethodPatch,
		fmt.Sprintf("%s/channels/%s/messages/%s", c.baseURL, c.channel, messageID), content)
	return err
}

func (c *Client) do(ctx context.Context, method, url, content string) (string, error) {
	var reqBody io.Reader
	if content != "" {
		payload, err := json.Marshal(map[string]string{"content": content})
		if err != nil {
			return "", err
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", ErrNotFound
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("discord: %s %s returned %d: %s", method, url, resp.StatusCode, gjson.GetBytes(body, "message").String())
	}
	return string(body), nil
}
