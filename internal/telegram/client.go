// Package telegram is a minimal Telegram Bot API client covering the three
// calls the relay needs: getMe, getUpdates long polling, and sendMessage.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public Bot API endpoint. Tests point the client at
// an httptest server instead.
const DefaultBaseURL = "https://api.telegram.org"

// Config controls client construction.
type Config struct {
	Token       string
	BaseURL     string
	PollTimeout time.Duration
}

// Client talks to the Bot API for a single bot token.
type Client struct {
	token       string
	baseURL     string
	pollTimeout time.Duration
	client      *http.Client
}

// User is the bot identity returned by getMe.
type User struct {
	ID       int64  `json:"id"`
	IsBot    bool   `json:"is_bot"`
	Username string `json:"username"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// Message is the text portion of an update. Non-text updates carry an
// empty Text.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// Update is one getUpdates entry.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

type envelope struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// NewClient validates the config and returns a ready client.
func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("telegram bot token is required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &Client{
		token:       token,
		baseURL:     base,
		pollTimeout: pollTimeout,
		client: &http.Client{
			// Must outlast the long-poll window.
			Timeout: pollTimeout + 10*time.Second,
		},
	}, nil
}

// GetMe fetches the bot identity. A failure here means the token is bad or
// the API is unreachable.
func (c *Client) GetMe(ctx context.Context) (User, error) {
	raw, err := c.call(ctx, "getMe", nil, nil)
	if err != nil {
		return User{}, err
	}
	var me User
	if err := json.Unmarshal(raw, &me); err != nil {
		return User{}, fmt.Errorf("telegram getMe decode: %w", err)
	}
	return me, nil
}

// GetUpdates long-polls for updates at or after offset. The server holds
// the request open up to the configured poll timeout when nothing is
// pending.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("timeout", strconv.Itoa(int(c.pollTimeout/time.Second)))
	raw, err := c.call(ctx, "getUpdates", q, nil)
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("telegram getUpdates decode: %w", err)
	}
	return updates, nil
}

// SendMessage posts a text reply into a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	body := map[string]any{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	_, err := c.call(ctx, "sendMessage", nil, body)
	return err
}

func (c *Client) call(ctx context.Context, method string, query url.Values, body any) (json.RawMessage, error) {
	endpoint := c.baseURL + "/bot" + c.token + "/" + method
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var req *http.Request
	var err error
	if body != nil {
		payload, merr := json.Marshal(body)
		if merr != nil {
			return nil, fmt.Errorf("telegram %s marshal: %w", method, merr)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("telegram %s request: %w", method, err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		// The transport error string embeds the full URL; keep the token
		// out of logs.
		return nil, fmt.Errorf("telegram %s: %s", method, c.redact(err.Error()))
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("telegram %s read: %w", method, err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("telegram %s status %d: %s", method, res.StatusCode, strings.TrimSpace(string(raw)))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("telegram %s decode: %w", method, err)
	}
	if !env.OK {
		return nil, fmt.Errorf("telegram %s api error: %s", method, env.Description)
	}
	return env.Result, nil
}

func (c *Client) redact(s string) string {
	return strings.ReplaceAll(s, c.token, "<token>")
}
