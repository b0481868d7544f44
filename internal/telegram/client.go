package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	baseURL        = "https://api.telegram.org/bot"
	defaultTimeout = 35 * time.Second
)

type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

func NewClient(token string) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL + token,
	}
}

// SendMessage posts plain text; file names and URLs would trip Markdown parsing.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	return c.postJSON(ctx, "/sendMessage", payload)
}

func (c *Client) GetUpdates(ctx context.Context, offset int) ([]Update, error) {
	url := fmt.Sprintf("%s/getUpdates?offset=%d&timeout=30", c.baseURL, offset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result struct {
		Ok          bool     `json:"ok"`
		Result      []Update `json:"result"`
		Description string   `json:"description"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	if !result.Ok {
		return nil, fmt.Errorf("telegram error: %s", result.Description)
	}

	return result.Result, nil
}

// GetChatID returns the chat of the most recent message sent to the bot.
func (c *Client) GetChatID(ctx context.Context) (int64, string, error) {
	updates, err := c.GetUpdates(ctx, 0)
	if err != nil {
		return 0, "", fmt.Errorf("get updates: %w", err)
	}

	for i := len(updates) - 1; i >= 0; i-- {
		msg := updates[i].Message
		if msg == nil || msg.Chat == nil {
			continue
		}
		name := msg.Chat.Title
		if name == "" && msg.From != nil {
			name = msg.From.FirstName
			if msg.From.UserName != "" {
				name += " (@" + msg.From.UserName + ")"
			}
		}
		return msg.Chat.ID, name, nil
	}

	return 0, "", fmt.Errorf("no messages found - send a message to your bot first")
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed: %s - %s", resp.Status, string(body))
	}

	return nil
}
