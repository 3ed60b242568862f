// Package sentiment is the HTTP client the chatbot uses to log turn
// sentiment through the sentiment-analysis API.
package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/albertshoes/support/backend/internal/model/query"
)

// Client posts user prompts to the sentiment-analysis API. Calls are bounded
// by the configured timeout; callers treat failures as advisory.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// New creates a sentiment API client.
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Submit posts the text and returns the stored record.
func (c *Client) Submit(ctx context.Context, text string) (query.Record, error) {
	url := c.baseURL + "/api/v1/user_query"
	c.log.Debug().Str("url", url).Msg("calling sentiment analysis API")

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return query.Record{}, fmt.Errorf("marshal sentiment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return query.Record{}, fmt.Errorf("build sentiment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return query.Record{}, fmt.Errorf("call sentiment analysis API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return query.Record{}, fmt.Errorf("sentiment analysis API returned %s", resp.Status)
	}

	var record query.Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return query.Record{}, fmt.Errorf("decode sentiment response: %w", err)
	}
	return record, nil
}
