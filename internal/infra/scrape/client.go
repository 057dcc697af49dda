package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
)

const maxLength = 1000

type request struct {
	URL       string `json:"url"`
	Query     string `json:"query"`
	Element   string `json:"element"`
	MaxLength int    `json:"max_length"`
}

type response struct {
	Error   string `json:"error"`
	Results []struct {
		Text string `json:"text"`
	} `json:"results"`
}

// Client talks to a Hugging Face Spaces scrape endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *resty.Client
}

func New(endpoint, apiKey string, timeout time.Duration) *Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, http: c}
}

// Scrape returns the paragraph texts of url joined by newlines.
func (c *Client) Scrape(ctx context.Context, url, query string) (string, error) {
	var out response
	r := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(request{URL: url, Query: query, Element: "p", MaxLength: maxLength}).
		SetResult(&out)
	// the key is optional for public spaces
	if assessment.CredentialSet(c.apiKey) {
		r.SetHeader("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := r.Post(c.endpoint)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("scrape %s: %w", url, &assessment.HTTPStatusError{StatusCode: resp.StatusCode()})
	}
	if out.Error != "" {
		return "", errors.New(out.Error)
	}

	texts := make([]string, 0, len(out.Results))
	for _, res := range out.Results {
		texts = append(texts, res.Text)
	}
	return strings.Join(texts, "\n"), nil
}
