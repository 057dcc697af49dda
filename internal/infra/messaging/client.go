package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bryanwahyu/truthlens/internal/domain/message"
)

// Client is the agent's channel to a remote dispatcher.
type Client struct {
	baseURL string
	apiKey  string
	http    *resty.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: c}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx).SetHeader("Content-Type", "application/json")
	if c.apiKey != "" {
		r.SetAuthToken(c.apiKey)
	}
	return r
}

// Send posts req to /v1/messages. Dispatch failures come back inside the
// reply; an error means the dispatcher itself could not be reached or
// rejected the envelope.
func (c *Client) Send(ctx context.Context, req message.Request) (message.Reply, error) {
	var rep message.Reply
	resp, err := c.request(ctx).SetBody(req).SetResult(&rep).Post(c.baseURL + "/v1/messages")
	if err != nil {
		return message.Reply{}, err
	}
	if resp.IsError() {
		return message.Reply{}, fmt.Errorf("dispatcher: %s: %s", resp.Status(), strings.TrimSpace(resp.String()))
	}
	return rep, nil
}

// Providers fetches the provider catalog.
func (c *Client) Providers(ctx context.Context) ([]message.Provider, error) {
	var out []message.Provider
	resp, err := c.request(ctx).SetResult(&out).Get(c.baseURL + "/v1/providers")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("dispatcher: %s", resp.Status())
	}
	return out, nil
}
