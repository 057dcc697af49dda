package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bryanwahyu/truthlens/internal/domain/assessment"
)

// Client is the shared transport for providers that are not OpenAI-compatible.
type Client struct {
	http *resty.Client
}

func New(httpClient *http.Client, timeout time.Duration) *Client {
	var c *resty.Client
	if httpClient != nil {
		c = resty.NewWithClient(httpClient)
	} else {
		c = resty.New()
	}
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{http: c}
}

// post sends one JSON request and returns the raw body of a 2xx answer.
func (c *Client) post(ctx context.Context, endpoint, bearer string, query map[string]string, body any) ([]byte, error) {
	r := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)
	if bearer != "" {
		r.SetHeader("Authorization", "Bearer "+bearer)
	}
	if len(query) > 0 {
		r.SetQueryParams(query)
	}

	resp, err := r.Post(endpoint)
	if err != nil {
		return nil, redact(err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &assessment.HTTPStatusError{StatusCode: resp.StatusCode(), Body: abbreviate(resp.String(), 500)}
	}
	return resp.Body(), nil
}

// redact drops the query string from transport errors so keys passed as
// query parameters never reach logs or the UI.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		u := uerr.URL
		if i := strings.IndexByte(u, '?'); i >= 0 {
			u = u[:i]
		}
		return fmt.Errorf("%s %s: %w", uerr.Op, u, uerr.Err)
	}
	return err
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{assessment.ErrMalformedResponse}, args...)...)
}
