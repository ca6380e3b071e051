// Package gateway sends notification payloads through the LINE
// Messaging API push endpoint.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/domain"
)

// Gateway delivers one payload to one recipient.
type Gateway interface {
	Push(ctx context.Context, to string, p domain.Payload) error
}

// PushError is a non-2xx response from the push endpoint.
type PushError struct {
	Status int
	Body   string
}

func (e *PushError) Error() string {
	return fmt.Sprintf("line push: status %d: %s", e.Status, e.Body)
}

// Permanent reports whether retrying the same request is pointless:
// the request itself was rejected (bad recipient, bad payload). 429 and
// 5xx are transient.
func (e *PushError) Permanent() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != 429
}

// IsPermanent reports whether err is a permanent push rejection.
// Network errors and timeouts are transient.
func IsPermanent(err error) bool {
	var pe *PushError
	return errors.As(err, &pe) && pe.Permanent()
}

// LINEOptions configures the LINE push client.
type LINEOptions struct {
	BaseURL     string // defaults to the public API host
	AccessToken string
	Timeout     time.Duration
	Logger      *zap.Logger
}

// LINEClient implements Gateway against the Messaging API.
type LINEClient struct {
	http *resty.Client
	log  *zap.Logger
}

// NewLINEClient builds the push client.
func NewLINEClient(opts LINEOptions) *LINEClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.line.me"
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetAuthToken(opts.AccessToken).
		SetHeader("Content-Type", "application/json")

	return &LINEClient{http: client, log: log}
}

type pushRequest struct {
	To       string            `json:"to"`
	Messages []json.RawMessage `json:"messages"`
}

// Push sends the payload to one recipient. The response body is kept
// short in the error; LINE returns a JSON message explaining rejections.
func (c *LINEClient) Push(ctx context.Context, to string, p domain.Payload) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(pushRequest{To: to, Messages: p.Messages}).
		Post("/v2/bot/message/push")
	if err != nil {
		return fmt.Errorf("line push: %w", err)
	}
	if resp.IsError() {
		body := resp.String()
		if len(body) > 256 {
			body = body[:256]
		}
		return &PushError{Status: resp.StatusCode(), Body: body}
	}

	c.log.Debug("push accepted", zap.String("to", to), zap.Int("messages", len(p.Messages)))
	return nil
}
