package card

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

// WebhookEvent is the body posted to the webhook
type WebhookEvent struct {
	Event string      `json:"event"` // opened | released
	Card  *types.Card `json:"card"`
	At    time.Time   `json:"at"`
}

// WebhookProvider posts card lifecycle events to an external content service
type WebhookProvider struct {
	client *resty.Client
	url    string
}

// NewWebhookProvider creates a provider posting to baseURL/opened and baseURL/released
func NewWebhookProvider(baseURL string, timeout time.Duration) *WebhookProvider {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = time.Second
	retryClient.Logger = nil

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "cardspace-webhook/1.0").
		SetHeader("Content-Type", "application/json")
	client.SetTransport(retryClient.HTTPClient.Transport)

	return &WebhookProvider{client: client, url: strings.TrimRight(baseURL, "/")}
}

// Opened posts an opened event
func (p *WebhookProvider) Opened(ctx context.Context, h *Handle) error {
	c, ok := h.Card()
	if !ok {
		return nil
	}
	return p.post(ctx, "opened", c)
}

// Released posts a released event
func (p *WebhookProvider) Released(ctx context.Context, c *types.Card) error {
	return p.post(ctx, "released", c)
}

func (p *WebhookProvider) post(ctx context.Context, event string, c *types.Card) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(WebhookEvent{Event: event, Card: c, At: time.Now()}).
		Post(p.url + "/" + event)
	if err != nil {
		return fmt.Errorf("webhook %s failed: %w", event, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook %s returned %s", event, resp.Status())
	}
	return nil
}
