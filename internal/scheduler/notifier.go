package scheduler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/wonny/equityscore/pkg/httputil"
)

// WebhookNotifier posts each job result as JSON to a webhook
type WebhookNotifier struct {
	client *httputil.Client
	url    string
}

// NewWebhookNotifier creates a notifier; the client carries retry and rate limit
func NewWebhookNotifier(client *httputil.Client, url string) *WebhookNotifier {
	return &WebhookNotifier{client: client, url: url}
}

// WebhookPayload is the body sent to the webhook
type WebhookPayload struct {
	Event  string    `json:"event"`
	Result JobResult `json:"result"`
}

// Notify posts the result. An empty URL disables notification.
func (n *WebhookNotifier) Notify(ctx context.Context, result JobResult) error {
	if n == nil || n.url == "" {
		return nil
	}

	event := "job.succeeded"
	if !result.Success {
		event = "job.failed"
	}

	resp, err := n.client.PostJSON(ctx, n.url, WebhookPayload{Event: event, Result: result})
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
