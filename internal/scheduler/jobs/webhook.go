package jobs

import (
	"context"
	"fmt"

	"github.com/RennanRnz/rfv-project/pkg/httputil"
)

// WebhookNotifier posts refresh summaries as JSON
type WebhookNotifier struct {
	client *httputil.Client
	url    string
}

// NewWebhookNotifier creates a notifier posting to url
func NewWebhookNotifier(client *httputil.Client, url string) *WebhookNotifier {
	return &WebhookNotifier{client: client, url: url}
}

// Notify posts the summary; any non-2xx answer is an error
func (n *WebhookNotifier) Notify(ctx context.Context, summary RefreshSummary) error {
	resp, err := n.client.PostJSON(ctx, n.url, summary)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
