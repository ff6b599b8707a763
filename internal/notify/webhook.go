package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookPoster delivers escalations as JSON POSTs to a single webhook.
type WebhookPoster struct {
	URL    string
	Client *http.Client
}

func NewWebhookPoster(url string) *WebhookPoster {
	return &WebhookPoster{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *WebhookPoster) PostEscalation(path string, e Escalation) error {
	payload, err := json.Marshal(map[string]string{
		"proposal_id": e.ProposalID,
		"path":        path,
		"reason":      e.Reason,
		"created_at":  e.CreatedAt,
	})
	if err != nil {
		return err
	}

	resp, err := p.Client.Post(p.URL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}
