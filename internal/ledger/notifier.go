package ledger

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wind-walker-open-source/forge-ledger/internal/models"
)

// SecretSource yields the webhook signing secret. An empty secret disables
// signing. Implemented by secrets.Cache.
type SecretSource interface {
	Get(ctx context.Context) (string, error)
}

// WebhookNotifier posts the full job snapshot to the job's configured URL
// once per terminal transition. It does not retry: the job's terminal
// status is authoritative regardless of delivery outcome.
type WebhookNotifier struct {
	client  *http.Client
	secrets SecretSource
}

func NewWebhookNotifier(timeout time.Duration, secrets SecretSource) *WebhookNotifier {
	return &WebhookNotifier{
		client:  &http.Client{Timeout: timeout},
		secrets: secrets,
	}
}

var _ NotifierInterface = (*WebhookNotifier)(nil)

// Deliver sends the snapshot. The returned error, when non-nil, is a short
// tag (HTTP_<code>, TIMEOUT, CONNECTION) suitable for recording on the job
// as FAILED:<tag>.
func (n *WebhookNotifier) Deliver(ctx context.Context, job *models.Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("ENCODING")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("BAD_URL")
	}
	req.Header.Set("Content-Type", "application/json")

	if n.secrets != nil {
		secret, err := n.secrets.Get(ctx)
		if err != nil {
			return fmt.Errorf("SECRET")
		}
		if secret != "" {
			req.Header.Set("X-Ledger-Signature", Sign(body, secret))
		}
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return categorize(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP_%d", resp.StatusCode)
	}

	return nil
}

// Sign computes the hex HMAC-SHA256 of body under secret, the value carried
// in the X-Ledger-Signature header.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func categorize(err error) error {
	var netErr interface{ Timeout() bool }
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("TIMEOUT")
	case errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("TIMEOUT")
	default:
		return fmt.Errorf("CONNECTION")
	}
}
