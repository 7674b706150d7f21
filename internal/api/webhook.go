package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/metrics"
	"github.com/growthbench/planforge/internal/pkg/httpretry"
	"github.com/growthbench/planforge/internal/pkg/logger"
)

// webhookPayload is the body POSTed to a caller-supplied URL when an async
// generation finishes.
type webhookPayload struct {
	Event     string                `json:"event"`
	Domain    string                `json:"domain"`
	Language  domain.Language       `json:"language"`
	Plan      *domain.MarketingPlan `json:"plan"`
	Timestamp time.Time             `json:"timestamp"`
}

// webhookDispatcher delivers plan.completed callbacks. Delivery is
// best-effort: a failed POST is logged and counted, never retried into the
// caller's generation result.
type webhookDispatcher struct {
	client httpretry.HTTPDoer
}

func newWebhookDispatcher() *webhookDispatcher {
	return &webhookDispatcher{
		client: httpretry.NewRetryClient(&http.Client{Timeout: 10 * time.Second}, 2),
	}
}

func (d *webhookDispatcher) dispatch(ctx context.Context, url, secret string, p webhookPayload) {
	body, err := json.Marshal(p)
	if err != nil {
		logger.Error("webhook payload encode failed", "url", url, "error", err.Error())
		metrics.WebhookDeliveries.WithLabelValues("error").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		logger.Error("webhook request build failed", "url", url, "error", err.Error())
		metrics.WebhookDeliveries.WithLabelValues("error").Inc()
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Signature", signPayload(body, secret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		logger.Warn("webhook delivery failed", "url", url, "error", err.Error())
		metrics.WebhookDeliveries.WithLabelValues("error").Inc()
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("webhook rejected", "url", url, "status", resp.StatusCode)
		metrics.WebhookDeliveries.WithLabelValues("rejected").Inc()
		return
	}
	metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
}

// signPayload computes the hex HMAC-SHA256 of the body under the shared
// secret, the value carried in X-Signature.
func signPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
