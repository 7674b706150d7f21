package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/growthbench/planforge/internal/domain"
	"github.com/growthbench/planforge/internal/pkg/logger"
)

// ErrLeadRejected means the collector answered with a 4xx: the submission
// itself is bad and retrying it verbatim is pointless.
var ErrLeadRejected = errors.New("lead collector rejected submission")

// HTTPDoer lets tests substitute the HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Collector delivers captured leads to the external lead-collection
// endpoint. Delivery is fail-open: timeouts, network errors and 5xx answers
// never block the user; failed submissions go to a bounded retry queue
// deduplicated by email.
type Collector struct {
	endpoint   string
	client     HTTPDoer
	queueLimit int

	mu     sync.Mutex
	queue  []domain.LeadRecord
	queued map[string]bool
}

// NewCollector creates a Collector for the given endpoint. queueLimit bounds
// the retry queue to the most recent N failed submissions (default 50).
func NewCollector(endpoint string, queueLimit int) *Collector {
	if queueLimit <= 0 {
		queueLimit = 50
	}
	return &Collector{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: 5 * time.Second},
		queueLimit: queueLimit,
		queued:     make(map[string]bool),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Collector) SetHTTPClient(client HTTPDoer) { c.client = client }

// Submit posts the lead. Only 4xx answers surface as errors; anything else
// that fails is queued for a later RetryAll and reported as success.
func (c *Collector) Submit(ctx context.Context, lead domain.LeadRecord) error {
	err := c.post(ctx, lead)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrLeadRejected) {
		return err
	}
	logger.Warn("lead submission failed, queued for retry", "email", lead.Email, "error", err.Error())
	c.enqueue(lead)
	return nil
}

// QueueLen returns the number of leads awaiting retry.
func (c *Collector) QueueLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// RetryAll replays every queued lead. Leads that fail again (other than
// 4xx rejections) are re-queued. Returns the number delivered.
func (c *Collector) RetryAll(ctx context.Context) int {
	c.mu.Lock()
	pending := c.queue
	c.queue = nil
	c.queued = make(map[string]bool)
	c.mu.Unlock()

	delivered := 0
	for _, lead := range pending {
		err := c.post(ctx, lead)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrLeadRejected):
			logger.Warn("queued lead rejected on retry, dropping", "email", lead.Email)
		default:
			c.enqueue(lead)
		}
	}
	return delivered
}

func (c *Collector) post(ctx context.Context, lead domain.LeadRecord) error {
	if c.endpoint == "" {
		return nil
	}
	body, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("marshal lead: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("lead collector unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w (status %d)", ErrLeadRejected, resp.StatusCode)
	default:
		return fmt.Errorf("lead collector error (status %d)", resp.StatusCode)
	}
}

// enqueue adds a lead to the retry queue, deduplicating by email and
// evicting the oldest entry when full.
func (c *Collector) enqueue(lead domain.LeadRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queued[lead.Email] {
		return
	}
	if len(c.queue) >= c.queueLimit {
		evicted := c.queue[0]
		c.queue = c.queue[1:]
		delete(c.queued, evicted.Email)
	}
	c.queue = append(c.queue, lead)
	c.queued[lead.Email] = true
}
