package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Webhook delivers notifications as JSON POSTs. Delivery is best effort with
// a small bounded retry; the caller treats failures as log-and-continue.
type Webhook struct {
	URL      string
	Client   *http.Client
	Attempts int
	Backoff  time.Duration
}

// NewWebhook returns nil when no URL is configured; Send treats the nil
// sink as disabled.
func NewWebhook(url string, attempts int, backoff time.Duration) *Webhook {
	if url == "" {
		return nil
	}
	if attempts < 1 {
		attempts = 1
	}
	return &Webhook{
		URL:      url,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Attempts: attempts,
		Backoff:  backoff,
	}
}

// Send delivers one notification. A nil receiver is a disabled sink: Multi's
// nil check cannot see a typed nil stored in the interface, so the guard
// lives here.
func (w *Webhook) Send(ctx context.Context, n Notification) error {
	if w == nil || w.URL == "" {
		return errors.New("webhook disabled")
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	var last error
	for i := 0; i < w.Attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.Backoff):
			}
		}
		if last = w.post(ctx, body); last == nil {
			return nil
		}
	}
	return fmt.Errorf("webhook delivery after %d attempts: %w", w.Attempts, last)
}

func (w *Webhook) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}
