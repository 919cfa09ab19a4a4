package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/multierr"

	"netwatch/internal/alert"
	"netwatch/internal/domain"
)

// Notification is the structured message handed to sinks.
type Notification struct {
	ID             string `json:"id"`
	Severity       string `json:"severity"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	TargetID       string `json:"targetId"`
	TargetName     string `json:"targetName"`
	URL            string `json:"url"`
	StatusCode     int    `json:"statusCode,omitempty"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
	Error          string `json:"error,omitempty"`
	At             string `json:"at"`
}

// Notifier is an abstract destination for alerts.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Multi fans a notification out to every sink, collecting all failures.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, n Notification) error {
	var errs error
	for _, nt := range m {
		if nt == nil {
			continue
		}
		errs = multierr.Append(errs, nt.Send(ctx, n))
	}
	return errs
}

// ForEvent builds the notification for one state-machine decision.
func ForEvent(t domain.Target, kind alert.Kind, r domain.ProbeResult) Notification {
	id, _ := uuid.NewV4()

	n := Notification{
		ID:             id.String(),
		TargetID:       t.ID,
		TargetName:     t.Name(),
		URL:            t.URL,
		StatusCode:     r.StatusCode,
		ResponseTimeMs: r.ResponseTimeMs,
		Error:          r.Error,
		At:             time.UnixMilli(r.TimestampMs).UTC().Format(time.RFC3339),
	}

	switch kind {
	case alert.KindDown, alert.KindInitialDown:
		n.Severity = "critical"
		n.Title = fmt.Sprintf("CRITICAL: %s is DOWN", t.Name())
	case alert.KindSlow:
		n.Severity = "warning"
		n.Title = fmt.Sprintf("WARNING: %s is SLOW", t.Name())
	default:
		n.Severity = "info"
		n.Title = fmt.Sprintf("INFO: %s is UP", t.Name())
	}

	detail := fmt.Sprintf("%d ms", r.ResponseTimeMs)
	if r.Error != "" {
		detail = r.Error
	}
	status := "n/a"
	if r.StatusCode != 0 {
		status = fmt.Sprintf("%d", r.StatusCode)
	}
	n.Body = fmt.Sprintf("Target: %s\nURL: %s\nHTTP: %s\nResponse: %s", t.Name(), t.URL, status, detail)

	return n
}
