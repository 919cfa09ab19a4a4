package probe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"netwatch/internal/domain"
)

// Executor runs HTTP-family and ICMP probes. The zero timeout of the shared
// client is deliberate: each probe enforces its own deadline via context.
type Executor struct {
	Client *http.Client
}

func NewExecutor() *Executor {
	return &Executor{Client: &http.Client{}}
}

// Probe dispatches on the target's method. It always returns a result.
func (e *Executor) Probe(ctx context.Context, t domain.Target) domain.ProbeResult {
	if t.Method == domain.MethodICMP {
		return e.ping(ctx, t)
	}
	return e.httpProbe(ctx, t)
}

func httpMethod(m domain.ProbeMethod) string {
	switch m {
	case domain.MethodHTTPPost:
		return http.MethodPost
	case domain.MethodHTTPHead:
		return http.MethodHead
	default:
		return http.MethodGet
	}
}

func (e *Executor) httpProbe(ctx context.Context, t domain.Target) domain.ProbeResult {
	timeout := t.Timeout()
	res := domain.ProbeResult{TimestampMs: time.Now().UnixMilli()}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, httpMethod(t.Method), t.URL, nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := e.Client.Do(req)
	if err != nil {
		if isTimeout(err) {
			// The caller still gets a result; the configured ceiling is
			// the best statement of how long we waited.
			res.ResponseTimeMs = timeout.Milliseconds()
		} else {
			res.ResponseTimeMs = time.Since(start).Milliseconds()
		}
		res.Error = err.Error()
		return res
	}
	defer resp.Body.Close()

	// Response time covers the full body, not just headers.
	_, copyErr := io.Copy(io.Discard, resp.Body)
	res.ResponseTimeMs = time.Since(start).Milliseconds()
	res.StatusCode = resp.StatusCode
	res.ServerInfo = resp.Header.Get("Server")

	if copyErr != nil {
		res.Error = copyErr.Error()
		return res
	}

	res.Up = statusUp(resp.StatusCode, t.ExpectedStatus)
	if !res.Up {
		res.Error = resp.Status
	}
	return res
}

// statusUp decides availability from the response code. A configured
// expected status takes precedence over the default any-code-below-400 rule.
func statusUp(code, expected int) bool {
	if expected > 0 {
		return code == expected
	}
	return code < 400
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return os.IsTimeout(err)
}
