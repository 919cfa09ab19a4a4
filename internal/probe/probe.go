package probe

import (
	"context"

	"netwatch/internal/domain"
)

// Prober performs a single check against one target. Implementations never
// return an error: every failure mode is folded into the result.
type Prober interface {
	Probe(ctx context.Context, t domain.Target) domain.ProbeResult
}
