// Package resilience shields the agent platform from repeated calls while
// it is failing. Batch and serve modes can otherwise hammer a dead upstream
// with one full run per source.
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/enrich-cli/internal/platform"
)

// ErrPlatformUnavailable is returned while the breaker is open.
var ErrPlatformUnavailable = eris.New("resilience: platform temporarily unavailable")

// BreakerConfig controls when the platform breaker opens and recovers.
type BreakerConfig struct {
	// FailureThreshold is the run of consecutive failures that opens the
	// breaker. Default 5.
	FailureThreshold int
	// ResetTimeout is how long the breaker stays open before allowing a
	// probe call. Default 30s.
	ResetTimeout time.Duration
}

// breakerClient wraps a platform.Client with a shared circuit breaker
// across both operations: the upload and invoke endpoints live on the same
// service, so a failing invoke also blocks uploads.
type breakerClient struct {
	inner platform.Client
	cfg   BreakerConfig

	mu          sync.Mutex
	failures    int
	open        bool
	lastFailure time.Time
	now         func() time.Time
}

var _ platform.Client = (*breakerClient)(nil)

// WrapPlatform decorates a platform client with circuit breaking.
func WrapPlatform(inner platform.Client, cfg BreakerConfig) platform.Client {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	return &breakerClient{inner: inner, cfg: cfg, now: time.Now}
}

func (b *breakerClient) UploadAssets(ctx context.Context, filename string, data []byte) (*platform.UploadResponse, error) {
	if err := b.allow(); err != nil {
		return nil, err
	}
	resp, err := b.inner.UploadAssets(ctx, filename, data)
	b.record(err)
	return resp, err
}

func (b *breakerClient) InvokeAgent(ctx context.Context, req platform.InvokeRequest) (*platform.InvokeResponse, error) {
	if err := b.allow(); err != nil {
		return nil, err
	}
	resp, err := b.inner.InvokeAgent(ctx, req)
	b.record(err)
	return resp, err
}

// allow rejects calls while the breaker is open, letting one probe through
// after the reset timeout.
func (b *breakerClient) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return nil
	}
	if b.now().Sub(b.lastFailure) >= b.cfg.ResetTimeout {
		return nil
	}
	return ErrPlatformUnavailable
}

func (b *breakerClient) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		if b.open {
			zap.L().Info("platform breaker closed after successful probe")
		}
		b.failures = 0
		b.open = false
		return
	}

	b.failures++
	b.lastFailure = b.now()
	if !b.open && b.failures >= b.cfg.FailureThreshold {
		b.open = true
		zap.L().Warn("platform breaker opened",
			zap.Int("consecutive_failures", b.failures),
			zap.Duration("reset_timeout", b.cfg.ResetTimeout),
		)
	}
}
