package insights

import (
	"context"
	"time"

	"go.uber.org/zap"

	"moodcircle/internal/metrics"
)

// Guard bounds every call with a timeout and records its outcome.
type Guard struct {
	next     Gateway
	provider string
	timeout  time.Duration
	logger   *zap.Logger
}

func NewGuard(next Gateway, provider string, timeout time.Duration, logger *zap.Logger) *Guard {
	return &Guard{next: next, provider: provider, timeout: timeout, logger: logger}
}

func (g *Guard) Insights(ctx context.Context, content string) (*Insights, error) {
	var out *Insights
	err := g.call(ctx, "insights", func(ctx context.Context) (err error) {
		out, err = g.next.Insights(ctx, content)
		return err
	})
	return out, err
}

func (g *Guard) Recommendations(ctx context.Context, entries []string) (*Recommendations, error) {
	var out *Recommendations
	err := g.call(ctx, "recommendations", func(ctx context.Context) (err error) {
		out, err = g.next.Recommendations(ctx, entries)
		return err
	})
	return out, err
}

func (g *Guard) Chat(ctx context.Context, content string) (string, error) {
	var out string
	err := g.call(ctx, "chat", func(ctx context.Context) (err error) {
		out, err = g.next.Chat(ctx, content)
		return err
	})
	return out, err
}

func (g *Guard) call(ctx context.Context, op string, fn func(context.Context) error) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	metrics.GatewayLatency.WithLabelValues(g.provider, op).Observe(elapsed.Seconds())
	if err != nil {
		metrics.GatewayCalls.WithLabelValues(g.provider, op, "error").Inc()
		g.logger.Warn("gateway call failed",
			zap.String("provider", g.provider),
			zap.String("operation", op),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return err
	}
	metrics.GatewayCalls.WithLabelValues(g.provider, op, "ok").Inc()
	g.logger.Debug("gateway call completed",
		zap.String("provider", g.provider),
		zap.String("operation", op),
		zap.Duration("duration", elapsed),
	)
	return nil
}
