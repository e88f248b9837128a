package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
	"github.com/kirillkom/notarial-clause-assistant/internal/infrastructure/resilience"
)

// Recorder receives the outcome of every guarded model call.
type Recorder interface {
	ObserveModelCall(provider string, duration time.Duration, err error)
}

type GuardOptions struct {
	// Timeout bounds one call including any breaker wait. Zero disables it.
	Timeout time.Duration
	// RatePerMinute smooths bursts toward the provider. Zero disables it.
	RatePerMinute int
	Executor      *resilience.Executor
	Recorder      Recorder
}

// Guard wraps a provider with rate limiting, a circuit breaker, a timeout and
// latency recording. An empty answer is treated as a failure.
type Guard struct {
	provider string
	next     ports.ModelInvoker
	opts     GuardOptions
	limiter  *rate.Limiter
}

var _ ports.ModelInvoker = (*Guard)(nil)

func NewGuard(provider string, next ports.ModelInvoker, opts GuardOptions) *Guard {
	g := &Guard{provider: provider, next: next, opts: opts}
	if opts.RatePerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMinute)), 1)
	}
	return g
}

func (g *Guard) Invoke(ctx context.Context, instruction string) (string, error) {
	start := time.Now()
	out, err := g.invoke(ctx, instruction)
	if g.opts.Recorder != nil {
		g.opts.Recorder.ObserveModelCall(g.provider, time.Since(start), err)
	}
	if err != nil {
		slog.Warn("model_invocation_failed",
			"provider", g.provider,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return "", wrapInvocationError("invoke "+g.provider, err)
	}
	return out, nil
}

func (g *Guard) invoke(ctx context.Context, instruction string) (string, error) {
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	call := func(ctx context.Context) (string, error) {
		out, err := g.next.Invoke(ctx, instruction)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(out) == "" {
			return "", ErrEmptyResponse
		}
		return out, nil
	}
	if g.opts.Executor == nil {
		return call(ctx)
	}
	return resilience.Call(ctx, g.opts.Executor, "model."+g.provider, call, Classify)
}
