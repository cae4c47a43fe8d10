// Package pruner periodically removes expired refresh tokens.
package pruner

import (
	"context"
	"time"

	"github.com/nkiryanov/castbook/internal/logger"
)

const defaultInterval = time.Hour

type tokenPruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

type Pruner struct {
	interval time.Duration
	tokens   tokenPruner
	logger   logger.Logger
}

// New pruner. Interval less or equal to zero gives default one hour
func New(interval time.Duration, tokens tokenPruner, l logger.Logger) *Pruner {
	if interval <= 0 {
		interval = defaultInterval
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Pruner{
		interval: interval,
		tokens:   tokens,
		logger:   l.With("service", "pruner"),
	}
}

// Run prunes tokens every interval in background
// Returned channel is closed when ctx is done and the last pass finished
func (p *Pruner) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	p.logger.Debug("Starting pruner", "interval", p.interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Debug("Pruner stopped by context")
				return

			case <-ticker.C:
				p.PruneOnce(ctx)
			}
		}
	}()

	return idleStopped
}

// PruneOnce deletes expired tokens; errors are logged, not returned
func (p *Pruner) PruneOnce(ctx context.Context) int64 {
	n, err := p.tokens.PruneExpired(ctx)
	if err != nil {
		p.logger.Error("Failed to prune expired refresh tokens", "error", err)
		return 0
	}

	p.logger.Debug("Expired refresh tokens pruned", "count", n)
	return n
}
