// Package maintain runs the background demotion loop: on an interval
// it applies the configured eviction policy to the runtime and store
// tiers, pushing cooled-off entities down one temperature.
//
// Each pass runs as ordinary store operations under the store's own
// lock. Pacing happens between passes: moved entities consume tokens
// from a rate limiter, so a pass that demoted a large batch delays the
// next one instead of hammering the write lock back to back.
package maintain

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vellumlabs/stratum/pkg/config"
	"github.com/vellumlabs/stratum/pkg/storage"
	"github.com/vellumlabs/stratum/pkg/stratum"
)

// Pruner owns the maintenance loop for one store.
type Pruner struct {
	kb      *stratum.KB
	cfg     config.MaintenanceConfig
	tiers   config.TiersConfig
	log     *zap.Logger
	limiter *rate.Limiter
}

// New builds a pruner from validated configuration. A zero
// MovesPerSecond disables pacing.
func New(kb *stratum.KB, cfg config.MaintenanceConfig, tiers config.TiersConfig, log *zap.Logger) *Pruner {
	if log == nil {
		log = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.MovesPerSecond > 0 {
		burst := int(cfg.MovesPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.MovesPerSecond), burst)
	}
	return &Pruner{
		kb:      kb,
		cfg:     cfg,
		tiers:   tiers,
		log:     log,
		limiter: limiter,
	}
}

// Run executes passes every configured interval until ctx is canceled.
// It blocks; callers run it in a goroutine.
func (p *Pruner) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.pass(ctx); err != nil {
				return err
			}
		}
	}
}

// pass applies the policy to both demotable tier boundaries:
// runtime → store, then store → cold.
func (p *Pruner) pass(ctx context.Context) error {
	steps := []struct {
		from, to storage.Tier
		maxSize  int
	}{
		{storage.TierRuntime, storage.TierStore, p.tiers.RuntimeMaxEntities},
		{storage.TierStore, storage.TierCold, p.tiers.StoreMaxEntities},
	}

	for _, step := range steps {
		stats, err := p.apply(step.from, step.to, step.maxSize)
		if err != nil {
			p.log.Error("prune pass failed",
				zap.String("from", string(step.from)),
				zap.Error(err))
			return err
		}
		if moved := stats.Total(); moved > 0 {
			if err := p.pace(ctx, moved); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pruner) apply(from, to storage.Tier, maxSize int) (storage.PruneStats, error) {
	switch p.cfg.Policy {
	case "access_count":
		return p.kb.PruneByAccessCount(from, to, p.cfg.AccessThreshold)
	case "age":
		return p.kb.PruneByAge(from, to, p.cfg.MaxAge)
	default: // size_limit, guaranteed by config.Validate
		if maxSize <= 0 {
			return storage.PruneStats{}, nil
		}
		return p.kb.PruneBySizeLimit(from, to, maxSize)
	}
}

// pace charges moved tokens against the limiter, waiting out any debt.
// Charged in burst-sized chunks because WaitN rejects n > burst.
func (p *Pruner) pace(ctx context.Context, moved int) error {
	for moved > 0 {
		n := moved
		if b := p.limiter.Burst(); b > 0 && n > b {
			n = b
		}
		if err := p.limiter.WaitN(ctx, n); err != nil {
			return err
		}
		moved -= n
	}
	return nil
}
