package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// HomeScheduler lance une passe au démarrage puis à chaque intervalle:
// reconstruction des homes, puis purge des positions périmées.
// Prévu pour tourner sous un superviseur suture (Serve).
type HomeScheduler struct {
	logger     zerolog.Logger
	aggregator *HomeAggregator
	progress   *ProgressService

	Interval  time.Duration
	Retention time.Duration
}

func NewHomeScheduler(logger zerolog.Logger, aggregator *HomeAggregator, progress *ProgressService) *HomeScheduler {
	return &HomeScheduler{
		logger:     logger,
		aggregator: aggregator,
		progress:   progress,
		Interval:   24 * time.Hour,
		Retention:  7 * 24 * time.Hour,
	}
}

func (sch *HomeScheduler) String() string { return "home-scheduler" }

func (sch *HomeScheduler) Serve(ctx context.Context) error {
	interval := sch.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	sch.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sch.logger.Info().Msg("home scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			sch.tick(ctx)
		}
	}
}

func (sch *HomeScheduler) tick(ctx context.Context) {
	if sch.aggregator != nil {
		report, err := sch.aggregator.RebuildAll(ctx)
		if err != nil {
			sch.logger.Error().Err(err).Msg("home rebuild pass aborted")
		} else {
			sch.logger.Info().
				Int("accounts", report.Accounts).
				Int("rebuilt", report.Rebuilt).
				Int("failed", report.Failed).
				Msg("home rebuild pass done")
		}
	}

	if sch.progress != nil && ctx.Err() == nil {
		if _, err := sch.progress.RetireStale(ctx, sch.Retention); err != nil {
			sch.logger.Error().Err(err).Msg("progress sweep failed")
		}
	}
}
