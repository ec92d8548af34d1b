package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/xtream-companion/internal/ports"
)

// HomeBootstrapper construit la première home d'une session dès sa création,
// sans attendre la prochaine passe du scheduler.
type HomeBootstrapper struct {
	logger     zerolog.Logger
	bus        ports.EventBus
	aggregator *HomeAggregator
}

func NewHomeBootstrapper(logger zerolog.Logger, bus ports.EventBus, aggregator *HomeAggregator) *HomeBootstrapper {
	return &HomeBootstrapper{logger: logger, bus: bus, aggregator: aggregator}
}

func (b *HomeBootstrapper) String() string { return "home-bootstrapper" }

func (b *HomeBootstrapper) Serve(ctx context.Context) error {
	if b == nil || b.bus == nil || b.aggregator == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	ch, cancel := b.bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("home bootstrapper stopped")
			return ctx.Err()
		case evt, ok := <-ch:
			if !ok {
				return nil
			}
			b.handleEvent(ctx, evt)
		}
	}
}

func (b *HomeBootstrapper) handleEvent(ctx context.Context, evt ports.Event) {
	if evt.Topic != TopicSessionCreated {
		return
	}
	sessionID := EventSessionID(evt.Payload)
	if sessionID == "" {
		return
	}
	if err := b.aggregator.RebuildSessionByID(ctx, sessionID); err != nil {
		b.logger.Warn().Err(err).Str("session_id", sessionID).Msg("initial home build failed")
	}
}
