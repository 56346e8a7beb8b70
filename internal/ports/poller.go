package ports

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Poller handles periodic sensor reading and dispatch
type Poller struct {
	sensors    []Sensor
	dispatcher *Dispatcher
	interval   time.Duration
}

// NewPoller creates a new background poller
func NewPoller(sensors []Sensor, dispatcher *Dispatcher, interval time.Duration) *Poller {
	return &Poller{
		sensors:    sensors,
		dispatcher: dispatcher,
		interval:   interval,
	}
}

// Start begins periodic sensor reading
// This runs in a goroutine until context is cancelled
func (p *Poller) Start(ctx context.Context) {
	log.Info().
		Dur("interval", p.interval).
		Int("sensors", len(p.sensors)).
		Msg("starting background poller")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Poll immediately on start
	p.pollOnce(ctx)

	for {
		select {
		case <-ticker.C:
			p.pollOnce(ctx)

		case <-ctx.Done():
			log.Info().Msg("stopping background poller")
			for _, s := range p.sensors {
				if err := s.Close(); err != nil {
					log.Error().Err(err).Str("entity_id", s.EntityID()).Msg("failed to close sensor")
				}
			}
			return
		}
	}
}

// pollOnce reads every sensor and dispatches the updates
func (p *Poller) pollOnce(ctx context.Context) {
	for _, s := range p.sensors {
		update, err := s.Read(ctx)
		if err != nil {
			log.Error().Err(err).Str("entity_id", s.EntityID()).Msg("failed to read sensor")
			continue
		}
		p.dispatcher.Dispatch(ctx, update)
	}
}
