package ports

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/easyplant/internal/domain"
	"github.com/quentinrf/easyplant/internal/metrics"
)

// Dispatcher routes sensor updates to the plants that claim them and
// persists routed states for later backfill. It is the single entry
// point the host event system is wired to.
type Dispatcher struct {
	plants    []*domain.Plant
	store     StateStore // optional
	collector *metrics.Collector
}

// NewDispatcher creates a dispatcher over the given plants. store may
// be nil to disable state persistence.
func NewDispatcher(plants []*domain.Plant, store StateStore, collector *metrics.Collector) *Dispatcher {
	return &Dispatcher{
		plants:    plants,
		store:     store,
		collector: collector,
	}
}

// Dispatch hands one update to every plant that wants the sensor.
// Handling errors (unassociatable sensors) are logged and counted but
// don't stop delivery to other plants.
func (d *Dispatcher) Dispatch(ctx context.Context, u domain.SensorUpdate) {
	routed := false
	for _, p := range d.plants {
		if !p.WantsSensor(u.EntityID) {
			continue
		}
		routed = true

		if err := p.HandleUpdate(u); err != nil {
			log.Error().
				Err(err).
				Str("plant", p.Name()).
				Str("entity_id", u.EntityID).
				Msg("failed to handle sensor update")
			d.collector.ObserveUpdate(p.Name(), "error")
			continue
		}
		d.collector.ObserveUpdate(p.Name(), "ok")
		d.collector.SetStatus(p.Name(), p.State())
	}

	if !routed {
		log.Debug().Str("entity_id", u.EntityID).Msg("no plant claimed sensor update")
		d.collector.ObserveUnrouted()
		return
	}

	if d.store != nil {
		if err := d.store.SaveState(ctx, u.EntityID, u.NewState, u.Timestamp); err != nil {
			log.Error().Err(err).Str("entity_id", u.EntityID).Msg("failed to persist sensor state")
		}
	}
}
