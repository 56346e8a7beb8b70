package ports

import (
	"context"
	"time"

	"github.com/quentinrf/easyplant/internal/domain"
)

// Sensor produces state updates for one monitored entity.
// This is a PORT - adapters (hardware, mock) will implement it.
type Sensor interface {
	// EntityID identifies the sensor to the dispatcher.
	EntityID() string

	// Read returns the sensor's current state as an update event.
	Read(ctx context.Context) (domain.SensorUpdate, error)

	// Close releases any resources
	Close() error
}

// StateStore persists raw sensor states so the brightness history can
// be rebuilt after a restart.
type StateStore interface {
	SaveState(ctx context.Context, entityID, state string, ts time.Time) error
}
