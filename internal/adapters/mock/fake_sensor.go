package mock

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/quentinrf/easyplant/internal/domain"
)

// FakeSensor simulates one sensor entity for development
// This implements the ports.Sensor interface
type FakeSensor struct {
	entityID  string
	baseValue float64
	variation float64
	lastState string
}

// NewFakeSensor creates a sensor that returns realistic values
// baseValue: average reading (e.g., 500 lux for indoor lighting)
// variation: +/- range (e.g., 100 means 400-600)
func NewFakeSensor(entityID string, baseValue, variation float64) *FakeSensor {
	return &FakeSensor{
		entityID:  entityID,
		baseValue: baseValue,
		variation: variation,
	}
}

// EntityID returns the simulated entity's ID
func (s *FakeSensor) EntityID() string {
	return s.entityID
}

// Read returns a simulated state update
// Simulates realistic variance (lights flicker, clouds pass, etc.)
func (s *FakeSensor) Read(ctx context.Context) (domain.SensorUpdate, error) {
	variance := (rand.Float64() - 0.5) * 2 * s.variation
	value := s.baseValue + variance

	// Ensure non-negative
	if value < 0 {
		value = 0
	}

	state := strconv.FormatFloat(value, 'f', 1, 64)
	update := domain.SensorUpdate{
		EntityID:  s.entityID,
		OldState:  s.lastState,
		NewState:  state,
		Timestamp: time.Now(),
	}
	s.lastState = state

	return update, nil
}

// Close is a no-op for fake sensor
func (s *FakeSensor) Close() error {
	return nil
}
