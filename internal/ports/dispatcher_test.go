package ports

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quentinrf/easyplant/internal/adapters/memory"
	"github.com/quentinrf/easyplant/internal/domain"
	"github.com/quentinrf/easyplant/internal/metrics"
)

func testDispatcher(t *testing.T, plants []*domain.Plant, store StateStore) *Dispatcher {
	t.Helper()
	return NewDispatcher(plants, store, metrics.New(prometheus.NewRegistry()))
}

func TestDispatch_RoutesToOwningPlant(t *testing.T) {
	ficus := domain.NewPlant("ficus", domain.PlantConfig{
		Sensors: map[domain.Category]string{
			domain.CategoryTemperature: "sensor.ficus_temp",
		},
	})
	fern := domain.NewPlant("fern", domain.PlantConfig{
		Sensors: map[domain.Category]string{
			domain.CategoryTemperature: "sensor.fern_temp",
		},
	})
	d := testDispatcher(t, []*domain.Plant{ficus, fern}, nil)

	d.Dispatch(context.Background(), domain.SensorUpdate{
		EntityID:  "sensor.ficus_temp",
		NewState:  "21.5",
		Timestamp: time.Now(),
	})

	if got := ficus.State(); got != domain.StateOK {
		t.Errorf("ficus state = %q, want ok", got)
	}
	if got := fern.State(); got != domain.StateUnknown {
		t.Errorf("fern state = %q, want unknown (update must not leak)", got)
	}
}

func TestDispatch_DiscoveryPrefix(t *testing.T) {
	plant := domain.NewPlant("ficus", domain.PlantConfig{
		DiscoveryPrefix: "bedroom",
	})
	d := testDispatcher(t, []*domain.Plant{plant}, nil)

	d.Dispatch(context.Background(), domain.SensorUpdate{
		EntityID:  "sensor.bedroom_ficus_soil_moist",
		NewState:  "35",
		Timestamp: time.Now(),
	})

	snap := plant.Snapshot()
	r, ok := snap.Readings[domain.CategorySoilMoisture]
	if !ok || r.Value == nil || *r.Value != 35 {
		t.Errorf("soil moisture reading = %+v, want 35 via discovery", r)
	}
}

func TestDispatch_PersistsRoutedStates(t *testing.T) {
	plant := domain.NewPlant("ficus", domain.PlantConfig{
		Sensors: map[domain.Category]string{
			domain.CategoryLight: "sensor.ficus_light_lux",
		},
	})
	store := memory.NewStateRepository()
	d := testDispatcher(t, []*domain.Plant{plant}, store)

	now := time.Now()
	d.Dispatch(context.Background(), domain.SensorUpdate{
		EntityID:  "sensor.ficus_light_lux",
		NewState:  "500",
		Timestamp: now,
	})
	// Unclaimed updates are not persisted.
	d.Dispatch(context.Background(), domain.SensorUpdate{
		EntityID:  "sensor.kitchen_co2",
		NewState:  "400",
		Timestamp: now,
	})

	records, err := store.StatesSince(context.Background(), "sensor.ficus_light_lux", now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("StatesSince failed: %v", err)
	}
	if len(records) != 1 || records[0].State != "500" {
		t.Errorf("stored records = %v, want one '500'", records)
	}

	records, err = store.StatesSince(context.Background(), "sensor.kitchen_co2", now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("StatesSince failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("unrouted update was persisted: %v", records)
	}
}

func TestDispatch_UnassociatableSensorDoesNotPanic(t *testing.T) {
	plant := domain.NewPlant("ficus", domain.PlantConfig{
		DiscoveryPrefix: "bedroom",
	})
	d := testDispatcher(t, []*domain.Plant{plant}, nil)

	// Matches the discovery prefix but no reading category; the error
	// is surfaced through logs and metrics, delivery continues.
	d.Dispatch(context.Background(), domain.SensorUpdate{
		EntityID:  "sensor.bedroom_ficus_pressure",
		NewState:  "1013",
		Timestamp: time.Now(),
	})

	if got := plant.State(); got != domain.StateUnknown {
		t.Errorf("state = %q, want unknown", got)
	}
}
