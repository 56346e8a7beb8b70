package ports

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quentinrf/easyplant/internal/adapters/mock"
	"github.com/quentinrf/easyplant/internal/domain"
	"github.com/quentinrf/easyplant/internal/metrics"
)

func TestPoller_PollOnce(t *testing.T) {
	plant := domain.NewPlant("ficus", domain.PlantConfig{
		Sensors: map[domain.Category]string{
			domain.CategoryLight: "sensor.ficus_light_lux",
		},
	})
	d := NewDispatcher([]*domain.Plant{plant}, nil, metrics.New(prometheus.NewRegistry()))

	sensor := mock.NewFakeSensor("sensor.ficus_light_lux", 500.0, 0) // deterministic: always 500
	p := NewPoller([]Sensor{sensor}, d, time.Second)

	p.pollOnce(context.Background())

	r := plant.Snapshot().Readings[domain.CategoryLight]
	if r.Value == nil || *r.Value != 500 {
		t.Errorf("light reading = %v, want 500", r.Value)
	}
}
