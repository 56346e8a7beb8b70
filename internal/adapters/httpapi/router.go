package httpapi

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quentinrf/easyplant/internal/domain"
)

// NewRouter builds the HTTP surface exposing plant states.
func NewRouter(plants []*domain.Plant, gatherer prometheus.Gatherer) *mux.Router {
	h := newHandler(plants)

	r := mux.NewRouter()
	r.HandleFunc("/health", h.health).Methods("GET")
	r.HandleFunc("/plants", h.listPlants).Methods("GET")
	r.HandleFunc("/plants/{name}", h.getPlant).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	return r
}
