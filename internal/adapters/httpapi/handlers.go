package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/easyplant/internal/domain"
)

type handler struct {
	plants map[string]*domain.Plant
	order  []string
}

func newHandler(plants []*domain.Plant) *handler {
	h := &handler{plants: make(map[string]*domain.Plant, len(plants))}
	for _, p := range plants {
		h.plants[p.Name()] = p
		h.order = append(h.order, p.Name())
	}
	return h
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// plantSummary is the list view of one plant.
type plantSummary struct {
	Name    string `json:"name"`
	State   string `json:"state"`
	Problem string `json:"problem"`
}

func (h *handler) listPlants(w http.ResponseWriter, _ *http.Request) {
	summaries := make([]plantSummary, 0, len(h.order))
	for _, name := range h.order {
		p := h.plants[name]
		summaries = append(summaries, plantSummary{
			Name:    p.Name(),
			State:   p.State(),
			Problem: p.Problem(),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) getPlant(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	p, ok := h.plants[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": domain.ErrPlantNotFound.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, p.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
