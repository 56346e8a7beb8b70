package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/easyplant/internal/adapters/csvdb"
	"github.com/quentinrf/easyplant/internal/adapters/httpapi"
	"github.com/quentinrf/easyplant/internal/adapters/memory"
	"github.com/quentinrf/easyplant/internal/adapters/mock"
	"github.com/quentinrf/easyplant/internal/adapters/sqlite"
	"github.com/quentinrf/easyplant/internal/config"
	"github.com/quentinrf/easyplant/internal/domain"
	"github.com/quentinrf/easyplant/internal/metrics"
	"github.com/quentinrf/easyplant/internal/ports"
	"github.com/quentinrf/easyplant/pkg/tlsconfig"
)

func main() {
	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msg("starting plant monitor")

	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load configuration")
	}

	// Load the species database
	var plantDB *csvdb.Database
	if cfg.Database != "" {
		plantDB, err = csvdb.Load(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Database).Msg("failed to load plant database")
		}
	}

	// Build plants in a stable order
	names := make([]string, 0, len(cfg.Plants))
	for name := range cfg.Plants {
		names = append(names, name)
	}
	sort.Strings(names)

	plants := make([]*domain.Plant, 0, len(names))
	for _, name := range names {
		pc := cfg.Plants[name]
		plants = append(plants, buildPlant(name, pc, plantDB, cfg))
		log.Info().Str("plant", name).Msg("added plant")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the sensor-state store
	var (
		store  ports.StateStore
		source domain.HistorySource
	)
	switch cfg.History.Driver {
	case "sqlite":
		r, err := sqlite.NewStateRepository(cfg.History.Path)
		if err != nil {
			log.Fatal().Err(err).Str("db_path", cfg.History.Path).Msg("failed to open SQLite database")
		}
		defer r.Close()
		store, source = r, r
		go cleanupLoop(ctx, r)
		log.Info().Str("db_path", cfg.History.Path).Msg("initialized SQLite state store")
	default:
		r := memory.NewStateRepository()
		store, source = r, r
		log.Info().Msg("initialized in-memory state store")
	}

	registry := prometheus.NewRegistry()
	collector := metrics.New(registry)

	dispatcher := ports.NewDispatcher(plants, store, collector)

	// Backfill brightness histories; best effort, may interleave with
	// live updates.
	for _, p := range plants {
		go func(p *domain.Plant) {
			if err := p.LoadHistory(ctx, source); err != nil {
				log.Error().Err(err).Str("plant", p.Name()).Msg("failed to load brightness history")
			}
		}(p)
	}

	// Start the mock sensor fleet
	poller := ports.NewPoller(fakeFleet(cfg), dispatcher, cfg.Interval())
	go poller.Start(ctx)

	// Start the status API
	router := httpapi.NewRouter(plants, registry)
	server := &http.Server{
		Addr:    ":" + cfg.HTTP.Port,
		Handler: handlers.LoggingHandler(os.Stdout, router),
	}

	go func() {
		var err error
		if cfg.HTTP.TLSCert != "" {
			server.TLSConfig, err = tlsconfig.LoadServerTLS(cfg.HTTP.TLSCert, cfg.HTTP.TLSKey, cfg.HTTP.TLSCA)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to load TLS config")
			}
			log.Info().Str("port", cfg.HTTP.Port).Msg("status API listening (TLS)")
			err = server.ListenAndServeTLS("", "")
		} else {
			log.Warn().Msg("TLS not configured — starting without TLS (dev mode only)")
			log.Info().Str("port", cfg.HTTP.Port).Msg("status API listening")
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to serve")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	cancel() // Stop poller and cleanup loop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down cleanly")
	}

	log.Info().Msg("server stopped")
}

// buildPlant merges species-database defaults with the explicit plant
// configuration; explicit settings win.
func buildPlant(name string, pc config.PlantConfig, db *csvdb.Database, cfg *config.Config) *domain.Plant {
	bounds := make(map[domain.Category]domain.Limits)
	var image string
	var attributes map[string]string

	if db != nil && pc.PID != "" {
		if rec, ok := db.Lookup(pc.PID); ok {
			bounds = rec.Bounds()
			image = rec.Image()
			attributes = rec.Attributes()
		} else {
			log.Warn().Str("plant", name).Str("pid", pc.PID).Msg("pid not found in plant database")
		}
	}
	for cat, limits := range pc.Bounds() {
		merged := bounds[cat]
		if limits.Min != nil {
			merged.Min = limits.Min
		}
		if limits.Max != nil {
			merged.Max = limits.Max
		}
		bounds[cat] = merged
	}

	return domain.NewPlant(name, domain.PlantConfig{
		PID:                 pc.PID,
		Sensors:             pc.SensorMap(),
		Bounds:              bounds,
		CheckDays:           pc.CheckDays,
		DiscoveryPrefix:     pc.DiscoveryPrefix,
		ImageDir:            cfg.Images,
		Image:               image,
		DisableRemoteImages: cfg.DisableRemoteImages,
		Attributes:          attributes,
	})
}

// fakeFleet simulates every statically configured sensor with
// category-appropriate values. Real deployments wire the dispatcher to
// the host's event bus instead.
func fakeFleet(cfg *config.Config) []ports.Sensor {
	var sensors []ports.Sensor
	for _, pc := range cfg.Plants {
		for cat, entityID := range pc.SensorMap() {
			base, variation := fakeProfile(cat)
			sensors = append(sensors, mock.NewFakeSensor(entityID, base, variation))
		}
	}
	return sensors
}

func fakeProfile(cat domain.Category) (base, variation float64) {
	switch cat {
	case domain.CategoryLight:
		return 500, 100 // indoor lighting
	case domain.CategoryTemperature:
		return 21, 2
	case domain.CategoryHumidity:
		return 40, 5
	case domain.CategorySoilMoisture:
		return 35, 5
	case domain.CategorySoilEC:
		return 350, 50
	case domain.CategoryBattery:
		return 90, 5
	default:
		return 0, 0
	}
}

// cleanupLoop prunes stored sensor states once a day.
func cleanupLoop(ctx context.Context, repo *sqlite.StateRepository) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := repo.DeleteOldStates(ctx, 30*24*time.Hour); err != nil {
				log.Error().Err(err).Msg("failed to delete old states")
			} else {
				log.Info().Msg("deleted states older than 30 days")
			}
		case <-ctx.Done():
			return
		}
	}
}
