package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quentinrf/easyplant/internal/domain"
)

// Defaults applied while loading.
const (
	DefaultMinBattery     = 20
	DefaultCheckDays      = 3
	DefaultRecordInterval = 5 * time.Minute
	DefaultPort           = "8080"
)

// Config is the complete service configuration. Every recognized
// option is an explicit field; unknown keys fail the load.
type Config struct {
	// Database is the path of the species CSV database (optional).
	Database string `yaml:"database"`
	// Images is a local directory with <pid>.jpg pictures (optional).
	Images              string `yaml:"images"`
	DisableRemoteImages bool   `yaml:"disable_remote_images"`
	// DiscoveryPrefix applies to every plant that doesn't set its own.
	DiscoveryPrefix string `yaml:"discovery_prefix"`

	HTTP    HTTPConfig    `yaml:"http"`
	History HistoryConfig `yaml:"history"`

	// RecordInterval controls the mock sensor poll loop, e.g. "30s".
	RecordInterval string `yaml:"record_interval"`

	Plants map[string]PlantConfig `yaml:"plants"`
}

// HTTPConfig configures the status API listener.
type HTTPConfig struct {
	Port    string `yaml:"port"`
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`
	TLSCA   string `yaml:"tls_ca"`
}

// HistoryConfig selects the sensor-state store used for the
// brightness backfill.
type HistoryConfig struct {
	Driver string `yaml:"driver"` // "memory" | "sqlite"
	Path   string `yaml:"path"`   // SQLite database file (driver=sqlite)
}

// PlantConfig configures one monitored plant. Bounds left nil fall
// back to the species database, then to "not checked".
type PlantConfig struct {
	PID             string            `yaml:"pid"`
	DiscoveryPrefix string            `yaml:"discovery_prefix"`
	Sensors         map[string]string `yaml:"sensors"` // category -> entity id
	CheckDays       int               `yaml:"check_days"`

	MinBattery   *float64 `yaml:"min_battery"`
	MinLightLux  *float64 `yaml:"min_light_lux"`
	MaxLightLux  *float64 `yaml:"max_light_lux"`
	MinTemp      *float64 `yaml:"min_temp"`
	MaxTemp      *float64 `yaml:"max_temp"`
	MinEnvHumid  *float64 `yaml:"min_env_humid"`
	MaxEnvHumid  *float64 `yaml:"max_env_humid"`
	MinSoilMoist *float64 `yaml:"min_soil_moist"`
	MaxSoilMoist *float64 `yaml:"max_soil_moist"`
	MinSoilEC    *float64 `yaml:"min_soil_ec"`
	MaxSoilEC    *float64 `yaml:"max_soil_ec"`
}

// Load loads configuration from the specified YAML file
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == "" {
		c.HTTP.Port = DefaultPort
	}
	if c.History.Driver == "" {
		c.History.Driver = "memory"
	}
	if c.RecordInterval == "" {
		c.RecordInterval = DefaultRecordInterval.String()
	}

	for name, plant := range c.Plants {
		if plant.CheckDays == 0 {
			plant.CheckDays = DefaultCheckDays
		}
		if plant.MinBattery == nil {
			def := float64(DefaultMinBattery)
			plant.MinBattery = &def
		}
		if plant.DiscoveryPrefix == "" {
			plant.DiscoveryPrefix = c.DiscoveryPrefix
		}
		c.Plants[name] = plant
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Plants) == 0 {
		return fmt.Errorf("no plants configured")
	}

	switch c.History.Driver {
	case "memory":
	case "sqlite":
		if c.History.Path == "" {
			return fmt.Errorf("history path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported history driver: %s", c.History.Driver)
	}

	if _, err := time.ParseDuration(c.RecordInterval); err != nil {
		return fmt.Errorf("invalid record_interval: %w", err)
	}

	for name, plant := range c.Plants {
		if plant.CheckDays < 0 {
			return fmt.Errorf("plant %s: check_days must be positive", name)
		}
		for category := range plant.Sensors {
			if !validCategory(category) {
				return fmt.Errorf("plant %s: unknown reading category %q", name, category)
			}
		}
	}

	if (c.HTTP.TLSCert == "") != (c.HTTP.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}

	return nil
}

func validCategory(name string) bool {
	for _, c := range domain.Categories {
		if string(c) == name {
			return true
		}
	}
	return false
}

// Interval returns the parsed record interval. Validate guarantees it
// parses.
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.RecordInterval)
	if err != nil {
		return DefaultRecordInterval
	}
	return d
}

// SensorMap converts the plant's sensor assignments to typed
// categories.
func (p *PlantConfig) SensorMap() map[domain.Category]string {
	sensors := make(map[domain.Category]string, len(p.Sensors))
	for category, entityID := range p.Sensors {
		sensors[domain.Category(category)] = entityID
	}
	return sensors
}

// Bounds returns the plant's explicitly configured bounds.
func (p *PlantConfig) Bounds() map[domain.Category]domain.Limits {
	bounds := make(map[domain.Category]domain.Limits)

	set := func(cat domain.Category, min, max *float64) {
		if min == nil && max == nil {
			return
		}
		bounds[cat] = domain.Limits{Min: min, Max: max}
	}

	set(domain.CategoryLight, p.MinLightLux, p.MaxLightLux)
	set(domain.CategoryTemperature, p.MinTemp, p.MaxTemp)
	set(domain.CategoryHumidity, p.MinEnvHumid, p.MaxEnvHumid)
	set(domain.CategorySoilMoisture, p.MinSoilMoist, p.MaxSoilMoist)
	set(domain.CategorySoilEC, p.MinSoilEC, p.MaxSoilEC)
	set(domain.CategoryBattery, p.MinBattery, nil)

	return bounds
}
