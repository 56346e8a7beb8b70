package domain

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Sensor states that are not numeric measurements.
const (
	StateUnknown     = "unknown"
	StateUnavailable = "unavailable"
)

// Overall plant states.
const (
	StateOK      = "ok"
	StateProblem = "problem"
)

// ProblemNone is reported while no reading is outside its bounds.
const ProblemNone = "none"

// DefaultCheckDays is the trailing window used for the brightness
// history when a plant doesn't configure one.
const DefaultCheckDays = 3

// Limits holds the optional configured bounds for one category.
// A nil bound means "not configured" and is never checked.
type Limits struct {
	Min *float64
	Max *float64
}

// PlantConfig is the resolved, strongly-typed configuration for one
// plant. Species-database defaults are merged in before construction;
// explicit per-plant settings win.
type PlantConfig struct {
	PID                 string
	Sensors             map[Category]string
	Bounds              map[Category]Limits
	CheckDays           int
	DiscoveryPrefix     string
	ImageDir            string
	Image               string
	DisableRemoteImages bool
	Attributes          map[string]string
}

// SensorUpdate is one state-change event for a sensor entity.
type SensorUpdate struct {
	EntityID  string
	OldState  string
	NewState  string
	Unit      string // optional unit-of-measurement override
	Timestamp time.Time
}

// HistorySource yields time-ordered raw states for one sensor entity,
// used to seed the brightness history at startup. Implementations must
// return rows in ascending timestamp order.
type HistorySource interface {
	StatesSince(ctx context.Context, entityID string, since time.Time) ([]StateRecord, error)
}

// Plant monitors the well-being of a single plant. It aggregates the
// readings of the associated sensors and checks them against
// configurable min and max values.
//
// All methods are safe for concurrent use; updates are serialized by a
// per-plant mutex.
type Plant struct {
	mu sync.RWMutex

	name string
	cfg  PlantConfig

	sensors      map[string]Category // entity id -> category, cached association
	sensorStates map[string]string   // last raw state per sensor
	readings     map[Category]*Reading

	brightness *DailyHistory

	state    string
	problems string

	sensorPrefix string
}

// NewPlant creates a plant from its resolved configuration and
// registers the statically assigned sensors.
func NewPlant(name string, cfg PlantConfig) *Plant {
	if cfg.CheckDays < 1 {
		cfg.CheckDays = DefaultCheckDays
	}

	p := &Plant{
		name:         name,
		cfg:          cfg,
		sensors:      make(map[string]Category),
		sensorStates: make(map[string]string),
		readings:     make(map[Category]*Reading),
		brightness:   NewDailyHistory(cfg.CheckDays),
		state:        StateUnknown,
		problems:     ProblemNone,
	}

	prefix := ""
	if cfg.DiscoveryPrefix != "" {
		prefix = cfg.DiscoveryPrefix + "_"
	}
	p.sensorPrefix = "sensor." + prefix + Slugify(name) + "_"

	for cat, entityID := range cfg.Sensors {
		p.sensors[entityID] = cat
		p.addReading(cat, entityID)
		log.Debug().
			Str("plant", name).
			Str("entity_id", entityID).
			Str("reading", string(cat)).
			Msg("added statically defined sensor")
	}

	return p
}

// Name returns the plant's configured name.
func (p *Plant) Name() string {
	return p.name
}

// WantsSensor reports whether updates for the entity should be routed
// to this plant, either because the sensor is already associated or
// because its name matches the plant's discovery prefix.
func (p *Plant) WantsSensor(entityID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if _, ok := p.sensors[entityID]; ok {
		return true
	}
	return strings.HasPrefix(entityID, p.sensorPrefix)
}

func (p *Plant) addReading(cat Category, entityID string) {
	if r, ok := p.readings[cat]; ok {
		r.Sensors = append(r.Sensors, entityID)
		return
	}
	bounds := p.cfg.Bounds[cat]
	p.readings[cat] = &Reading{
		Sensors: []string{entityID},
		Unit:    cat.Unit(),
		Min:     bounds.Min,
		Max:     bounds.Max,
	}
}

// associate resolves an unseen sensor to a category and caches the
// result. Must be called with the lock held.
func (p *Plant) associate(entityID string) (Category, error) {
	cat, ok := MatchCategory(entityID)
	if !ok {
		return "", fmt.Errorf("%w %s", ErrUnassociatedSensor, entityID)
	}
	log.Info().
		Str("plant", p.name).
		Str("entity_id", entityID).
		Str("reading", string(cat)).
		Msg("associated sensor")
	p.sensors[entityID] = cat
	p.addReading(cat, entityID)
	return cat, nil
}

// HandleUpdate processes one sensor state change. Updates carrying the
// unknown state, or an unavailable state while a sibling sensor of the
// same reading is healthy, are ignored. Unassociatable sensors return
// an error.
func (p *Plant) HandleUpdate(u SensorUpdate) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cat, ok := p.sensors[u.EntityID]
	if !ok {
		var err error
		if cat, err = p.associate(u.EntityID); err != nil {
			return err
		}
	}

	state := strings.TrimSpace(u.NewState)
	p.sensorStates[u.EntityID] = state

	log.Debug().
		Str("plant", p.name).
		Str("entity_id", u.EntityID).
		Str("state", state).
		Msg("received sensor update")

	r := p.readings[cat]

	switch state {
	case StateUnknown:
		return nil
	case StateUnavailable:
		if p.healthySibling(r, u.EntityID) {
			log.Debug().
				Str("plant", p.name).
				Str("entity_id", u.EntityID).
				Msg("ignoring unavailable state, sibling sensor is healthy")
			return nil
		}
		r.Value = nil
		r.Unavailable = true
	default:
		v, err := cat.Coerce(state)
		if err != nil {
			log.Warn().
				Str("plant", p.name).
				Str("entity_id", u.EntityID).
				Str("state", state).
				Msg("ignoring non-numeric sensor state")
			return nil
		}
		r.Value = &v
		r.Unavailable = false
		if cat == CategoryLight {
			p.brightness.Add(v, u.Timestamp)
		}
	}

	if u.Unit != "" {
		r.Unit = u.Unit
	}

	p.updateState()
	return nil
}

// healthySibling reports whether another sensor of the same reading
// currently reports a state other than unavailable. Evaluated at call
// time against every sensor mapped into the reading.
func (p *Plant) healthySibling(r *Reading, except string) bool {
	for _, id := range r.Sensors {
		if id == except {
			continue
		}
		if st, ok := p.sensorStates[id]; ok && st != StateUnavailable {
			return true
		}
	}
	return false
}

// updateState recomputes the overall status from the per-reading
// checks. Must be called with the lock held.
func (p *Plant) updateState() {
	var problems []string
	for _, cat := range Categories {
		r, ok := p.readings[cat]
		if !ok {
			continue
		}
		if prob := p.checkReading(cat, r); prob != "" {
			problems = append(problems, prob)
		}
	}

	if len(problems) == 0 {
		p.state = StateOK
		p.problems = ProblemNone
		return
	}

	allUnavailable := true
	for _, prob := range problems {
		if !strings.Contains(prob, StateUnavailable) {
			allUnavailable = false
			break
		}
	}
	if allUnavailable {
		p.state = StateUnavailable
	} else {
		p.state = StateProblem
	}
	p.problems = strings.Join(problems, ", ")
}

// checkReading returns at most one problem string for the reading:
// unavailable beats a low value beats a high value.
func (p *Plant) checkReading(cat Category, r *Reading) string {
	if r.Unavailable {
		return fmt.Sprintf("%s %s", cat, StateUnavailable)
	}
	if r.Value == nil {
		return ""
	}
	if prob := p.checkMin(cat, r); prob != "" {
		return prob
	}
	return p.checkMax(cat, r)
}

// checkMin compares against the configured minimum. Light is judged on
// the rolling per-day maximum instead of the instantaneous value, so a
// dark evening doesn't flag a plant that saw enough light today.
func (p *Plant) checkMin(cat Category, r *Reading) string {
	if r.Min == nil {
		return ""
	}
	value := *r.Value
	if cat == CategoryLight {
		max := p.brightness.Max()
		if max == nil {
			return ""
		}
		value = *max
	}
	if value < *r.Min {
		return fmt.Sprintf("%s low", cat)
	}
	return ""
}

func (p *Plant) checkMax(cat Category, r *Reading) string {
	if r.Max == nil {
		return ""
	}
	if *r.Value > *r.Max {
		return fmt.Sprintf("%s high", cat)
	}
	return ""
}

// LoadHistory seeds the brightness history with stored states of the
// light sensors over the trailing check window. Out-of-order rows are
// dropped by the history itself, so a backfill racing live updates
// can't corrupt it.
func (p *Plant) LoadHistory(ctx context.Context, src HistorySource) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.readings[CategoryLight]
	if !ok {
		return nil
	}

	since := time.Now().AddDate(0, 0, -p.cfg.CheckDays)
	for _, entityID := range r.Sensors {
		records, err := src.StatesSince(ctx, entityID, since)
		if err != nil {
			return fmt.Errorf("load history for %s: %w", entityID, err)
		}
		for _, rec := range records {
			p.brightness.AddRaw(rec.State, rec.Timestamp)
		}
		log.Debug().
			Str("plant", p.name).
			Str("entity_id", entityID).
			Int("records", len(records)).
			Msg("initialized brightness history from storage")
	}

	p.updateState()
	return nil
}

// State returns the overall plant state: ok, problem, unavailable, or
// unknown before the first accepted update.
func (p *Plant) State() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Problem returns the comma-joined problem description, or "none".
func (p *Plant) Problem() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.problems
}

// BrightnessMax returns the rolling maximum of the light reading, nil
// while no numeric light sample is retained.
func (p *Plant) BrightnessMax() *float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.brightness.Max()
}

// ReadingSnapshot is a copy of one reading's state for publication.
type ReadingSnapshot struct {
	Sensors     []string `json:"sensors"`
	Value       *float64 `json:"value"`
	Unavailable bool     `json:"unavailable,omitempty"`
	Unit        string   `json:"unit_of_measurement"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
}

// Snapshot is the observable state of a plant.
type Snapshot struct {
	Name          string                       `json:"name"`
	State         string                       `json:"state"`
	Problem       string                       `json:"problem"`
	Readings      map[Category]ReadingSnapshot `json:"readings"`
	MaxBrightness *float64                     `json:"max_brightness,omitempty"`
	EntityPicture string                       `json:"entity_picture,omitempty"`
	Attributes    map[string]string            `json:"attributes,omitempty"`
}

// Snapshot returns a consistent copy of the plant's observable state.
func (p *Plant) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	readings := make(map[Category]ReadingSnapshot, len(p.readings))
	for cat, r := range p.readings {
		sensors := make([]string, len(r.Sensors))
		copy(sensors, r.Sensors)
		readings[cat] = ReadingSnapshot{
			Sensors:     sensors,
			Value:       copyFloat(r.Value),
			Unavailable: r.Unavailable,
			Unit:        r.Unit,
			Min:         copyFloat(r.Min),
			Max:         copyFloat(r.Max),
		}
	}

	return Snapshot{
		Name:          p.name,
		State:         p.state,
		Problem:       p.problems,
		Readings:      readings,
		MaxBrightness: copyFloat(p.brightness.Max()),
		EntityPicture: p.entityPicture(),
		Attributes:    p.cfg.Attributes,
	}
}

// entityPicture resolves the plant's picture: a local image named
// after the species pid wins over the remote database image, and
// remote images can be disabled entirely.
func (p *Plant) entityPicture() string {
	if p.cfg.ImageDir != "" && p.cfg.PID != "" {
		return filepath.Join(p.cfg.ImageDir, p.cfg.PID+".jpg")
	}
	if p.cfg.DisableRemoteImages {
		return ""
	}
	return p.cfg.Image
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

// Slugify lowercases a name and replaces every non-alphanumeric run
// with a single underscore, matching the naming of discovered sensor
// entities.
func Slugify(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
