package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Category identifies one kind of plant measurement.
type Category string

const (
	CategoryLight        Category = "light_lux"
	CategoryTemperature  Category = "temp"
	CategoryHumidity     Category = "env_humid"
	CategorySoilMoisture Category = "soil_moist"
	CategorySoilEC       Category = "soil_ec"
	CategoryBattery      Category = "battery"
)

// Categories lists every reading category. The order is significant:
// sensor association tries categories in this order, and problem
// strings are collected in this order.
var Categories = []Category{
	CategoryLight,
	CategoryTemperature,
	CategoryHumidity,
	CategorySoilMoisture,
	CategorySoilEC,
	CategoryBattery,
}

var defaultUnits = map[Category]string{
	CategoryLight:        "lux",
	CategoryTemperature:  "°C",
	CategoryHumidity:     "%",
	CategorySoilMoisture: "%",
	CategorySoilEC:       "µS/cm",
	CategoryBattery:      "%",
}

// Unit returns the default unit of measurement for the category.
// Individual sensors may override it via event attributes.
func (c Category) Unit() string {
	return defaultUnits[c]
}

// Fractional reports whether values of this category keep their
// fractional part. All other categories are truncated to integers.
func (c Category) Fractional() bool {
	return c == CategoryTemperature || c == CategoryHumidity
}

// Coerce parses a raw sensor state into a numeric value, applying the
// category's precision rule.
func (c Category) Coerce(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if !c.Fractional() {
		v = math.Trunc(v)
	}
	return v, nil
}

// MatchCategory associates a sensor entity ID with a reading category
// by substring match, trying categories in enumeration order. It is a
// pure function; callers decide what an unmatched sensor means.
func MatchCategory(entityID string) (Category, bool) {
	for _, c := range Categories {
		if strings.Contains(entityID, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Reading tracks the state of one category for a plant. Several
// sensors may contribute to the same reading.
type Reading struct {
	Sensors     []string
	Value       *float64
	Unavailable bool
	Unit        string
	Min         *float64
	Max         *float64
}

// StateRecord is one raw historical sensor state. The state is kept
// exactly as the sensor reported it; malformed values are tolerated
// downstream.
type StateRecord struct {
	State     string
	Timestamp time.Time
}
