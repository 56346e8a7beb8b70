package csvdb

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/quentinrf/easyplant/internal/domain"
)

// DisplayAttributes are the species columns exposed as-is on a plant's
// published state.
var DisplayAttributes = []string{
	"pid",
	"display_pid",
	"alias",
	"image",
	"floral_language",
	"origin",
	"production",
	"category",
	"blooming",
	"color",
	"size",
	"soil",
	"sunlight",
	"watering",
	"fertilization",
	"pruning",
}

// Record is one species row, keyed by column name.
type Record map[string]string

// Image returns the species' remote image URL, if any.
func (r Record) Image() string {
	return r["image"]
}

// Bounds extracts the species' default min_*/max_* columns as typed
// limits. Empty or malformed cells are skipped.
func (r Record) Bounds() map[domain.Category]domain.Limits {
	bounds := make(map[domain.Category]domain.Limits)
	for _, cat := range domain.Categories {
		limits := domain.Limits{
			Min: r.bound("min_" + string(cat)),
			Max: r.bound("max_" + string(cat)),
		}
		if limits.Min != nil || limits.Max != nil {
			bounds[cat] = limits
		}
	}
	return bounds
}

func (r Record) bound(column string) *float64 {
	raw, ok := r[column]
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		log.Warn().
			Str("column", column).
			Str("value", raw).
			Msg("ignoring malformed bound in plant database")
		return nil
	}
	return &v
}

// Attributes returns the display columns that are present and
// non-empty.
func (r Record) Attributes() map[string]string {
	attrs := make(map[string]string)
	for _, key := range DisplayAttributes {
		if v, ok := r[key]; ok && v != "" {
			attrs[key] = v
		}
	}
	return attrs
}

// Database is the species database, keyed by pid.
type Database struct {
	records map[string]Record
}

// Load reads a species CSV file. The first row must be a header that
// includes a pid column.
func Load(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plant database: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read plant database header: %w", err)
	}

	pidCol := -1
	for i, name := range header {
		if name == "pid" {
			pidCol = i
			break
		}
	}
	if pidCol < 0 {
		return nil, fmt.Errorf("plant database %s has no pid column", path)
	}

	db := &Database{records: make(map[string]Record)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read plant database row: %w", err)
		}

		rec := make(Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = row[i]
			}
		}
		db.records[row[pidCol]] = rec
	}

	log.Info().Int("species", len(db.records)).Str("path", path).Msg("loaded plant database")
	return db, nil
}

// Lookup returns the species record for pid.
func (d *Database) Lookup(pid string) (Record, bool) {
	rec, ok := d.records[pid]
	return rec, ok
}
