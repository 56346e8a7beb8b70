package csvdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/quentinrf/easyplant/internal/domain"
)

func writeTestDB(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plants.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test database: %v", err)
	}
	return path
}

func TestLoadAndLookup(t *testing.T) {
	path := writeTestDB(t,
		"pid,display_pid,alias,image,min_light_lux,max_temp\n"+
			"ficus benjamina,Ficus Benjamina,weeping fig,http://example.com/f.jpg,2500,32\n"+
			"aloe vera,Aloe Vera,,,,\n")

	db, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	rec, ok := db.Lookup("ficus benjamina")
	if !ok {
		t.Fatal("expected ficus benjamina in database")
	}
	if rec.Image() != "http://example.com/f.jpg" {
		t.Errorf("Image() = %q, want the remote URL", rec.Image())
	}

	bounds := rec.Bounds()
	light, ok := bounds[domain.CategoryLight]
	if !ok || light.Min == nil || *light.Min != 2500 {
		t.Errorf("light bounds = %+v, want min 2500", light)
	}
	temp, ok := bounds[domain.CategoryTemperature]
	if !ok || temp.Max == nil || *temp.Max != 32 {
		t.Errorf("temp bounds = %+v, want max 32", temp)
	}

	attrs := rec.Attributes()
	if attrs["alias"] != "weeping fig" {
		t.Errorf("alias = %q, want weeping fig", attrs["alias"])
	}
	if _, ok := attrs["min_light_lux"]; ok {
		t.Error("bound columns must not leak into display attributes")
	}

	// Empty cells produce no bounds and no attributes.
	rec, ok = db.Lookup("aloe vera")
	if !ok {
		t.Fatal("expected aloe vera in database")
	}
	if len(rec.Bounds()) != 0 {
		t.Errorf("Bounds() = %v, want empty", rec.Bounds())
	}
	if _, ok := rec.Attributes()["alias"]; ok {
		t.Error("empty alias must be omitted")
	}
}

func TestLoad_MalformedBoundSkipped(t *testing.T) {
	path := writeTestDB(t,
		"pid,min_temp\n"+
			"ficus,not-a-number\n")

	db, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	rec, _ := db.Lookup("ficus")
	if len(rec.Bounds()) != 0 {
		t.Errorf("Bounds() = %v, want empty for malformed cell", rec.Bounds())
	}
}

func TestLoad_MissingPidColumn(t *testing.T) {
	path := writeTestDB(t, "name,alias\nficus,fig\n")

	if _, err := Load(path); err == nil {
		t.Error("expected error for database without pid column")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
