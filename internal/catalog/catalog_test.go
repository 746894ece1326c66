package catalog

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func reichertLine(id, galaxy, feh, eu string, extra map[int]string) string {
	line := []byte(strings.Repeat(" ", 500))
	put := func(start int, text string) { copy(line[start-1:], text) }
	put(1, id)
	put(32, galaxy)
	put(39, feh)
	put(45, "0.10")
	if eu != "" {
		put(454, eu)
		put(460, "0.15")
		put(465, "0.05")
		put(490, "0.02")
	}
	for start, text := range extra {
		put(start, text)
	}
	return string(line)
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestParseReichert(t *testing.T) {
	input := strings.Join([]string{
		reichertLine("For-2", "For", "-1.00", "0.02", map[int]string{50: "6.90"}),
		reichertLine("Scl-1", "Scl", "-2.00", "-1.00", nil),
		reichertLine("For-1", "For", "-2.00", "", nil),
		reichertLine("For-3", "For", "-1.50", "-0.48", nil),
	}, "\n")

	stars, err := ParseReichert(strings.NewReader(input), DefaultGalaxy, "Eu")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(stars) != 2 {
		t.Fatalf("expected 2 Fornax stars with Eu, got %d", len(stars))
	}
	if stars[0].ID != "For-3" || stars[1].ID != "For-2" {
		t.Errorf("expected sort by [Fe/H], got %s, %s", stars[0].ID, stars[1].ID)
	}

	s := stars[1]
	eu := s.Elements["Eu"]
	if !near(eu.XH, 0.02-0.52) || !near(eu.XFe, 0.02-0.52+1.0) {
		t.Errorf("unexpected Eu brackets %+v", eu)
	}
	if !near(eu.Budget.Temp, 0.05) || !near(eu.Budget.Noise, 0.02) || !math.IsNaN(eu.Budget.Logg) {
		t.Errorf("unexpected Eu budget %+v", eu.Budget)
	}
	if v, ok := s.Ratio("[Mg/Fe]"); !ok || !near(v, 6.90-7.60+1.0) {
		t.Errorf("[Mg/Fe] = %v, %v", v, ok)
	}
	if _, ok := s.Ratio("[Ba/Fe]"); ok {
		t.Error("blank Ba must be missing, not zero")
	}
	if v, ok := s.Ratio("[Eu/Mg]"); !ok || !near(v, (0.02-0.52)-(6.90-7.60)) {
		t.Errorf("[Eu/Mg] = %v, %v", v, ok)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	input := reichertLine("For-2", "For", "-1.00", "0.02", map[int]string{50: "6.90"})
	stars, err := ParseReichert(strings.NewReader(input), "", "")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, stars); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "e_[Fe/H](Eu)") {
		t.Error("expected itemized error columns in header")
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 star, got %d", len(got))
	}
	want, _ := stars[0].Ratio("[Eu/Fe]")
	if v, ok := got[0].Ratio("[Eu/Fe]"); !ok || !near(v, want) {
		t.Errorf("[Eu/Fe] = %v, want %v", v, want)
	}
	if !near(got[0].Elements["Eu"].Budget.Temp, 0.05) {
		t.Errorf("budget not preserved: %+v", got[0].Elements["Eu"].Budget)
	}
	if _, ok := got[0].Ratio("[Sr/Fe]"); ok {
		t.Error("missing Sr should stay missing")
	}
}

func TestParseStellab(t *testing.T) {
	input := `# Lemasle et al. 2014
[Fe/H] err [Eu/H] err [Mg/Fe]
-1.0 0.1 -0.5 0.2 30.0
-2.0 0.1 30.0 0.2 0.3
`
	stars, err := ParseStellab(strings.NewReader(input), "For")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(stars) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(stars))
	}
	if v, ok := stars[0].Ratio("[Eu/Fe]"); !ok || !near(v, 0.5) {
		t.Errorf("derived [Eu/Fe] = %v, %v", v, ok)
	}
	if !near(stars[0].Error("[Eu/Fe]"), 0.2) || !near(stars[0].FeHErr, 0.1) {
		t.Errorf("errors not attached: %+v", stars[0])
	}
	if _, ok := stars[0].Ratio("[Mg/Fe]"); ok {
		t.Error("sentinel 30.0 must be missing")
	}
	if _, ok := stars[1].Ratio("[Eu/Fe]"); ok {
		t.Error("sentinel Eu must be missing")
	}
	if stars[1].Galaxy != "For" {
		t.Errorf("expected galaxy For, got %q", stars[1].Galaxy)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "absent.csv"), Options{})
	if !errors.Is(err, ErrMissingCatalogFile) {
		t.Errorf("expected ErrMissingCatalogFile, got %v", err)
	}

	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, []byte("# nothing\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(empty, Options{})
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog, got %v", err)
	}

	src := filepath.Join(dir, "reichert.dat")
	lines := reichertLine("For-1", "For", "-1.00", "0.02", nil) + "\n" +
		reichertLine("Car-1", "Car", "-1.00", "0.02", nil) + "\n"
	if err := os.WriteFile(src, []byte(lines), 0644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "out", "fornax.csv")
	n, err := Convert(src, dst, Options{Galaxy: DefaultGalaxy, Require: "Eu"})
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 star written, got %d", n)
	}

	stars, err := Load(dst, Options{Galaxy: DefaultGalaxy})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(stars) != 1 || stars[0].ID != "For-1" {
		t.Errorf("unexpected stars %+v", stars)
	}
}
