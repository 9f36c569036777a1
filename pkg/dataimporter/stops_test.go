package dataimporter

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCSV(t *testing.T, name string, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	return path
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		header string
		want   csvFormat
	}{
		{"Store #,Name,Address,City,State,Zip Code,Latitude,Longitude", formatPilot},
		{"store_name,StoreNumber,State,City,Address,Zip,Latitude,Longitude,Diesel", formatLoves},
		{"name,brand,latitude,longitude", formatGeneric},
	}

	for _, c := range cases {
		if got := detectFormat(c.header); got != c.want {
			t.Errorf("detectFormat(%q) = %s, want %s", c.header, got, c.want)
		}
	}
}

func TestParsePilotFile(t *testing.T) {
	path := writeCSV(t, "pilot_stops.csv",
		"Store #,Name,Address,City,State,Zip Code,Latitude,Longitude,Phone Number\n"+
			"123,Pilot Travel Center,100 Main St,Memphis,TN,38103,35.1,-90.0,901-555-0100\n"+
			",,,,,,,,\n")

	stops, err := ParseStopsFile(path, "")
	if err != nil {
		t.Fatalf("ParseStopsFile returned error: %v", err)
	}

	if len(stops) != 1 {
		t.Fatalf("expected 1 valid stop (blank row dropped), got %d", len(stops))
	}

	stop := stops[0]
	if stop.Name != "Pilot Travel Center #123" {
		t.Errorf("expected store number appended to name, got %q", stop.Name)
	}
	if stop.Brand != "Pilot" {
		t.Errorf("expected Pilot brand, got %q", stop.Brand)
	}
	if !stop.HasDiesel {
		t.Error("pilot stops should default to having diesel")
	}
	if stop.ID == "" {
		t.Error("expected a stable id to be derived")
	}
}

func TestParseLovesFileDieselColumn(t *testing.T) {
	path := writeCSV(t, "loves_stops.csv",
		"store_name,StoreNumber,State,City,Address,Zip,Latitude,Longitude,Diesel,Phone\n"+
			"Love's Travel Stop,456,AR,Little Rock,200 Elm St,72201,34.7,-92.3,Y,501-555-0100\n"+
			"Love's Country Store,789,AR,Conway,300 Oak St,72032,35.0,-92.4,N,501-555-0200\n")

	stops, err := ParseStopsFile(path, "")
	if err != nil {
		t.Fatalf("ParseStopsFile returned error: %v", err)
	}

	if len(stops) != 2 {
		t.Fatalf("expected 2 stops, got %d", len(stops))
	}

	if !stops[0].HasDiesel {
		t.Error("Diesel=Y should mark the stop as having diesel")
	}
	if stops[1].HasDiesel {
		t.Error("Diesel=N should mark the stop as not having diesel")
	}
	if stops[0].Brand != "Love's" {
		t.Errorf("expected Love's brand, got %q", stops[0].Brand)
	}
}

func TestParseGenericFileBrandOverride(t *testing.T) {
	path := writeCSV(t, "all_stops.csv",
		"name,brand,latitude,longitude,has_diesel\n"+
			"Big Rig Fuel,Flying J,36.1,-86.7,1\n"+
			"No Coords,,bad,data,1\n")

	stops, err := ParseStopsFile(path, "")
	if err != nil {
		t.Fatalf("ParseStopsFile returned error: %v", err)
	}

	if len(stops) != 1 {
		t.Fatalf("expected unparseable coordinates to drop the row, got %d stops", len(stops))
	}
	if stops[0].Brand != "Flying J" {
		t.Errorf("expected brand from the csv column, got %q", stops[0].Brand)
	}

	overridden, err := ParseStopsFile(path, "Pilot")
	if err != nil {
		t.Fatalf("ParseStopsFile returned error: %v", err)
	}
	if overridden[0].Brand != "Pilot" {
		t.Errorf("expected brand override to win, got %q", overridden[0].Brand)
	}
}

func TestStopIDStable(t *testing.T) {
	first := stopID("Pilot Travel Center #123", 35.1, -90.0)
	second := stopID("Pilot Travel Center #123", 35.1, -90.0)
	other := stopID("Pilot Travel Center #124", 35.1, -90.0)

	if first != second {
		t.Error("same stop should derive the same id on re-import")
	}
	if first == other {
		t.Error("different stops should derive different ids")
	}
}
