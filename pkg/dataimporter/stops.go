package dataimporter

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/database"
	"github.com/fleetfuel/fleetfuel/pkg/util"
)

// The catalog accepts three CSV layouts: the Pilot/Flying J store export,
// the Love's store export, and a generic layout with lowercase headers.
type csvFormat string

const (
	formatPilot   csvFormat = "pilot"
	formatLoves   csvFormat = "loves"
	formatGeneric csvFormat = "generic"
)

type pilotRow struct {
	StoreNumber string `csv:"Store #"`
	Name        string `csv:"Name"`
	Address     string `csv:"Address"`
	City        string `csv:"City"`
	State       string `csv:"State"`
	Zip         string `csv:"Zip Code"`
	Latitude    string `csv:"Latitude"`
	Longitude   string `csv:"Longitude"`
	Phone       string `csv:"Phone Number"`
}

type lovesRow struct {
	StoreName   string `csv:"store_name"`
	StoreNumber string `csv:"StoreNumber"`
	Address     string `csv:"Address"`
	City        string `csv:"City"`
	State       string `csv:"State"`
	Zip         string `csv:"Zip"`
	Latitude    string `csv:"Latitude"`
	Longitude   string `csv:"Longitude"`
	Diesel      string `csv:"Diesel"`
	Phone       string `csv:"Phone"`
}

type genericRow struct {
	Name      string `csv:"name"`
	Brand     string `csv:"brand"`
	Address   string `csv:"address"`
	City      string `csv:"city"`
	State     string `csv:"state"`
	Zip       string `csv:"zip"`
	Latitude  string `csv:"latitude"`
	Longitude string `csv:"longitude"`
	Phone     string `csv:"phone"`
	HasDiesel string `csv:"has_diesel"`
}

func detectFormat(headerLine string) csvFormat {
	lowered := strings.ToLower(headerLine)

	if strings.Contains(lowered, "store_name") || strings.Contains(lowered, "storenumber") {
		return formatLoves
	}
	if strings.Contains(lowered, "store #") || strings.Contains(lowered, "fuel lane count") {
		return formatPilot
	}

	return formatGeneric
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "y", "t", "x":
		return true
	}
	return false
}

func stopID(name string, latitude float64, longitude float64) string {
	hasher := fnv.New64a()
	fmt.Fprintf(hasher, "%s|%.5f|%.5f", name, latitude, longitude)

	return fmt.Sprintf("fleetfuel-stop-%016x", hasher.Sum64())
}

func buildStop(name string, brand string, address string, city string, state string, zip string, phone string, latitudeRaw string, longitudeRaw string, hasDiesel bool) *cfdf.Stop {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	latitude, err := strconv.ParseFloat(strings.TrimSpace(latitudeRaw), 64)
	if err != nil {
		return nil
	}
	longitude, err := strconv.ParseFloat(strings.TrimSpace(longitudeRaw), 64)
	if err != nil {
		return nil
	}

	return &cfdf.Stop{
		ID:    stopID(name, latitude, longitude),
		Name:  name,
		Brand: brand,

		Address: strings.TrimSpace(address),
		City:    strings.TrimSpace(city),
		State:   strings.TrimSpace(state),
		Zip:     strings.TrimSpace(zip),
		Phone:   strings.TrimSpace(phone),

		Latitude:  latitude,
		Longitude: longitude,

		HasDiesel: hasDiesel,

		CreationDateTime: time.Now(),
	}
}

func storeName(name string, number string, brandFallback string) string {
	name = strings.TrimSpace(name)
	number = strings.TrimSpace(number)

	if name != "" && number != "" {
		return fmt.Sprintf("%s #%s", name, number)
	}
	if name != "" {
		return name
	}
	if number != "" {
		return fmt.Sprintf("%s #%s", brandFallback, number)
	}

	return ""
}

// ParseStopsFile reads one catalog CSV and returns the valid stops it
// contains. Rows missing a name or coordinates are dropped.
func ParseStopsFile(path string, brandOverride string) ([]cfdf.Stop, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	headerLine, err := bufio.NewReader(file).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}

	format := detectFormat(headerLine)

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.FieldsPerRecord = -1
		return r
	})

	var stops []cfdf.Stop

	switch format {
	case formatPilot:
		var rows []pilotRow
		if err := gocsv.Unmarshal(file, &rows); err != nil {
			return nil, err
		}

		brand := "Pilot"
		if brandOverride != "" {
			brand = brandOverride
		}

		for _, row := range rows {
			stop := buildStop(storeName(row.Name, row.StoreNumber, "Pilot"), brand,
				row.Address, row.City, row.State, row.Zip, row.Phone,
				row.Latitude, row.Longitude, true)
			if stop != nil {
				stops = append(stops, *stop)
			}
		}
	case formatLoves:
		var rows []lovesRow
		if err := gocsv.Unmarshal(file, &rows); err != nil {
			return nil, err
		}

		brand := "Love's"
		if brandOverride != "" {
			brand = brandOverride
		}

		for _, row := range rows {
			hasDiesel := true
			if strings.TrimSpace(row.Diesel) != "" {
				hasDiesel = parseBool(row.Diesel)
			}

			stop := buildStop(storeName(row.StoreName, row.StoreNumber, "Love's"), brand,
				row.Address, row.City, row.State, row.Zip, row.Phone,
				row.Latitude, row.Longitude, hasDiesel)
			if stop != nil {
				stops = append(stops, *stop)
			}
		}
	default:
		var rows []genericRow
		if err := gocsv.Unmarshal(file, &rows); err != nil {
			return nil, err
		}

		for _, row := range rows {
			brand := row.Brand
			if brandOverride != "" {
				brand = brandOverride
			}
			if brand == "" {
				brand = "Pilot"
			}

			hasDiesel := true
			if strings.TrimSpace(row.HasDiesel) != "" {
				hasDiesel = parseBool(row.HasDiesel)
			}

			stop := buildStop(row.Name, brand,
				row.Address, row.City, row.State, row.Zip, row.Phone,
				row.Latitude, row.Longitude, hasDiesel)
			if stop != nil {
				stops = append(stops, *stop)
			}
		}
	}

	return stops, nil
}

// ImportStopsFile parses the file and upserts its stops into the catalog.
func ImportStopsFile(path string, brandOverride string) (int, error) {
	stops, err := ParseStopsFile(path, brandOverride)
	if err != nil {
		return 0, err
	}

	catalog := database.StopCatalog{}
	if err := catalog.UpsertStops(stops); err != nil {
		return 0, err
	}

	log.Info().Str("file", path).Int("stops", len(stops)).Msg("Imported stop catalog file")

	return len(stops), nil
}

// AutoSeed imports any catalog CSVs found in the stops directory, but only
// when the catalog is empty. Lets a fresh deployment start without a manual
// import step.
func AutoSeed() error {
	catalog := database.StopCatalog{}

	count, err := catalog.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		log.Info().Int64("stops", count).Msg("Stop catalog already seeded")
		return nil
	}

	directory := "."
	env := util.GetEnvironmentVariables()
	if env["FLEETFUEL_STOPS_DIRECTORY"] != "" {
		directory = env["FLEETFUEL_STOPS_DIRECTORY"]
	}

	candidates := []struct {
		filename string
		brand    string
	}{
		{"all_stops.csv", ""},
		{"pilot_stops.csv", "Pilot"},
		{"loves_stops.csv", "Love's"},
		{"pilot.csv", "Pilot"},
		{"loves.csv", "Love's"},
	}

	seeded := 0
	for _, candidate := range candidates {
		path := filepath.Join(directory, candidate.filename)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		imported, err := ImportStopsFile(path, candidate.brand)
		if err != nil {
			log.Error().Str("file", path).Err(err).Msg("Failed to seed stop catalog file")
			continue
		}

		seeded += imported
	}

	if seeded == 0 {
		log.Warn().Msg("Stop catalog is empty and no seed files were found")
	}

	return nil
}
