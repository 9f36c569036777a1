package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/geomath"
)

// WakeRefuelDeltaPct is how many percentage points fuel must rise over the
// parked reading before a wake-up counts as a refuel. A fixed heuristic, not
// derived from anything - tune here if it misclassifies.
const WakeRefuelDeltaPct = 5.0

// HealthyFuelPct separates HEALTHY from WATCH once fuel is above the alert
// threshold.
const HealthyFuelPct = 50.0

const maxYardSlots = 20

type Config struct {
	FuelAlertThresholdPct float64

	PilotRadiusMiles    float64
	LovesRadiusMiles    float64
	ExtendedRadiusMiles float64

	MovingSpeedMPH    float64
	AtStopRadiusMiles float64
	VisitRadiusMiles  float64

	SkipDetectionWindow time.Duration

	PollIntervalHealthy        time.Duration
	PollIntervalWatch          time.Duration
	PollIntervalCriticalMoving time.Duration
	PollIntervalCriticalParked time.Duration

	Yards []cfdf.Yard
}

// Load reads the full configuration from environment variables, applying
// defaults for anything unset. Invalid yard definitions are skipped with a
// warning - a bad entry never fails the load.
func Load() Config {
	c := Config{
		FuelAlertThresholdPct: envFloat("FUEL_ALERT_THRESHOLD_PCT", 30),

		PilotRadiusMiles:    envFloat("PILOT_RADIUS_MILES", 50),
		LovesRadiusMiles:    envFloat("LOVES_RADIUS_MILES", 50),
		ExtendedRadiusMiles: envFloat("EXTENDED_RADIUS_MILES", 80),

		MovingSpeedMPH:    envFloat("MOVING_SPEED_MPH", 5),
		AtStopRadiusMiles: envFloat("AT_STOP_RADIUS_MILES", 0.15),
		VisitRadiusMiles:  envFloat("VISIT_RADIUS_MILES", 0.5),

		SkipDetectionWindow: time.Duration(envInt("SKIP_DETECTION_HOURS", 10)) * time.Hour,

		PollIntervalHealthy:        time.Duration(envInt("POLL_INTERVAL_HEALTHY", 60)) * time.Minute,
		PollIntervalWatch:          time.Duration(envInt("POLL_INTERVAL_WATCH", 20)) * time.Minute,
		PollIntervalCriticalMoving: time.Duration(envInt("POLL_INTERVAL_CRITICAL_MOVING", 10)) * time.Minute,
		PollIntervalCriticalParked: time.Duration(envInt("POLL_INTERVAL_CRITICAL_PARKED", 60)) * time.Minute,
	}

	c.Yards = loadYards()

	warnOverlappingYards(c.Yards)

	return c
}

// loadYards reads YARD_1..YARD_19 entries in Name:lat:lng:radius_miles
// format, plus an optional YAML file of yard definitions via YARDS_FILE.
func loadYards() []cfdf.Yard {
	var yards []cfdf.Yard

	for i := 1; i < maxYardSlots; i++ {
		value := strings.TrimSpace(os.Getenv(fmt.Sprintf("YARD_%d", i)))
		if value == "" {
			continue
		}

		yard, err := parseYard(value)
		if err != nil {
			log.Warn().Str("entry", value).Err(err).Msg("Skipping invalid yard definition")
			continue
		}

		yards = append(yards, yard)
	}

	if yardsFile := os.Getenv("YARDS_FILE"); yardsFile != "" {
		fileYards, err := loadYardsFile(yardsFile)
		if err != nil {
			log.Warn().Str("file", yardsFile).Err(err).Msg("Skipping unreadable yards file")
		} else {
			yards = append(yards, fileYards...)
		}
	}

	return yards
}

func parseYard(value string) (cfdf.Yard, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 4 {
		return cfdf.Yard{}, fmt.Errorf("expected 4 fields, got %d", len(parts))
	}

	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return cfdf.Yard{}, err
	}
	lng, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return cfdf.Yard{}, err
	}
	radiusMiles, err := strconv.ParseFloat(parts[3], 64)
	if err != nil {
		return cfdf.Yard{}, err
	}
	if radiusMiles <= 0 {
		return cfdf.Yard{}, fmt.Errorf("radius must be positive, got %f", radiusMiles)
	}

	return cfdf.Yard{
		Name:        strings.TrimSpace(parts[0]),
		Latitude:    lat,
		Longitude:   lng,
		RadiusMiles: radiusMiles,
	}, nil
}

func loadYardsFile(path string) ([]cfdf.Yard, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var yards []cfdf.Yard
	if err := yaml.Unmarshal(contents, &yards); err != nil {
		return nil, err
	}

	valid := yards[:0]
	for _, yard := range yards {
		if yard.RadiusMiles <= 0 {
			log.Warn().Str("yard", yard.Name).Msg("Skipping yard with non-positive radius")
			continue
		}
		valid = append(valid, yard)
	}

	return valid, nil
}

// Overlap between yards is resolved first-match-in-order, which is easy to
// get wrong silently. Surface it at load time.
func warnOverlappingYards(yards []cfdf.Yard) {
	for i := 0; i < len(yards); i++ {
		for j := i + 1; j < len(yards); j++ {
			distance := geomath.DistanceMiles(
				yards[i].Latitude, yards[i].Longitude,
				yards[j].Latitude, yards[j].Longitude,
			)

			if distance < yards[i].RadiusMiles+yards[j].RadiusMiles {
				log.Warn().
					Str("yard", yards[i].Name).
					Str("overlaps", yards[j].Name).
					Msg("Yard geofences overlap - first match in order wins")
			}
		}
	}
}

func envFloat(name string, fallback float64) float64 {
	if value := os.Getenv(name); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}

		log.Warn().Str("name", name).Str("value", value).Msg("Ignoring unparseable numeric variable")
	}

	return fallback
}

func envInt(name string, fallback int) int {
	if value := os.Getenv(name); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}

		log.Warn().Str("name", name).Str("value", value).Msg("Ignoring unparseable numeric variable")
	}

	return fallback
}
