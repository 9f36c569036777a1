package telemetry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fleetfuel/fleetfuel/pkg/cfdf"
	"github.com/fleetfuel/fleetfuel/pkg/util"
)

const defaultBaseURL = "https://api.samsara.com"

// SamsaraClient reads the fleet's live positions, fuel levels, and driver
// assignments. CombinedSnapshots makes three API calls per cycle regardless
// of fleet size.
type SamsaraClient struct {
	APIToken string
	BaseURL  string

	httpClient *http.Client
}

func NewSamsaraClient() *SamsaraClient {
	env := util.GetEnvironmentVariables()

	token := env["FLEETFUEL_SAMSARA_API_TOKEN"]
	if token == "" {
		token = env["SAMSARA_API_TOKEN"]
	}

	baseURL := defaultBaseURL
	if env["FLEETFUEL_SAMSARA_BASE_URL"] != "" {
		baseURL = env["FLEETFUEL_SAMSARA_BASE_URL"]
	}

	return &SamsaraClient{
		APIToken: token,
		BaseURL:  baseURL,

		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type locationsResponse struct {
	Data []struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Location struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
			Heading   float64  `json:"heading"`
			Speed     float64  `json:"speed"`
		} `json:"location"`
	} `json:"data"`
}

type statsResponse struct {
	Data []struct {
		ID           string `json:"id"`
		FuelPercents []struct {
			Value float64 `json:"value"`
			Time  string  `json:"time"`
		} `json:"fuelPercents"`
	} `json:"data"`
}

type driversResponse struct {
	Data []struct {
		Name           string `json:"name"`
		CurrentVehicle *struct {
			ID string `json:"id"`
		} `json:"currentVehicle"`
	} `json:"data"`
}

func (c *SamsaraClient) get(path string, query url.Values, target interface{}) error {
	requestURL := c.BaseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequest("GET", requestURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("samsara request %s returned %s", path, resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(target)
}

// fuelLevels returns the latest fuel percent per vehicle. The history
// endpoint with a short lookback is more reliable than the feed endpoint,
// which streams events and can miss vehicles that haven't reported recently.
func (c *SamsaraClient) fuelLevels() (map[string]float64, error) {
	endTime := time.Now().UTC()
	startTime := endTime.Add(-2 * time.Hour)

	var stats statsResponse
	err := c.get("/fleet/vehicles/stats/history", url.Values{
		"types":     {"fuelPercents"},
		"startTime": {startTime.Format(time.RFC3339)},
		"endTime":   {endTime.Format(time.RFC3339)},
	}, &stats)

	if err != nil {
		log.Warn().Err(err).Msg("Stats history failed, falling back to feed")

		stats = statsResponse{}
		err = c.get("/fleet/vehicles/stats/feed", url.Values{
			"types": {"fuelPercents"},
		}, &stats)
		if err != nil {
			return nil, err
		}
	}

	fuelMap := map[string]float64{}
	for _, record := range stats.Data {
		if record.ID == "" {
			continue
		}

		latest := ""
		value := 100.0
		for _, reading := range record.FuelPercents {
			if reading.Time >= latest {
				latest = reading.Time
				value = reading.Value
			}
		}

		fuelMap[record.ID] = value
	}

	return fuelMap, nil
}

// driverAssignments maps vehicle id to the name of its currently active
// driver, in a single batch call.
func (c *SamsaraClient) driverAssignments() map[string]string {
	var drivers driversResponse
	err := c.get("/fleet/drivers", url.Values{
		"driverActivationStatus": {"active"},
	}, &drivers)
	if err != nil {
		log.Warn().Err(err).Msg("Could not fetch driver assignments")
		return map[string]string{}
	}

	assignments := map[string]string{}
	for _, driver := range drivers.Data {
		if driver.CurrentVehicle != nil && driver.CurrentVehicle.ID != "" {
			assignments[driver.CurrentVehicle.ID] = driver.Name
		}
	}

	return assignments
}

// CombinedSnapshots merges locations, fuel levels, and driver assignments
// into one snapshot per vehicle. Vehicles with no reported coordinates are
// dropped. A vehicle missing from the fuel stats is assumed full.
func (c *SamsaraClient) CombinedSnapshots() ([]cfdf.VehicleSnapshot, error) {
	var locations locationsResponse
	if err := c.get("/fleet/vehicles/locations", nil, &locations); err != nil {
		return nil, err
	}

	fuelMap, err := c.fuelLevels()
	if err != nil {
		return nil, err
	}

	driverMap := c.driverAssignments()

	var snapshots []cfdf.VehicleSnapshot
	for _, vehicle := range locations.Data {
		if vehicle.Location.Latitude == nil || vehicle.Location.Longitude == nil {
			continue
		}

		name := vehicle.Name
		if name == "" {
			name = vehicle.ID
		}

		fuelPercent, found := fuelMap[vehicle.ID]
		if !found {
			fuelPercent = 100.0
		}

		snapshots = append(snapshots, cfdf.VehicleSnapshot{
			VehicleID:   vehicle.ID,
			VehicleName: name,
			DriverName:  driverMap[vehicle.ID],

			Latitude:  *vehicle.Location.Latitude,
			Longitude: *vehicle.Location.Longitude,
			Heading:   vehicle.Location.Heading,
			SpeedMPH:  vehicle.Location.Speed,

			FuelPercent: fuelPercent,
		})
	}

	return snapshots, nil
}
