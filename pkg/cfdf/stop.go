package cfdf

import "time"

// Stop is one entry in the fuel stop catalog. Catalog data is immutable
// reference data seeded by the data importer.
type Stop struct {
	ID    string `bson:"_id"`
	Name  string
	Brand string

	Address string
	City    string
	State   string
	Zip     string
	Phone   string

	Latitude  float64
	Longitude float64

	HasDiesel bool

	CreationDateTime time.Time
}
