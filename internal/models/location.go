package models

// Location holds the address fields shared by workers and markets
type Location struct {
	Address string  `bson:"address" json:"address"`
	City    string  `bson:"city" json:"city"`
	State   string  `bson:"state" json:"state"`
	ZipCode string  `bson:"zip_code" json:"zipCode"`
	Lat     float64 `bson:"lat" json:"lat"`
	Lng     float64 `bson:"lng" json:"lng"`
}

// DefaultCoordinates is the center of Sao Paulo, used when an address cannot be geocoded
var DefaultCoordinates = struct{ Lat, Lng float64 }{Lat: -23.5505, Lng: -46.6333}

// HasCoordinates reports whether lat/lng were set
func (l Location) HasCoordinates() bool {
	return l.Lat != 0 || l.Lng != 0
}

// GeocodeQuery builds the free-text address used for geocoding
func (l Location) GeocodeQuery() string {
	query := l.Address
	for _, part := range []string{l.City, l.State, l.ZipCode} {
		if part == "" {
			continue
		}
		if query != "" {
			query += ", "
		}
		query += part
	}
	if query != "" {
		query += ", Brasil"
	}
	return query
}
