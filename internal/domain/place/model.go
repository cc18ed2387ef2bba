package place

// Coordinates identifies a resolved location usable by the weather provider.
type Coordinates struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
}

// Fallback is substituted whenever geocoding fails or finds nothing, so
// downstream stages never branch on missing coordinates.
func Fallback() Coordinates {
	return Coordinates{Lat: 35.6762, Lon: 139.6503, Name: "Tokyo", Country: "JP"}
}
