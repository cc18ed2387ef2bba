package forecast

import "time"

// Weather is the canonical record every weather source is normalized into.
type Weather struct {
	Temperature int    `json:"temperature"`
	Condition   string `json:"condition"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Humidity    int    `json:"humidity"`
	WindSpeed   int    `json:"windSpeed"`
	// Precipitation is always a 0-100 value, but its meaning differs by
	// source path: probability of precipitation on the forecast path,
	// cloud-cover percentage used as a proxy on the current path.
	Precipitation float64 `json:"precipitation"`
}

// Target names the requested moment. Empty fields mean "now".
type Target struct {
	Date string // YYYY-MM-DD
	Time string // HH:mm, 24h
}

// Observation is a provider "current conditions" reading before rounding.
type Observation struct {
	Temperature float64
	Condition   string
	Description string
	Icon        string
	Humidity    int
	WindSpeed   float64
	Clouds      int
}

// Bucket is one 3-hour forecast entry in a chronologically ordered series.
type Bucket struct {
	At          time.Time
	Temperature float64
	Condition   string
	Description string
	Icon        string
	Humidity    int
	WindSpeed   float64
	// POP is the provider probability of precipitation on a 0-1 scale.
	POP float64
}

// Series is the provider forecast response for one coordinate pair.
type Series struct {
	Buckets []Bucket
}

// City is a fixed overview entry.
type City struct {
	Name   string
	NameJa string
	Lat    float64
	Lon    float64
}

// CitySummary is the per-city payload of the overview endpoint.
type CitySummary struct {
	Name        string `json:"name"`
	NameJa      string `json:"nameJa"`
	Temperature int    `json:"temperature"`
	Condition   string `json:"condition"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Detailed combines current conditions with the next 24h of buckets.
type Detailed struct {
	Name   string `json:"name"`
	NameJa string `json:"nameJa"`
	Weather
	Forecast []Weather `json:"forecast"`
}
