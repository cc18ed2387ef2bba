package intent

// Intent is the normalized (location, date, time) triple extracted from a
// free form query. Empty Date/Time mean "not specified" and default to "now"
// downstream.
type Intent struct {
	Location string
	Date     string // YYYY-MM-DD
	Time     string // HH:mm, 24h
}

// Config wires runtime dependencies for the extraction stage.
type Config struct {
	Model       string
	Temperature float32
}
