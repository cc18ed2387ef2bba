package wardrobe

// Recommendation kinds. Structured carries the three advice sections; plain
// carries only the localized apology text used when generation fails
// entirely. The discriminator spares callers from sniffing strings for
// JSON-ness.
const (
	KindStructured = "structured"
	KindPlain      = "plain"
)

// Recommendation is the tagged result of clothing advice generation.
type Recommendation struct {
	Kind        string `json:"kind"`
	Main        string `json:"main,omitempty"`
	Accessories string `json:"accessories,omitempty"`
	Tips        string `json:"tips,omitempty"`
	Text        string `json:"text,omitempty"`
}

// Config wires runtime dependencies for the recommendation stage.
type Config struct {
	Model       string
	Temperature float32
}
