// Package config loads and validates the spectrum core's parameter surface
// (§6): the JSON-serialisable configuration recognised by a DSP stream,
// independent of the transient, thread-confined working state it drives.
package config

// Config is the full recognised parameter surface for one spectrum stream
// (§6's table). JSON tags mirror the field names a host or preset file
// would use.
type Config struct {
	Algorithm string `json:"algorithm"` // "fft" or "resonator"

	Configuration string `json:"configuration"` // ChannelConfig variant name
	DSPWindow     string `json:"dsp_window"`    // window function selector
	BinPolation   string `json:"bin_polation"`  // "none", "linear", or "lanczos"

	AxisPoints int `json:"axis_points"` // >= 2
	WindowSize int `json:"window_size"` // >= 1

	BlobSizeMs float64 `json:"blob_size_ms"`

	LowDbs  float64 `json:"low_dbs"`
	HighDbs float64 `json:"high_dbs"`

	ViewScale string  `json:"view_scale"` // "linear" or "logarithmic"
	ViewLeft  float64 `json:"view_left"`
	ViewSize  float64 `json:"view_size"`
	MinFreq   float64 `json:"min_freq"`

	SlopeA float64 `json:"slope_a"`
	SlopeB float64 `json:"slope_b"`

	FrequencyTrackingGraph int `json:"frequency_tracking_graph"`

	Resonators []ResonatorBand `json:"resonators,omitempty"`
}

// ResonatorBand describes one entry of a Resonator-algorithm configuration's
// frequency bank, read from the same file when Algorithm == "resonator".
type ResonatorBand struct {
	Frequency float64 `json:"frequency"`
	Bandwidth float64 `json:"bandwidth"`
}
