package config

const (
	// DefaultAxisPoints is a common logical frequency-axis resolution.
	DefaultAxisPoints = 256

	// DefaultWindowSize is a common analysis window length in samples.
	DefaultWindowSize = 2048

	// DefaultBlobSizeMs is the default frame cadence: 720 samples at 48 kHz
	// via B = max(10, floor(blobSizeMs*0.001*sampleRate)); the floor of 10
	// samples only applies at very low sample rates.
	DefaultBlobSizeMs = 15.0

	DefaultLowDbs  = -90.0
	DefaultHighDbs = 0.0

	DefaultMinFreq = 10.0

	DefaultViewSize = 1.0
)

// Default returns a configuration with sensible defaults: FFT algorithm,
// Merge channel fan-in, Hann window, linear bin interpolation, logarithmic
// view scale spanning the whole visible range.
func Default() *Config {
	return &Config{
		Algorithm:     "fft",
		Configuration: "merge",
		DSPWindow:     "hann",
		BinPolation:   "linear",
		AxisPoints:    DefaultAxisPoints,
		WindowSize:    DefaultWindowSize,
		BlobSizeMs:    DefaultBlobSizeMs,
		LowDbs:        DefaultLowDbs,
		HighDbs:       DefaultHighDbs,
		ViewScale:     "logarithmic",
		ViewLeft:      0,
		ViewSize:      DefaultViewSize,
		MinFreq:       DefaultMinFreq,
		SlopeA:        0,
		SlopeB:        1,
	}
}

// applyDefaults fills zero-valued fields of cfg from Default(), so a
// partially-specified preset only needs to mention the fields it overrides.
func applyDefaults(cfg *Config) {
	d := Default()

	if cfg.Algorithm == "" {
		cfg.Algorithm = d.Algorithm
	}
	if cfg.Configuration == "" {
		cfg.Configuration = d.Configuration
	}
	if cfg.DSPWindow == "" {
		cfg.DSPWindow = d.DSPWindow
	}
	if cfg.BinPolation == "" {
		cfg.BinPolation = d.BinPolation
	}
	if cfg.AxisPoints == 0 {
		cfg.AxisPoints = d.AxisPoints
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = d.WindowSize
	}
	if cfg.BlobSizeMs == 0 {
		cfg.BlobSizeMs = d.BlobSizeMs
	}
	if cfg.LowDbs == 0 && cfg.HighDbs == 0 {
		cfg.LowDbs, cfg.HighDbs = d.LowDbs, d.HighDbs
	}
	if cfg.ViewScale == "" {
		cfg.ViewScale = d.ViewScale
	}
	if cfg.ViewSize == 0 {
		cfg.ViewSize = d.ViewSize
	}
	if cfg.MinFreq == 0 {
		cfg.MinFreq = d.MinFreq
	}
	if cfg.SlopeB == 0 {
		cfg.SlopeB = d.SlopeB
	}
}
