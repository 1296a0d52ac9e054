package config

import "fmt"

// ValidAlgorithms contains the recognised `algorithm` values.
var ValidAlgorithms = map[string]bool{
	"fft":       true,
	"resonator": true,
}

// ValidConfigurations contains the recognised `configuration` (ChannelConfig) values.
var ValidConfigurations = map[string]bool{
	"left": true, "right": true, "mid": true, "side": true, "merge": true,
	"midside": true, "separate": true, "phase": true, "complex": true,
}

// ValidWindows contains the recognised `dsp_window` values.
var ValidWindows = map[string]bool{
	"rectangular": true, "hann": true, "hamming": true, "kaiser": true,
}

// ValidInterpolations contains the recognised `bin_polation` values.
var ValidInterpolations = map[string]bool{
	"none": true, "linear": true, "lanczos": true,
}

// ValidViewScales contains the recognised `view_scale` values.
var ValidViewScales = map[string]bool{
	"linear": true, "logarithmic": true,
}

// Validate checks that the configuration is self-consistent per §6's
// parameter surface.
func Validate(cfg *Config) error {
	if err := validateEnums(cfg); err != nil {
		return err
	}
	if err := validateSizes(cfg); err != nil {
		return err
	}
	if err := validateResonators(cfg); err != nil {
		return err
	}
	return nil
}

func validateEnums(cfg *Config) error {
	if !ValidAlgorithms[cfg.Algorithm] {
		return fmt.Errorf("invalid algorithm '%s' (valid: fft, resonator)", cfg.Algorithm)
	}
	if !ValidConfigurations[cfg.Configuration] {
		return fmt.Errorf("invalid configuration '%s' (valid: left, right, mid, side, merge, midside, separate, phase, complex)", cfg.Configuration)
	}
	if !ValidWindows[cfg.DSPWindow] {
		return fmt.Errorf("invalid dsp_window '%s' (valid: rectangular, hann, hamming, kaiser)", cfg.DSPWindow)
	}
	if !ValidInterpolations[cfg.BinPolation] {
		return fmt.Errorf("invalid bin_polation '%s' (valid: none, linear, lanczos)", cfg.BinPolation)
	}
	if !ValidViewScales[cfg.ViewScale] {
		return fmt.Errorf("invalid view_scale '%s' (valid: linear, logarithmic)", cfg.ViewScale)
	}
	return nil
}

func validateSizes(cfg *Config) error {
	if cfg.AxisPoints < 2 {
		return fmt.Errorf("axis_points must be >= 2 (got %d)", cfg.AxisPoints)
	}
	if cfg.WindowSize < 1 {
		return fmt.Errorf("window_size must be >= 1 (got %d)", cfg.WindowSize)
	}
	if cfg.BlobSizeMs < 0 {
		return fmt.Errorf("blob_size_ms must be >= 0 (got %f)", cfg.BlobSizeMs)
	}
	if cfg.HighDbs <= cfg.LowDbs {
		return fmt.Errorf("high_dbs (%f) must be greater than low_dbs (%f)", cfg.HighDbs, cfg.LowDbs)
	}
	if cfg.ViewScale == "logarithmic" && cfg.MinFreq <= 0 {
		return fmt.Errorf("min_freq must be positive for logarithmic view scale (got %f)", cfg.MinFreq)
	}
	return nil
}

func validateResonators(cfg *Config) error {
	if cfg.Algorithm != "resonator" {
		return nil
	}
	if len(cfg.Resonators) == 0 {
		return fmt.Errorf("resonator algorithm requires at least one entry in resonators")
	}
	for i, band := range cfg.Resonators {
		if band.Frequency <= 0 {
			return fmt.Errorf("resonators[%d]: frequency must be positive (got %f)", i, band.Frequency)
		}
		if band.Bandwidth <= 0 {
			return fmt.Errorf("resonators[%d]: bandwidth must be positive (got %f)", i, band.Bandwidth)
		}
	}
	return nil
}
