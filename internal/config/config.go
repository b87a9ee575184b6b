// Package config loads application configuration from a TOML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all configurable options. Every field has a working default
// so a missing config file is not an error.
type Config struct {
	OCR      OCRConfig      `toml:"ocr"`
	Image    ImageConfig    `toml:"image"`
	Export   ExportConfig   `toml:"export"`
	Calendar CalendarConfig `toml:"calendar"`
}

// OCRConfig configures the text-recognition engine and extractor.
type OCRConfig struct {
	// UseAcceleratedEngine selects the LSTM engine mode instead of the
	// legacy engine. Faster on machines with the neural nets data installed.
	UseAcceleratedEngine bool `toml:"use_accelerated_engine"`

	// ConfidenceThreshold discards recognized tokens below this value (0-1)
	// before field parsing.
	ConfidenceThreshold float64 `toml:"confidence_threshold"`

	// Timeout bounds a single recognition call. A timed-out cell yields an
	// empty text observation instead of stalling the image.
	Timeout duration `toml:"timeout"`

	// Languages passed to the engine, in priority order.
	Languages []string `toml:"languages"`
}

// ImageConfig holds segmentation and classification thresholds.
type ImageConfig struct {
	MinCellArea          int     `toml:"min_cell_area"`
	MinDotArea           int     `toml:"min_dot_area"`
	CircularityThreshold float64 `toml:"circularity_threshold"`
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	DefaultFormat string `toml:"default_format"`
	DefaultDir    string `toml:"default_dir"`
}

// CalendarConfig points at the holiday/workday-override file.
type CalendarConfig struct {
	HolidayConfig string `toml:"holiday_config"`
}

// duration wraps time.Duration for TOML strings like "10s".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// Duration returns the wrapped time.Duration.
func (d duration) Duration() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OCR: OCRConfig{
			UseAcceleratedEngine: false,
			ConfidenceThreshold:  0.5,
			Timeout:              duration(10 * time.Second),
			Languages:            []string{"chi_sim", "eng"},
		},
		Image: ImageConfig{
			MinCellArea:          100,
			MinDotArea:           10,
			CircularityThreshold: 0.7,
		},
		Export: ExportConfig{
			DefaultFormat: "xlsx",
			DefaultDir:    "exports",
		},
		Calendar: CalendarConfig{
			HolidayConfig: "config/holidays.json",
		},
	}
}

// Load reads a TOML config file, layering it over the defaults. A missing
// file returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.OCR.ConfidenceThreshold < 0 || cfg.OCR.ConfidenceThreshold > 1 {
		return cfg, fmt.Errorf("confidence_threshold must be in [0,1], got %g", cfg.OCR.ConfidenceThreshold)
	}
	return cfg, nil
}
