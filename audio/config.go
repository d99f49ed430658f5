package audio

import (
	"os"
	"strconv"
)

// Config controls the engine. Zero-value fields fall back to defaults
// at Start.
type Config struct {
	Enabled      bool
	MasterVolume float64 // 0.0-1.0
	SoundDir     string  // asset root; also the path segment names are relative to
	MaxSources   int     // soft cap on concurrently allocated channels
	SampleRate   int
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:      true,
		MasterVolume: 1.0,
		SoundDir:     "sounds",
		MaxSources:   255,
		SampleRate:   defaultSampleRate,
	}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	cfg := DefaultConfig()

	if enabled := os.Getenv("SOUNDFIELD_ENABLED"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.Enabled = val
		}
	}

	// Master volume (0-100 converted to 0.0-1.0)
	if volume := os.Getenv("SOUNDFIELD_MASTER_VOLUME"); volume != "" {
		if val, err := strconv.Atoi(volume); err == nil {
			cfg.MasterVolume = float64(val) / 100.0
			if cfg.MasterVolume < 0 {
				cfg.MasterVolume = 0
			}
			if cfg.MasterVolume > 1 {
				cfg.MasterVolume = 1
			}
		}
	}

	if dir := os.Getenv("SOUNDFIELD_SOUND_DIR"); dir != "" {
		cfg.SoundDir = dir
	}

	if sources := os.Getenv("SOUNDFIELD_MAX_SOURCES"); sources != "" {
		if val, err := strconv.Atoi(sources); err == nil && val > 0 {
			cfg.MaxSources = val
		}
	}

	if sampleRate := os.Getenv("SOUNDFIELD_SAMPLE_RATE"); sampleRate != "" {
		if val, err := strconv.Atoi(sampleRate); err == nil && val > 0 {
			cfg.SampleRate = val
		}
	}

	return cfg
}
