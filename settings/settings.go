package settings

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/oomph-ac/clicktest/oerror"
	"github.com/pelletier/go-toml"
)

// Settings contains everything that can be configured for click tests.
type Settings struct {
	// NotifyTarget is whether the subject of a click test should be told that their attack timing is
	// being sampled.
	NotifyTarget bool `toml:"notify_target"`
	// Debug enables the debug-level evidence trace for every finished window.
	Debug bool `toml:"debug"`
	// StatsViewAddr is the address the runtime stats viewer listens on, if enabled.
	StatsViewAddr string `toml:"statsview_addr"`

	Thresholds Thresholds `toml:"thresholds"`
}

// Thresholds is a snapshot of every numeric cutoff used to sample and classify a click test. A snapshot
// is read-only for the duration of one window.
type Thresholds struct {
	// WindowSeconds is the length of one observation window.
	WindowSeconds int `toml:"window_seconds"`
	// TickSizeMs is the size of a coalesce tick. Events within the same tick are counted once.
	TickSizeMs int64 `toml:"tick_size_ms"`
	// BinWidthMs is the width of the bins intervals are sorted into for the duplicate-interval ratio.
	BinWidthMs float64 `toml:"bin_width_ms"`

	// CPSMin and CPSMax bound the click rate the soft rules consider plausible.
	CPSMin float64 `toml:"cps_min"`
	CPSMax float64 `toml:"cps_max"`

	CVSuspicious  float64 `toml:"cv_suspicious"`
	CVBorderline  float64 `toml:"cv_borderline"`
	DupSuspicious float64 `toml:"duplicate_ratio_suspicious"`
	DupBorderline float64 `toml:"duplicate_ratio_borderline"`
	MinIntervals  int     `toml:"min_intervals"`

	// HardDuplicateRatio and HardMinIntervals configure the rate-independent periodicity rule.
	HardDuplicateRatio float64 `toml:"duplicate_ratio_hard"`
	HardMinIntervals   int     `toml:"hard_min_intervals"`

	// StrongCV, StrongDuplicateRatio and StrongMinIntervals configure the rate-independent rule for very
	// regular timing.
	StrongCV             float64 `toml:"cv_strong"`
	StrongDuplicateRatio float64 `toml:"duplicate_ratio_strong"`
	StrongMinIntervals   int     `toml:"strong_min_intervals"`
}

// DefaultSettings returns the default settings.
func DefaultSettings() Settings {
	return Settings{
		NotifyTarget:  true,
		StatsViewAddr: "localhost:18066",
		Thresholds:    DefaultThresholds(),
	}
}

// DefaultThresholds returns the default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WindowSeconds: 30,
		TickSizeMs:    50,
		BinWidthMs:    50,

		CPSMin: 3.0,
		CPSMax: 9.0,

		CVSuspicious:  0.08,
		CVBorderline:  0.10,
		DupSuspicious: 0.60,
		DupBorderline: 0.50,
		MinIntervals:  20,

		HardDuplicateRatio: 0.995,
		HardMinIntervals:   12,

		StrongCV:             0.05,
		StrongDuplicateRatio: 0.90,
		StrongMinIntervals:   16,
	}
}

// Window returns the length of an observation window.
func (t Thresholds) Window() time.Duration {
	return time.Duration(t.WindowSeconds) * time.Second
}

// TickSize returns the size of a coalesce tick.
func (t Thresholds) TickSize() time.Duration {
	return time.Duration(t.TickSizeMs) * time.Millisecond
}

// Validate returns an error wrapping oerror.ErrInvalidThresholds if any value is non-finite, out of
// range, or if a range is inverted.
func (t Thresholds) Validate() error {
	floats := []struct {
		name string
		v    float64
	}{
		{"bin_width_ms", t.BinWidthMs},
		{"cps_min", t.CPSMin},
		{"cps_max", t.CPSMax},
		{"cv_suspicious", t.CVSuspicious},
		{"cv_borderline", t.CVBorderline},
		{"duplicate_ratio_suspicious", t.DupSuspicious},
		{"duplicate_ratio_borderline", t.DupBorderline},
		{"duplicate_ratio_hard", t.HardDuplicateRatio},
		{"cv_strong", t.StrongCV},
		{"duplicate_ratio_strong", t.StrongDuplicateRatio},
	}
	for _, f := range floats {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return invalid("%s is not finite (%v)", f.name, f.v)
		}
		if f.v < 0 {
			return invalid("%s must not be negative (%v)", f.name, f.v)
		}
	}

	for _, r := range []struct {
		name string
		v    float64
	}{
		{"duplicate_ratio_suspicious", t.DupSuspicious},
		{"duplicate_ratio_borderline", t.DupBorderline},
		{"duplicate_ratio_hard", t.HardDuplicateRatio},
		{"duplicate_ratio_strong", t.StrongDuplicateRatio},
	} {
		if r.v > 1 {
			return invalid("%s must be within [0, 1] (%v)", r.name, r.v)
		}
	}

	switch {
	case t.WindowSeconds <= 0:
		return invalid("window_seconds must be positive (%d)", t.WindowSeconds)
	case t.TickSizeMs <= 0:
		return invalid("tick_size_ms must be positive (%d)", t.TickSizeMs)
	case t.BinWidthMs <= 0:
		return invalid("bin_width_ms must be positive (%v)", t.BinWidthMs)
	case t.MinIntervals < 0 || t.HardMinIntervals < 0 || t.StrongMinIntervals < 0:
		return invalid("interval counts must not be negative")
	case t.CPSMin > t.CPSMax:
		return invalid("cps_min (%v) is greater than cps_max (%v)", t.CPSMin, t.CPSMax)
	case t.CVSuspicious > t.CVBorderline:
		return invalid("cv_suspicious (%v) is greater than cv_borderline (%v)", t.CVSuspicious, t.CVBorderline)
	case t.DupSuspicious < t.DupBorderline:
		return invalid("duplicate_ratio_suspicious (%v) is lower than duplicate_ratio_borderline (%v)", t.DupSuspicious, t.DupBorderline)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", oerror.ErrInvalidThresholds, fmt.Sprintf(format, args...))
}

// SaveDefault will create and save the default settings file. If the file already exists, it will return an error.
func SaveDefault(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return errors.New("settings file already exists")
	}
	data, err := toml.Marshal(DefaultSettings())
	if err != nil {
		return fmt.Errorf("failed encoding default settings: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed creating settings file: %v", err)
	}
	return nil
}

// Load will load the settings from your settings file, and return an error if the file does not exist or
// the thresholds in it are invalid.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Settings{}, errors.New("settings file doesn't exist")
	} else if err != nil {
		return Settings{}, fmt.Errorf("error reading config: %v", err)
	}

	s := DefaultSettings()
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("error decoding config: %v", err)
	}
	if err := s.Thresholds.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}
