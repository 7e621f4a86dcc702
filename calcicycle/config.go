// Package calcicycle runs the whole analysis for every cell-line column of a
// worksheet: background reduction, de-interleaving, ratio selection, peak
// detection and decay fitting.
package calcicycle

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"runtime"
	"strings"

	"github.com/carbocation/calcium/background"
	"github.com/carbocation/calcium/decay"
	"github.com/carbocation/calcium/peaks"
	"github.com/carbocation/calcium/ratio"
)

// ErrInvalidConfiguration is returned by Validate. Nothing is processed with
// an invalid configuration.
var ErrInvalidConfiguration = errors.New("invalid configuration")

type Config struct {
	Background background.Mode
	Lookahead  int
	Delta      float64
	Invert     bool
	RatioBy    ratio.Mode
	DecayStart float64
	DecayEnd   float64
	Bounds     bool

	// Limit > 0 processes only the first Limit wavelets of each column.
	Limit int

	Smoothing decay.Smoother

	// Workers bounds the number of columns processed at once. 0 means one
	// per CPU.
	Workers int

	// Logger receives data-quality notes. Nil discards them.
	Logger *log.Logger
}

func DefaultConfig() Config {
	def := decay.DefaultOptions()

	return Config{
		Background: background.Average,
		Lookahead:  30,
		Delta:      0,
		RatioBy:    ratio.Time,
		DecayStart: def.DecayStart,
		DecayEnd:   def.DecayEnd,
		Smoothing:  def.Smoothing,
	}
}

func (c Config) Validate() error {
	var problems []string

	if _, err := background.ParseMode(string(c.Background)); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := ratio.ParseMode(string(c.RatioBy)); err != nil {
		problems = append(problems, err.Error())
	}
	if err := (peaks.Params{Lookahead: c.Lookahead, Delta: c.Delta}).Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if !inUnit(c.DecayStart) || !inUnit(c.DecayEnd) {
		problems = append(problems, fmt.Sprintf("decaystart (%v) and decayend (%v) must lie in [0, 1]", c.DecayStart, c.DecayEnd))
	} else if c.DecayStart <= c.DecayEnd {
		problems = append(problems, fmt.Sprintf("decaystart (%v) must be greater than decayend (%v)", c.DecayStart, c.DecayEnd))
	}
	if c.Limit < 0 {
		problems = append(problems, fmt.Sprintf("limit must not be negative, got %d", c.Limit))
	}
	if c.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers must not be negative, got %d", c.Workers))
	}
	if err := validSmoother(c.Smoothing); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(problems, "; "))
	}

	return nil
}

func inUnit(v float64) bool { return v >= 0 && v <= 1 }

func validSmoother(s decay.Smoother) error {
	switch v := s.(type) {
	case decay.MovingAverage:
		if v.Width < 1 || v.Passes < 0 {
			return fmt.Errorf("smoothing width must be at least 1 and passes non-negative, got %d and %d", v.Width, v.Passes)
		}
	case decay.LowPass:
		if !(v.Cutoff > 0.0001 && v.Cutoff < math.Pi) {
			return fmt.Errorf("low-pass cutoff must lie in (0.0001, pi), got %v", v.Cutoff)
		}
	}
	return nil
}

// SmoothingSettings are the parameters NewSmoother draws on.
type SmoothingSettings struct {
	Kind   string
	Width  int
	Passes int
	Cutoff float64
}

func DefaultSmoothing() SmoothingSettings {
	return SmoothingSettings{Kind: "average", Width: 5, Passes: 2, Cutoff: 0.5}
}

// NewSmoother builds the smoother named kind: "average", "lowpass" or "none".
func NewSmoother(kind string, width, passes int, cutoff float64) (decay.Smoother, error) {
	switch strings.ToLower(kind) {
	case "average", "":
		return decay.MovingAverage{Width: width, Passes: passes}, nil
	case "lowpass":
		return decay.LowPass{Cutoff: cutoff}, nil
	case "none":
		return decay.None{}, nil
	}
	return nil, fmt.Errorf("%w: unknown smoothing %q", ErrInvalidConfiguration, kind)
}

func (c Config) selector() ratio.Selector {
	return ratio.Selector{
		Mode:   c.RatioBy,
		Invert: c.Invert,
		Peaks:  c.peakParams(),
		Limit:  c.Limit,
	}
}

func (c Config) peakParams() peaks.Params {
	return peaks.Params{Lookahead: c.Lookahead, Delta: c.Delta}
}

func (c Config) decayOptions() decay.Options {
	opts := decay.DefaultOptions()
	opts.DecayStart, opts.DecayEnd = c.DecayStart, c.DecayEnd
	opts.Bounds = c.Bounds
	if c.Smoothing != nil {
		opts.Smoothing = c.Smoothing
	}
	return opts
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

func (c Config) logger() *log.Logger {
	if c.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return c.Logger
}
