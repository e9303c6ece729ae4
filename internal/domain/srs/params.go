package srs

import "github.com/phrazzld/verbdrill/internal/domain"

// TimeFactor scales an interval for answers faster than MaxSeconds.
// Factors are checked in order; the first match wins.
type TimeFactor struct {
	MaxSeconds float64
	Factor     float64
}

// Params defines all configurable parameters for the scheduling algorithm
type Params struct {
	// Core limits
	MinEaseFactor     float64
	DefaultEaseFactor float64
	MaxIntervalDays   int

	// Intervals used for the first two successful repetitions
	FirstInterval  int
	SecondInterval int

	// Response-time adjustment. SlowFactor applies when no TimeFactor matches.
	TimeFactors []TimeFactor
	SlowFactor  float64

	// MaxHistory bounds the stored quality history; 0 keeps everything.
	MaxHistory int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	MinEaseFactor     float64
	DefaultEaseFactor float64
	MaxIntervalDays   int
	MaxHistory        int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:     domain.MinEaseFactor,
		DefaultEaseFactor: domain.DefaultEaseFactor,
		MaxIntervalDays:   domain.MaxIntervalDays,

		FirstInterval:  1,
		SecondInterval: 6,

		TimeFactors: []TimeFactor{
			{MaxSeconds: 2, Factor: 1.2},
			{MaxSeconds: 5, Factor: 1.1},
			{MaxSeconds: 10, Factor: 1.0},
			{MaxSeconds: 20, Factor: 0.9},
		},
		SlowFactor: 0.8,

		MaxHistory: 0,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero values keep the defaults. The ease floor can be raised but never
// lowered below 1.3, and the interval cap never exceeds 365 days.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > domain.MinEaseFactor {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.DefaultEaseFactor > 0 {
		params.DefaultEaseFactor = config.DefaultEaseFactor
	}
	if params.DefaultEaseFactor < params.MinEaseFactor {
		params.DefaultEaseFactor = params.MinEaseFactor
	}
	if config.MaxIntervalDays > 0 && config.MaxIntervalDays < domain.MaxIntervalDays {
		params.MaxIntervalDays = config.MaxIntervalDays
	}
	if config.MaxHistory > 0 {
		params.MaxHistory = config.MaxHistory
	}

	return params
}

// timeFactor returns the interval multiplier for a response time.
func (p *Params) timeFactor(responseTimeSeconds float64) float64 {
	for _, tf := range p.TimeFactors {
		if responseTimeSeconds < tf.MaxSeconds {
			return tf.Factor
		}
	}
	return p.SlowFactor
}
