package tgenmm

// delay.go samples the time to wait before an observation is acted on.  Each
// emission edge carries the parameters of a log-normal and an exponential
// distribution; the log-normal is used whenever either of its parameters is
// positive, otherwise the exponential is.

import (
	"math"
)

// RandomSource supplies uniform draws on (0,1).  *rngstream.RngStream satisfies it.
type RandomSource interface {
	RandU01() float64
}

// UniformRange draws uniformly from [lo, hi)
func UniformRange(rng RandomSource, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.RandU01()
}

// uniform draws feeding a logarithm are kept away from 0 and 1
const (
	clampedU01Lo = 0.0001
	clampedU01Hi = 0.9999
)

// DelayParams holds the distribution parameters of an emission edge
type DelayParams struct {
	Mu     float64 `json:"lognorm_mu" yaml:"lognorm_mu"`
	Sigma  float64 `json:"lognorm_sigma" yaml:"lognorm_sigma"`
	Lambda float64 `json:"exp_lambda" yaml:"exp_lambda"`
}

// LogNormalVariate samples exp(mu + sigma*x) where x is standard normal, produced by
// the cosine half of the Box-Muller transform.  The sine half is not used.
func LogNormalVariate(rng RandomSource, mu, sigma float64) float64 {
	u := UniformRange(rng, clampedU01Lo, clampedU01Hi)
	v := UniformRange(rng, clampedU01Lo, clampedU01Hi)

	x := math.Sqrt(-2.0*math.Log(u)) * math.Cos(2.0*math.Pi*v)

	return math.Exp(mu + sigma*x)
}

// ExponentialVariate samples by inverse transform.  A zero rate gives +Inf.
func ExponentialVariate(rng RandomSource, lambda float64) float64 {
	u := UniformRange(rng, clampedU01Lo, clampedU01Hi)
	return -math.Log(u) / lambda
}

// GenerateDelay draws a delay for an emission edge and truncates it to an integer,
// saturating at the largest uint64
func GenerateDelay(rng RandomSource, params DelayParams) uint64 {
	var value float64
	if params.Sigma > 0 || params.Mu > 0 {
		value = LogNormalVariate(rng, params.Mu, params.Sigma)
	} else {
		value = ExponentialVariate(rng, params.Lambda)
	}
	return saturateUint64(value)
}

func saturateUint64(value float64) uint64 {
	switch {
	case math.IsNaN(value) || value <= 0:
		return 0
	case value >= math.MaxUint64:
		return math.MaxUint64
	}
	return uint64(value)
}
