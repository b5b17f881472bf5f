package eval

import (
	"errors"
	"math"
)

// ErrMissingCandidate marks attempts for which the generated entry holds no record.
var ErrMissingCandidate = errors.New("no candidate record for attempt")

// Measure is a generated-side value: either defined, or undefined with the
// reason it could not be produced.
type Measure struct {
	Value  float64
	Reason error
}

// Defined wraps a value.
func Defined(v float64) Measure {
	return Measure{Value: v}
}

// Undefined records why a value is missing.
func Undefined(reason error) Measure {
	if reason == nil {
		reason = errors.New("undefined")
	}
	return Measure{Value: math.NaN(), Reason: reason}
}

func measure(v float64, err error) Measure {
	if err != nil {
		return Undefined(err)
	}
	return Defined(v)
}

// Valid reports whether the measure carries a usable number.
func (m Measure) Valid() bool {
	return m.Reason == nil && !math.IsNaN(m.Value)
}

// Float returns the value, or NaN when undefined.
func (m Measure) Float() float64 {
	if !m.Valid() {
		return math.NaN()
	}
	return m.Value
}
