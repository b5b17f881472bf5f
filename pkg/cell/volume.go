// Package cell derives geometric quantities from unit cell parameters.
package cell

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUndefinedInput is returned when any parameter is NaN or infinite.
	ErrUndefinedInput = errors.New("undefined cell parameter")
	// ErrInvalidGeometry is returned when the angles do not describe a real cell.
	ErrInvalidGeometry = errors.New("invalid cell geometry")
)

// Params holds the three edge lengths and three angles (degrees) of a unit cell.
type Params struct {
	A     float64 `json:"a" yaml:"a"`
	B     float64 `json:"b" yaml:"b"`
	C     float64 `json:"c" yaml:"c"`
	Alpha float64 `json:"alpha" yaml:"alpha"`
	Beta  float64 `json:"beta" yaml:"beta"`
	Gamma float64 `json:"gamma" yaml:"gamma"`
}

// FromSlice builds Params from a, b, c, alpha, beta, gamma.
func FromSlice(v [6]float64) Params {
	return Params{A: v[0], B: v[1], C: v[2], Alpha: v[3], Beta: v[4], Gamma: v[5]}
}

func (p Params) values() [6]float64 {
	return [6]float64{p.A, p.B, p.C, p.Alpha, p.Beta, p.Gamma}
}

// Volume returns the triclinic unit cell volume:
//
//	V = abc * sqrt(1 - cos²α - cos²β - cos²γ + 2 cosα cosβ cosγ)
func (p Params) Volume() (float64, error) {
	for _, v := range p.values() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.NaN(), ErrUndefinedInput
		}
	}

	ca := math.Cos(radians(p.Alpha))
	cb := math.Cos(radians(p.Beta))
	cg := math.Cos(radians(p.Gamma))

	r := 1 - ca*ca - cb*cb - cg*cg + 2*ca*cb*cg
	if r < 0 {
		return math.NaN(), fmt.Errorf("%w: negative radicand %g", ErrInvalidGeometry, r)
	}

	return p.A * p.B * p.C * math.Sqrt(r), nil
}

// Volume is a convenience wrapper over Params.Volume.
func Volume(a, b, c, alpha, beta, gamma float64) (float64, error) {
	return Params{A: a, B: b, C: c, Alpha: alpha, Beta: beta, Gamma: gamma}.Volume()
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
