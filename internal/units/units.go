// Package units implements the unit table and expression evaluator used by
// the reference host. Quantities are carried in base units (meter, radian,
// kilogram, second) together with their dimension.
package units

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Dimension holds the exponents of length, angle, mass and time.
type Dimension [4]int8

const (
	dimLength = iota
	dimAngle
	dimMass
	dimTime
)

// Dimensionless is the dimension of plain numbers.
var Dimensionless = Dimension{}

var (
	length = Dimension{dimLength: 1}
	angle  = Dimension{dimAngle: 1}
	mass   = Dimension{dimMass: 1}
	timed  = Dimension{dimTime: 1}
)

// MaxExponent bounds each dimension exponent, far above anything a real unit needs.
const MaxExponent = 32

// ErrExponentRange is returned when a dimension exponent leaves [-MaxExponent, MaxExponent].
var ErrExponentRange = errors.New("unit exponent out of range")

// combine applies f to each exponent pair in int arithmetic so int8 never wraps.
func (d Dimension) combine(o Dimension, f func(a, b int) int) (Dimension, error) {
	var r Dimension
	for i := range d {
		e := f(int(d[i]), int(o[i]))
		if e > MaxExponent || e < -MaxExponent {
			return Dimension{}, fmt.Errorf("%w: %d", ErrExponentRange, e)
		}
		r[i] = int8(e)
	}
	return r, nil
}

func (d Dimension) mul(o Dimension) (Dimension, error) {
	return d.combine(o, func(a, b int) int { return a + b })
}

func (d Dimension) div(o Dimension) (Dimension, error) {
	return d.combine(o, func(a, b int) int { return a - b })
}

func (d Dimension) pow(n int) (Dimension, error) {
	return d.combine(Dimension{}, func(a, _ int) int { return a * n })
}

func (d Dimension) String() string {
	if d == Dimensionless {
		return "dimensionless"
	}
	names := [4]string{"length", "angle", "mass", "time"}
	s := ""
	for i, e := range d {
		if e == 0 {
			continue
		}
		if s != "" {
			s += "*"
		}
		s += names[i]
		if e != 1 {
			s += fmt.Sprintf("^%d", e)
		}
	}
	return s
}

// Unit is a named unit with its conversion factor to base units.
type Unit struct {
	Name   string
	Dim    Dimension
	Factor float64
}

var table = map[string]Unit{
	"":   {Name: "", Dim: Dimensionless, Factor: 1},
	"nm": {Name: "nm", Dim: length, Factor: 1e-9},
	"um": {Name: "um", Dim: length, Factor: 1e-6},
	"mm": {Name: "mm", Dim: length, Factor: 1e-3},
	"cm": {Name: "cm", Dim: length, Factor: 1e-2},
	"m":  {Name: "m", Dim: length, Factor: 1},
	"km": {Name: "km", Dim: length, Factor: 1e3},
	"in": {Name: "in", Dim: length, Factor: 0.0254},
	"ft": {Name: "ft", Dim: length, Factor: 0.3048},
	"yd": {Name: "yd", Dim: length, Factor: 0.9144},
	"mi": {Name: "mi", Dim: length, Factor: 1609.344},

	"rad":  {Name: "rad", Dim: angle, Factor: 1},
	"deg":  {Name: "deg", Dim: angle, Factor: math.Pi / 180},
	"grad": {Name: "grad", Dim: angle, Factor: math.Pi / 200},

	"mg": {Name: "mg", Dim: mass, Factor: 1e-6},
	"g":  {Name: "g", Dim: mass, Factor: 1e-3},
	"kg": {Name: "kg", Dim: mass, Factor: 1},
	"lb": {Name: "lb", Dim: mass, Factor: 0.45359237},
	"oz": {Name: "oz", Dim: mass, Factor: 0.028349523125},

	"ms":  {Name: "ms", Dim: timed, Factor: 1e-3},
	"s":   {Name: "s", Dim: timed, Factor: 1},
	"min": {Name: "min", Dim: timed, Factor: 60},
	"hr":  {Name: "hr", Dim: timed, Factor: 3600},
}

// Lookup returns the unit registered under name.
func Lookup(name string) (Unit, bool) {
	u, ok := table[name]
	return u, ok
}

// Names returns all known unit names, sorted.
func Names() []string {
	names := make([]string, 0, len(table))
	for n := range table {
		if n != "" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// Quantity is a value in base units.
// Bare marks plain numbers written without a unit; they adopt the unit of their context.
type Quantity struct {
	Value float64
	Dim   Dimension
	Bare  bool
}

// In converts q to the given unit. Bare quantities are read as already expressed in u.
func (q Quantity) In(u Unit) (float64, error) {
	if q.Bare {
		return q.Value, nil
	}
	if q.Dim != u.Dim {
		return 0, fmt.Errorf("%w: %s is not compatible with %q", ErrIncompatible, q.Dim, u.Name)
	}
	return q.Value / u.Factor, nil
}
