// Package units converts temperatures between the scales the API accepts.
// Celsius is the canonical scale; everything stored or aggregated is Celsius
// and conversion happens only at the edges.
package units

import (
	"fmt"
	"strings"
)

// Unit identifies a temperature scale.
type Unit string

const (
	Celsius    Unit = "Celsius"
	Fahrenheit Unit = "Fahrenheit"
	Kelvin     Unit = "Kelvin"
)

const kelvinOffset = 273.15

// Parse resolves a user-supplied unit name. Matching is case-insensitive and
// accepts the single-letter forms C, F and K.
func Parse(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "celsius", "c":
		return Celsius, nil
	case "fahrenheit", "f":
		return Fahrenheit, nil
	case "kelvin", "k":
		return Kelvin, nil
	}
	return "", fmt.Errorf("unknown temperature unit %q", s)
}

// Symbol returns the display suffix for chart axes and responses.
func (u Unit) Symbol() string {
	switch u {
	case Fahrenheit:
		return "°F"
	case Kelvin:
		return "K"
	default:
		return "°C"
	}
}

// CelsiusToFahrenheit converts degrees Celsius to degrees Fahrenheit.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9.0/5.0 + 32.0
}

// FahrenheitToCelsius converts degrees Fahrenheit to degrees Celsius.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32.0) * 5.0 / 9.0
}

// CelsiusToKelvin converts degrees Celsius to kelvins.
func CelsiusToKelvin(c float64) float64 {
	return c + kelvinOffset
}

// KelvinToCelsius converts kelvins to degrees Celsius.
func KelvinToCelsius(k float64) float64 {
	return k - kelvinOffset
}

// FromCelsius converts a canonical Celsius value into u.
func FromCelsius(u Unit, c float64) float64 {
	switch u {
	case Fahrenheit:
		return CelsiusToFahrenheit(c)
	case Kelvin:
		return CelsiusToKelvin(c)
	default:
		return c
	}
}

// ToCelsius converts a value expressed in u into canonical Celsius.
func ToCelsius(u Unit, v float64) float64 {
	switch u {
	case Fahrenheit:
		return FahrenheitToCelsius(v)
	case Kelvin:
		return KelvinToCelsius(v)
	default:
		return v
	}
}
