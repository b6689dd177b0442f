package animation

import "math"

// Func maps normalized time [0,1] to normalized progress. Progress may
// overshoot 1 transiently (spring), but every Func ends at 1.
type Func func(t float64) float64

// Linear progresses uniformly.
func Linear(t float64) float64 { return t }

// EaseIn accelerates from rest.
func EaseIn(t float64) float64 { return t * t }

// EaseOut decelerates to rest.
func EaseOut(t float64) float64 { return 1 - (1-t)*(1-t) }

// EaseInOut accelerates then decelerates.
func EaseInOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - math.Pow(-2*t+2, 2)/2
}

// Spring builds a damped-spring easing. Underdamped parameters overshoot
// slightly before settling; the function is clamped to land exactly at 1.
func Spring(stiffness, damping float64) Func {
	if stiffness <= 0 {
		stiffness = 180
	}
	if damping <= 0 {
		damping = 20
	}

	omega := math.Sqrt(stiffness)
	zeta := damping / (2 * math.Sqrt(stiffness))

	return func(t float64) float64 {
		if t >= 1 {
			return 1
		}
		// Normalized time maps to about one second of spring motion
		if zeta < 1 {
			omegaD := omega * math.Sqrt(1-zeta*zeta)
			envelope := math.Exp(-zeta * omega * t)
			return 1 - envelope*(math.Cos(omegaD*t)+(zeta*omega/omegaD)*math.Sin(omegaD*t))
		}
		// Critically damped or overdamped
		envelope := math.Exp(-omega * t)
		return 1 - envelope*(1+omega*t)
	}
}

// ByName resolves a configured easing name, defaulting to ease-out.
func ByName(name string, stiffness, damping float64) Func {
	switch name {
	case "linear":
		return Linear
	case "ease-in":
		return EaseIn
	case "ease-out":
		return EaseOut
	case "ease-in-out":
		return EaseInOut
	case "spring":
		return Spring(stiffness, damping)
	default:
		return EaseOut
	}
}
