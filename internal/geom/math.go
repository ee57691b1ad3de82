package geom

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Epsilon is the length below which a vector is treated as zero and never normalized.
const Epsilon = 1e-3

// Up is the world up axis, also used as the fallback contact normal.
var Up = rl.Vector3{X: 0, Y: 1, Z: 0}

func clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Clamp restricts v to [min, max].
func Clamp(v, min, max float32) float32 {
	return clamp(v, min, max)
}

// SafeNormalize returns v scaled to unit length, or fallback when v is shorter than Epsilon.
func SafeNormalize(v, fallback rl.Vector3) rl.Vector3 {
	length := rl.Vector3Length(v)
	if length < Epsilon {
		return fallback
	}
	return rl.Vector3Scale(v, 1/length)
}

// AngleBetween returns the angle in radians between two unit vectors.
func AngleBetween(a, b rl.Vector3) float32 {
	return float32(math.Acos(float64(clamp(rl.Vector3DotProduct(a, b), -1, 1))))
}

// Perpendicular returns a deterministic unit vector orthogonal to v.
func Perpendicular(v rl.Vector3) rl.Vector3 {
	// Cross with the axis v is least aligned with
	axis := rl.Vector3{X: 1}
	ax, ay, az := absf(v.X), absf(v.Y), absf(v.Z)
	if ay < ax && ay <= az {
		axis = rl.Vector3{Y: 1}
	} else if az < ax && az < ay {
		axis = rl.Vector3{Z: 1}
	}
	return SafeNormalize(rl.Vector3CrossProduct(v, axis), Up)
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
