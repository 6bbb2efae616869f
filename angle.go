package spinwheel

import "math"

// ============================================================================
// Angle & Wedge Index Arithmetic
// ============================================================================
//
// Every comparison between two angles goes through AngularDistance. Raw
// radians are unbounded (the wheel can turn many times), so comparing them
// directly breaks at the ±π seam.
//
// Wheel frame conventions:
//   - rotation is the live offset of the wheel face, unbounded.
//   - wedge i is centred at local angle anchor + i*radiansPerWedge.
//   - the wedge resting at the anchor for rotation r is the wedge whose
//     local angle equals anchor - r.
// ============================================================================

const twoPi = 2 * math.Pi

// NormalizeAngle reduces a modulo 2π into (-π, π].
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	r := math.Mod(a, twoPi)
	if r <= -math.Pi {
		r += twoPi
	} else if r > math.Pi {
		r -= twoPi
	}
	return r
}

// AngularDistance returns the shortest signed distance from a to b on the circle.
// The result lies in (-π, π].
func AngularDistance(a, b float64) float64 {
	d := math.Atan2(math.Sin(b-a), math.Cos(b-a))
	// atan2 returns -π for a half turn on some inputs; keep the range half-open.
	if d <= -math.Pi {
		d = math.Pi
	}
	return d
}

// RadiansPerWedge returns 2π / wedgeCount, or 0 for an unusable count.
func RadiansPerWedge(wedgeCount int) float64 {
	if wedgeCount < minWedgeCount {
		return 0
	}
	return twoPi / float64(wedgeCount)
}

// WedgeIndexForAngle maps a wheel-local angle to the index of the wedge that
// contains it.
//
// Wedges are centred on their index: wedge i spans half a wedge either side of
// anchor + i*radiansPerWedge. wedgeCount is added before the modulo so the
// result is never negative, and rounding is half away from zero.
//
// The function is total: any finite or non-finite input yields an index in
// [0, wedgeCount). An unusable wedgeCount or width yields 0.
func WedgeIndexForAngle(angle float64, wedgeCount int, radiansPerWedge, anchor float64) int {
	if wedgeCount < minWedgeCount || radiansPerWedge <= 0 {
		return 0
	}
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}

	steps := AngularDistance(anchor, angle) / radiansPerWedge
	idx := int(math.Round(steps+float64(wedgeCount))) % wedgeCount
	if idx < 0 {
		idx += wedgeCount
	}
	return idx
}

// WedgeCenter returns the wheel-local angle at the centre of wedge index,
// normalized into (-π, π].
func WedgeCenter(index int, radiansPerWedge, anchor float64) float64 {
	return NormalizeAngle(anchor + float64(index)*radiansPerWedge)
}

// indexAtRotation returns the wedge resting at the anchor for a wheel rotation.
func indexAtRotation(rotation float64, wedgeCount int, radiansPerWedge, anchor float64) int {
	return WedgeIndexForAngle(anchor-rotation, wedgeCount, radiansPerWedge, anchor)
}

// rotationForWedge returns the rotation that rests wedge index on the anchor,
// chosen on the shorter arc from the current rotation.
func rotationForWedge(index int, rotation, radiansPerWedge float64) float64 {
	target := -float64(index) * radiansPerWedge
	return rotation + AngularDistance(rotation, target)
}
