package spinwheel

import (
	"fmt"
	"math"
	"strings"
)

// Point is a touch location in the host's coordinate space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Geometry is supplied by the host. The host owns the transform from screen
// space to the wheel's local angle; the engine only asks for the centre and
// for the angle of a touch point.
type Geometry interface {
	Center() Point
	AngleOf(p Point) float64
}

// PlaneGeometry is a Geometry for a wheel drawn on a flat plane with its
// centre at Origin. Angles are measured with atan2 in the host's axes, so a
// screen with y growing downward measures angles clockwise.
type PlaneGeometry struct {
	Origin Point
}

func (g PlaneGeometry) Center() Point { return g.Origin }

func (g PlaneGeometry) AngleOf(p Point) float64 {
	return math.Atan2(p.Y-g.Origin.Y, p.X-g.Origin.X)
}

// distanceFromCenter returns how far p is from the geometry's centre.
func distanceFromCenter(g Geometry, p Point) float64 {
	c := g.Center()
	return math.Hypot(p.X-c.X, p.Y-c.Y)
}

// SnapOrientation names the direction in which wedge zero comes to rest.
// Directions are given in screen axes (y grows downward).
type SnapOrientation int

const (
	SnapRight SnapOrientation = iota
	SnapDown
	SnapLeft
	SnapUp
)

// Radians returns the anchor angle for the orientation, in (-π, π].
func (o SnapOrientation) Radians() float64 {
	switch o {
	case SnapDown:
		return math.Pi / 2
	case SnapLeft:
		return math.Pi
	case SnapUp:
		return -math.Pi / 2
	default:
		return 0
	}
}

func (o SnapOrientation) String() string {
	switch o {
	case SnapRight:
		return "right"
	case SnapDown:
		return "down"
	case SnapLeft:
		return "left"
	case SnapUp:
		return "up"
	default:
		return fmt.Sprintf("SnapOrientation(%d)", int(o))
	}
}

// ParseSnapOrientation converts a config string into a SnapOrientation.
func ParseSnapOrientation(s string) (SnapOrientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "right":
		return SnapRight, nil
	case "down":
		return SnapDown, nil
	case "left":
		return SnapLeft, nil
	case "up":
		return SnapUp, nil
	default:
		return 0, fmt.Errorf("invalid snap orientation: %q (must be up, down, left, or right)", s)
	}
}
