package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gdamore/tcell/v2"

	"spinwheel"
)

// cellAspect is how much taller a terminal cell is than it is wide. Touch
// math runs in a plane where one unit is one cell width.
const cellAspect = 2.0

// hubRadius is the drawn hub, in plane units. It doubles as the dead zone.
const hubRadius = 1.5

// WheelView is everything a Renderer needs for one frame.
type WheelView struct {
	WedgeCount int
	Configured bool
	Geometry   spinwheel.Geometry
	Radius     float64
	Rotation   float64
	Anchor     float64
	Selected   int
	Status     spinwheel.Status
	Message    string
}

// Renderer draws the wheel. It never talks to the engine.
type Renderer interface {
	Draw(v WheelView)
}

// cellToPlane maps the centre of a terminal cell into plane coordinates.
func cellToPlane(x, y int) spinwheel.Point {
	return spinwheel.Point{X: float64(x) + 0.5, Y: (float64(y) + 0.5) * cellAspect}
}

// planeToCell is the inverse of cellToPlane, rounding to the containing cell.
func planeToCell(p spinwheel.Point) (int, int) {
	return int(math.Floor(p.X)), int(math.Floor(p.Y / cellAspect))
}

// pointAt returns the plane point at angle and distance from the centre.
func pointAt(g spinwheel.Geometry, angle, dist float64) spinwheel.Point {
	c := g.Center()
	return spinwheel.Point{X: c.X + dist*math.Cos(angle), Y: c.Y + dist*math.Sin(angle)}
}

// labelCell is where wedge i's number is drawn for the given view.
func labelCell(v WheelView, i int) (int, int) {
	rpw := spinwheel.RadiansPerWedge(v.WedgeCount)
	angle := spinwheel.WedgeCenter(i, rpw, v.Anchor) + v.Rotation
	return planeToCell(pointAt(v.Geometry, angle, v.Radius*0.65))
}

var wedgePalette = []tcell.Color{
	tcell.ColorRed,
	tcell.ColorGreen,
	tcell.ColorBlue,
	tcell.ColorYellow,
	tcell.ColorPurple,
	tcell.ColorTeal,
	tcell.ColorOlive,
	tcell.ColorNavy,
}

// wedgeColor keeps neighbours distinct, including the last/first seam.
func wedgeColor(i, n int) tcell.Color {
	c := i % len(wedgePalette)
	if i == n-1 && n%len(wedgePalette) == 1 && n > 1 {
		c = (c + 1) % len(wedgePalette)
	}
	return wedgePalette[c]
}

type cellRenderer struct {
	screen tcell.Screen
}

func newCellRenderer(screen tcell.Screen) *cellRenderer {
	return &cellRenderer{screen: screen}
}

func (r *cellRenderer) Draw(v WheelView) {
	s := r.screen
	s.Clear()
	w, h := s.Size()

	if !v.Configured || v.Geometry == nil {
		r.text(0, 0, "wheel unconfigured (press + to add wedges)", tcell.StyleDefault.Foreground(tcell.ColorYellow))
		r.statusLine(v, w, h)
		return
	}

	rpw := spinwheel.RadiansPerWedge(v.WedgeCount)
	c := v.Geometry.Center()

	for y := 0; y < h-1; y++ {
		for x := 0; x < w; x++ {
			p := cellToPlane(x, y)
			d := math.Hypot(p.X-c.X, p.Y-c.Y)
			if d > v.Radius {
				continue
			}
			if d < hubRadius {
				s.SetContent(x, y, '●', nil, tcell.StyleDefault.Foreground(tcell.ColorWhite))
				continue
			}
			idx := spinwheel.WedgeIndexForAngle(v.Geometry.AngleOf(p)-v.Rotation, v.WedgeCount, rpw, v.Anchor)
			style := tcell.StyleDefault.Background(wedgeColor(idx, v.WedgeCount))
			ch := ' '
			if idx == v.Selected && v.Status == spinwheel.StatusIdle {
				ch = '░'
				style = style.Foreground(tcell.ColorWhite)
			}
			s.SetContent(x, y, ch, nil, style)
		}
	}

	for i := 0; i < v.WedgeCount; i++ {
		lx, ly := labelCell(v, i)
		style := tcell.StyleDefault.Background(wedgeColor(i, v.WedgeCount)).Foreground(tcell.ColorWhite).Bold(true)
		r.text(lx, ly, strconv.Itoa(i), style)
	}

	// Pointer just outside the rim at the anchor.
	px, py := planeToCell(pointAt(v.Geometry, v.Anchor, v.Radius+1.5))
	s.SetContent(px, py, pointerRune(v.Anchor), nil, tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true))

	r.statusLine(v, w, h)
}

func (r *cellRenderer) statusLine(v WheelView, w, h int) {
	line := fmt.Sprintf(" wedges:%d  selected:%d  %s  [r]andom [space]spin [+/-]wedges [c]ancel [q]uit", v.WedgeCount, v.Selected, v.Status)
	if v.Message != "" {
		line += "  " + v.Message
	}
	if len(line) > w {
		line = line[:w]
	}
	r.text(0, h-1, line, tcell.StyleDefault.Reverse(true))
}

func (r *cellRenderer) text(x, y int, s string, style tcell.Style) {
	for i, ch := range s {
		r.screen.SetContent(x+i, y, ch, nil, style)
	}
}

// pointerRune points from outside the rim towards the centre.
func pointerRune(anchor float64) rune {
	switch a := spinwheel.NormalizeAngle(anchor); {
	case math.Abs(a-math.Pi/2) < 0.01:
		return '▲'
	case math.Abs(a-math.Pi) < 0.01:
		return '▶'
	case math.Abs(a+math.Pi/2) < 0.01:
		return '▼'
	default:
		return '◀'
	}
}
