// Package hublayout sizes the square, layered hub of a laser-cut frame and
// places the flight electronics and sensors on an occupancy grid.
package hublayout

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/units"
)

const (
	gridPoints = 101 // odd so that (50, 50) is the centre point
	gridLayers = 4

	// Corner pad reserved for each arm attachment, in meters.
	armPad = 0.0254

	// Hub footprint margin over the largest component.
	comfort = 1.05
)

// Flight controller footprint in meters.
var flightController = Box{X: 2.77 / 39.37, Y: 1.77 / 39.37, Z: 0.53 / 39.37}

// ErrPlacement is matched by every PlacementError.
var ErrPlacement = errors.New("hub placement failed")

// PlacementError names the sensor that could not be placed.
type PlacementError struct {
	Sensor string
	Reason string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("could not place %s: %s", e.Sensor, e.Reason)
}

func (e *PlacementError) Is(target error) bool { return target == ErrPlacement }

// Box is a component footprint in meters.
type Box struct {
	X, Y, Z float64
}

// Layout is a sized hub. Size and Separation are in meters.
type Layout struct {
	Size       float64
	Separation float64
	Layers     int
	Grid       *Grid // nil for the simple layout
}

// SizeQuantity returns the hub side length as a quantity.
func (l Layout) SizeQuantity() units.Quantity { return units.Q(l.Size, units.Meter) }

// SeparationQuantity returns the layer spacing as a quantity.
func (l Layout) SeparationQuantity() units.Quantity { return units.Q(l.Separation, units.Meter) }

func batteryBox(b model.Battery) Box {
	return Box{X: b.XDim.Value, Y: b.YDim.Value, Z: b.ZDim.Value}
}

func sensorBox(s model.Sensor) Box {
	return Box{X: s.XDim.Value, Y: s.YDim.Value, Z: s.ZDim.Value}
}

// hubSize starts from the largest in-plane dimension and grows the hub
// when a square-ish component would collide with the corner pads.
func hubSize(boxes []Box) float64 {
	largest := 0.0
	for _, b := range boxes {
		largest = math.Max(largest, math.Max(b.X, b.Y))
	}
	size := largest * comfort
	for _, b := range boxes {
		if b.X >= size-2*armPad && b.Y >= size-2*armPad {
			size = (math.Min(b.X, b.Y) + 2*armPad) * comfort
		}
	}
	return size
}

func footprints(bat Box, sensors []model.Sensor) (boxes []Box, interiorZ []float64) {
	boxes = []Box{bat, flightController}
	for _, s := range sensors {
		b := sensorBox(s)
		boxes = append(boxes, b)
		if s.Layer == model.LayerAny {
			interiorZ = append(interiorZ, b.Z)
		}
	}
	return boxes, interiorZ
}

// Simple sizes a two-layer hub with the battery hung from the ceiling of
// the flight controller's layer. Sensors only influence the footprint and,
// when interior, the layer spacing.
func Simple(battery model.Battery, sensors []model.Sensor) Layout {
	bat := batteryBox(battery)
	boxes, interiorZ := footprints(bat, sensors)

	sep := bat.Z + flightController.Z
	for _, z := range interiorZ {
		sep = math.Max(sep, z)
	}
	return Layout{
		Size:       hubSize(boxes),
		Separation: 1.5 * sep,
		Layers:     2,
	}
}

// Solve places the flight controller at the centre of the bottom layer, the
// battery at the centre of the next, then every sensor as close to the
// centre as its layer and orientation requirements allow. Unused layers are
// trimmed from the result.
func Solve(battery model.Battery, sensors []model.Sensor) (Layout, error) {
	bat := batteryBox(battery)
	boxes, interiorZ := footprints(bat, sensors)

	sep := math.Max(bat.Z, flightController.Z)
	for _, z := range interiorZ {
		sep = math.Max(sep, z)
	}

	g := newGrid(hubSize(boxes))
	g.mark(place{row: g.center(), col: g.center(), layer: 0, orient: model.OrientForward}, flightController)
	g.mark(place{row: g.center(), col: g.center(), layer: 1, orient: model.OrientForward}, bat)

	for _, s := range sensors {
		b := sensorBox(s)
		top := g.topLayer()
		pref, strict := 1, false
		switch s.Layer {
		case model.LayerTop:
			if top >= gridLayers-1 {
				return Layout{}, &PlacementError{Sensor: s.Name, Reason: "top layer filled"}
			}
			pref, strict = top+1, true
		case model.LayerBottom:
			if top >= gridLayers-1 {
				return Layout{}, &PlacementError{Sensor: s.Name, Reason: "all layers filled"}
			}
			g.pushDown()
			pref, strict = 0, true
		}
		p, ok := g.find(b, pref, strict, s.Orientation)
		if !ok {
			return Layout{}, &PlacementError{Sensor: s.Name, Reason: "no free space on hub"}
		}
		g.mark(p, b)
	}

	g.trim()
	return Layout{
		Size:       g.size,
		Separation: 1.5 * sep,
		Layers:     len(g.cells),
		Grid:       g,
	}, nil
}

// Grid is a stack of square occupancy layers over the hub footprint.
type Grid struct {
	size      float64
	step      float64
	padPoints int
	cells     [][]bool // [layer][row*gridPoints+col]
}

type place struct {
	row, col, layer int
	orient          model.Orientation
}

func newGrid(size float64) *Grid {
	g := &Grid{
		size:  size,
		step:  size / (gridPoints - 1),
		cells: make([][]bool, gridLayers),
	}
	padRows := 0
	for i := 0; i < gridPoints; i++ {
		if g.inPad(i) {
			padRows++
		}
	}
	g.padPoints = padRows * padRows
	for l := range g.cells {
		g.cells[l] = make([]bool, gridPoints*gridPoints)
		for r := 0; r < gridPoints; r++ {
			if !g.inPad(r) {
				continue
			}
			for c := 0; c < gridPoints; c++ {
				if g.inPad(c) {
					g.cells[l][r*gridPoints+c] = true
				}
			}
		}
	}
	return g
}

func (g *Grid) inPad(i int) bool {
	pos := g.size / gridPoints * float64(i)
	return pos <= armPad || pos > g.size-armPad-g.step
}

func (g *Grid) center() int { return (gridPoints - 1) / 2 }

// Layers returns the number of layers in the grid.
func (g *Grid) Layers() int { return len(g.cells) }

// Occupied reports whether a grid point is taken. Out-of-range points are
// reported as occupied.
func (g *Grid) Occupied(layer, row, col int) bool {
	if layer < 0 || layer >= len(g.cells) || row < 0 || row >= gridPoints || col < 0 || col >= gridPoints {
		return true
	}
	return g.cells[layer][row*gridPoints+col]
}

// Points returns the number of grid points along one side.
func (g *Grid) Points() int { return gridPoints }

// extent returns the half-size of b in grid steps along rows and columns.
func (g *Grid) extent(b Box, orient model.Orientation, round func(float64) float64) (int, int) {
	along, across := b.X, b.Y
	if orient != model.OrientForward {
		along, across = b.Y, b.X
	}
	return int(round(along / 2 / g.step)), int(round(across / 2 / g.step))
}

func (g *Grid) free(p place, b Box) bool {
	dr, dc := g.extent(b, p.orient, math.Ceil)
	for r := p.row - dr; r <= p.row+dr; r++ {
		for c := p.col - dc; c <= p.col+dc; c++ {
			if g.Occupied(p.layer, r, c) {
				return false
			}
		}
	}
	return true
}

func (g *Grid) mark(p place, b Box) {
	dr, dc := g.extent(b, p.orient, math.Ceil)
	for r := p.row - dr; r <= p.row+dr; r++ {
		for c := p.col - dc; c <= p.col+dc; c++ {
			if r >= 0 && r < gridPoints && c >= 0 && c < gridPoints {
				g.cells[p.layer][r*gridPoints+c] = true
			}
		}
	}
}

// find searches the preferred layer first, then alternates below and
// above it, returning the free position closest to the layer centre.
func (g *Grid) find(b Box, pref int, strict bool, orient model.Orientation) (place, bool) {
	layers := []int{pref}
	if !strict {
		for d := 1; d < len(g.cells); d++ {
			layers = append(layers, pref-d, pref+d)
		}
	}
	orients := []model.Orientation{model.OrientForward, model.OrientSideways}
	if orient != model.OrientAny {
		orients = []model.Orientation{orient}
	}

	for _, l := range layers {
		if l < 0 || l >= len(g.cells) {
			continue
		}
		for _, o := range orients {
			for _, p := range g.ranked(b, l, o) {
				if g.free(p, b) {
					return p, true
				}
			}
		}
	}
	return place{}, false
}

func (g *Grid) ranked(b Box, layer int, orient model.Orientation) []place {
	dr, dc := g.extent(b, orient, math.Trunc)
	var places []place
	for r := dr; r <= gridPoints-dr; r++ {
		for c := dc; c <= gridPoints-dc; c++ {
			places = append(places, place{row: r, col: c, layer: layer, orient: orient})
		}
	}
	ctr := float64(g.center())
	dist := func(p place) float64 { return math.Hypot(float64(p.row)-ctr, float64(p.col)-ctr) }
	sort.SliceStable(places, func(i, j int) bool { return dist(places[i]) < dist(places[j]) })
	return places
}

// topLayer returns the highest layer holding anything besides arm pads.
func (g *Grid) topLayer() int {
	for l := len(g.cells) - 1; l >= 0; l-- {
		n := 0
		for _, v := range g.cells[l] {
			if v {
				n++
			}
		}
		if n > g.padPoints {
			return l
		}
	}
	return 0
}

// pushDown moves the empty top layer under the stack.
func (g *Grid) pushDown() {
	last := g.cells[len(g.cells)-1]
	copy(g.cells[1:], g.cells[:len(g.cells)-1])
	g.cells[0] = last
}

func (g *Grid) trim() {
	g.cells = g.cells[:g.topLayer()+1]
}
