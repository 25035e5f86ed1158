package export

import (
	"fmt"
	"math"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"

	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/units"
)

// Point is a planform coordinate in meters, origin at the hub centre,
// X pointing forward.
type Point struct {
	X, Y float64
}

// Arm runs from the hub corner to the motor axis.
type Arm struct {
	Root, Tip Point
}

// Planform is the top view of a sized quadrotor airframe.
type Planform struct {
	Name        string
	HubLength   float64 // m
	HubWidth    float64 // m
	Arms        []Arm
	MotorRadius float64 // m
	PropRadius  float64 // m
}

// NewPlanform lays out the airframe of a feasible candidate in an X
// configuration.
func NewPlanform(c model.Candidate) (Planform, error) {
	if !c.IsFeasible() || c.Geometry == nil {
		return Planform{}, fmt.Errorf("candidate %s has no sized geometry", c.Name)
	}
	meters := func(q units.Quantity) (float64, error) { return q.In(units.Meter) }

	hubL, err := meters(c.Geometry.HubLength)
	if err != nil {
		return Planform{}, fmt.Errorf("failed to read hub length: %w", err)
	}
	hubW, err := meters(c.Geometry.HubWidth)
	if err != nil {
		return Planform{}, fmt.Errorf("failed to read hub width: %w", err)
	}
	arm, err := meters(c.Geometry.ArmLength)
	if err != nil {
		return Planform{}, fmt.Errorf("failed to read arm length: %w", err)
	}
	prop, err := meters(c.Combo.Propeller.Diameter)
	if err != nil {
		return Planform{}, fmt.Errorf("failed to read prop diameter: %w", err)
	}
	motor, err := meters(c.Combo.Motor.BodyDiameter)
	if err != nil {
		return Planform{}, fmt.Errorf("failed to read motor diameter: %w", err)
	}

	p := Planform{
		Name:        c.Name,
		HubLength:   hubL,
		HubWidth:    hubW,
		MotorRadius: motor / 2,
		PropRadius:  prop / 2,
	}
	for _, s := range [][2]float64{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}} {
		root := Point{X: s[0] * hubL / 2, Y: s[1] * hubW / 2}
		tip := Point{
			X: root.X + s[0]*arm*math.Sqrt2/2,
			Y: root.Y + s[1]*arm*math.Sqrt2/2,
		}
		p.Arms = append(p.Arms, Arm{Root: root, Tip: tip})
	}
	return p, nil
}

// Extent is the largest distance from the hub centre to any drawn edge
// along either axis.
func (p Planform) Extent() float64 {
	e := math.Max(p.HubLength, p.HubWidth) / 2
	for _, a := range p.Arms {
		e = math.Max(e, math.Abs(a.Tip.X)+p.PropRadius)
		e = math.Max(e, math.Abs(a.Tip.Y)+p.PropRadius)
	}
	return e
}

// Layer names used in planform drawings.
const (
	LayerHub    = "HUB"
	LayerArms   = "ARMS"
	LayerMotors = "MOTORS"
	LayerProps  = "PROPS"
	LayerNotes  = "NOTES"
)

// ExportPlanformDXF writes the planform of a feasible candidate to a DXF
// file in millimetres.
func ExportPlanformDXF(path string, c model.Candidate) error {
	p, err := NewPlanform(c)
	if err != nil {
		return err
	}

	const mm = 1000.0
	d := dxf.NewDrawing()

	layers := []struct {
		name string
		cl   color.ColorNumber
	}{
		{LayerHub, color.White},
		{LayerArms, color.Yellow},
		{LayerMotors, color.Red},
		{LayerProps, color.Cyan},
		{LayerNotes, color.Green},
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.cl, dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("failed to add layer %s: %w", l.name, err)
		}
	}

	if err := d.ChangeLayer(LayerHub); err != nil {
		return err
	}
	hx, hy := p.HubLength/2*mm, p.HubWidth/2*mm
	corners := [][2]float64{{hx, hy}, {-hx, hy}, {-hx, -hy}, {hx, -hy}}
	for i, c0 := range corners {
		c1 := corners[(i+1)%len(corners)]
		if _, err := d.Line(c0[0], c0[1], 0, c1[0], c1[1], 0); err != nil {
			return fmt.Errorf("failed to draw hub: %w", err)
		}
	}

	if err := d.ChangeLayer(LayerArms); err != nil {
		return err
	}
	for _, a := range p.Arms {
		if _, err := d.Line(a.Root.X*mm, a.Root.Y*mm, 0, a.Tip.X*mm, a.Tip.Y*mm, 0); err != nil {
			return fmt.Errorf("failed to draw arm: %w", err)
		}
	}

	for _, disc := range []struct {
		layer  string
		radius float64
	}{
		{LayerMotors, p.MotorRadius},
		{LayerProps, p.PropRadius},
	} {
		if err := d.ChangeLayer(disc.layer); err != nil {
			return err
		}
		for _, a := range p.Arms {
			if _, err := d.Circle(a.Tip.X*mm, a.Tip.Y*mm, 0, disc.radius*mm); err != nil {
				return fmt.Errorf("failed to draw %s: %w", disc.layer, err)
			}
		}
	}

	if err := d.ChangeLayer(LayerNotes); err != nil {
		return err
	}
	textHeight := math.Max(p.Extent()*mm/40, 2)
	if _, err := d.Text(p.Name, -p.Extent()*mm, -p.Extent()*mm-2*textHeight, 0, textHeight); err != nil {
		return fmt.Errorf("failed to write title: %w", err)
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save DXF: %w", err)
	}
	return nil
}
