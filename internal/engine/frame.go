package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/piwi3910/RotorSizer/internal/hublayout"
	"github.com/piwi3910/RotorSizer/internal/interp"
	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/units"
)

const cubicInchesPerFoot = 12 * 12 * 12

// Reference printed hub of the plate and one-piece frames, in inches.
const (
	refHubLength     = 4.25
	refHubWidth      = 5.75
	refHubSeparation = 1.64
)

func referenceHub(layers int) hub {
	return hub{
		length:     refHubLength,
		width:      refHubWidth,
		separation: refHubSeparation,
		span:       math.Hypot(refHubLength, refHubWidth),
		layers:     layers,
	}
}

func armsFitPrinter(armLen float64, l *limits) *rejection {
	if armLen > math.Max(l.printerL, l.printerW) {
		return reject(ReasonArmsPrinter, armLen, wLength)
	}
	return nil
}

// plateFrame is a printed base plate and top plate (or cover) joined by
// four printed arms. Part volumes and print times are tabulated against
// propeller diameter.
type plateFrame struct {
	arm, base, top, cover         interp.Table // in^3
	armBT, baseBT, topBT, coverBT interp.Table // hr
}

func newPlateFrame(t model.FrameTables) (plateFrame, error) {
	if err := t.Validate(); err != nil {
		return plateFrame{}, err
	}
	x, err := t.PropDiameter.In(wLength)
	if err != nil {
		return plateFrame{}, fmt.Errorf("failed to convert frame tables: %w", err)
	}
	table := func(name string, s units.Series, u units.Unit) interp.Table {
		y, convErr := s.In(u)
		if convErr != nil && err == nil {
			err = fmt.Errorf("failed to convert frame table %s: %w", name, convErr)
		}
		return interp.Table{Name: name, X: x, Y: y}
	}
	f := plateFrame{
		arm:     table("arm_volume", t.ArmVolume, wVolume),
		base:    table("base_plate_volume", t.BasePlateVolume, wVolume),
		top:     table("top_plate_volume", t.TopPlateVolume, wVolume),
		cover:   table("cover_volume", t.CoverVolume, wVolume),
		armBT:   table("arm_build_time", t.ArmBuildTime, wTime),
		baseBT:  table("base_plate_build_time", t.BasePlateBuildTime, wTime),
		topBT:   table("top_plate_build_time", t.TopPlateBuildTime, wTime),
		coverBT: table("cover_build_time", t.CoverBuildTime, wTime),
	}
	if err != nil {
		return plateFrame{}, err
	}
	return f, nil
}

func (plateFrame) layout(*vehicle, *limits) (hub, *rejection, error) {
	return referenceHub(2), nil, nil
}

func (plateFrame) envelope(h hub, armLen, _ float64, l *limits) *rejection {
	if rej := armsFitPrinter(armLen, l); rej != nil {
		return rej
	}
	fits := (h.length <= l.printerL && h.width <= l.printerW) ||
		(h.length <= l.printerW && h.width <= l.printerL)
	if !fits {
		return reject(ReasonHubPrinter, h.dim(), wLength)
	}
	return nil
}

// sum interpolates every part at the prop diameter and adds them up, arms
// counted once per arm.
func (f plateFrame) sum(v *vehicle, arm, base, top interp.Table) (float64, *rejection, error) {
	total := 0.0
	for i, t := range []interp.Table{arm, base, top} {
		y, err := t.At(v.propDia)
		if errors.Is(err, interp.ErrOutOfRange) {
			return 0, reject(ReasonFrameData, v.propDia, wLength), nil
		}
		if err != nil {
			return 0, nil, err
		}
		if i == 0 {
			y *= nArms
		}
		total += y
	}
	return total, nil, nil
}

func (f plateFrame) structure(_ hub, _, _ float64, v *vehicle, l *limits) (float64, *rejection, error) {
	top := f.top
	if l.cover {
		top = f.cover
	}
	vol, rej, err := f.sum(v, f.arm, f.base, top)
	if err != nil || rej != nil {
		return 0, rej, err
	}
	return vol * v.pDensity / cubicInchesPerFoot, nil, nil
}

func (f plateFrame) buildTime(_ hub, _, _ float64, v *vehicle, l *limits) (float64, *rejection, error) {
	top := f.topBT
	if l.cover {
		top = f.coverBT
	}
	return f.sum(v, f.armBT, f.baseBT, top)
}

// onePieceFrame is a single printed body. Volume and print time come from
// regressions over arm length, arm width, overall size and hub separation.
type onePieceFrame struct{}

func (onePieceFrame) layout(*vehicle, *limits) (hub, *rejection, error) {
	return referenceHub(1), nil, nil
}

func (onePieceFrame) envelope(_ hub, _, size float64, l *limits) *rejection {
	if size > math.Hypot(l.printerL, l.printerW) {
		return reject(ReasonBodyPrinter, size, wLength)
	}
	return nil
}

func halfArmWidth(v *vehicle) float64 { return v.motorDia/2 + 0.05 }

func (onePieceFrame) structure(h hub, armLen, size float64, v *vehicle, _ *limits) (float64, *rejection, error) {
	vol := -6.6375 + 2.0725*armLen + 4.29*halfArmWidth(v) - 1.36*(size/2) + 1.005*h.separation
	return vol * v.pDensity / cubicInchesPerFoot, nil, nil
}

func (onePieceFrame) buildTime(h hub, armLen, size float64, v *vehicle, _ *limits) (float64, *rejection, error) {
	bt := -25.9989583333333 + 4.41875*armLen + 12.025*halfArmWidth(v) - 0.725*(size/2) +
		8.79583333333333*h.separation
	return bt, nil, nil
}

// layeredFrame is a stack of laser-cut hub plates sized by the hub layout
// solver, with printed arms.
type layeredFrame struct {
	grid bool
}

func (f layeredFrame) layout(v *vehicle, l *limits) (hub, *rejection, error) {
	if v.cutting == nil || !l.hasCutter {
		return hub{}, nil, ErrNoCuttingMaterial
	}

	var lay hublayout.Layout
	if f.grid {
		var err error
		lay, err = hublayout.Solve(v.battery, l.sensors)
		if errors.Is(err, hublayout.ErrPlacement) {
			return hub{}, reject(ReasonPlacement, 0, ""), nil
		}
		if err != nil {
			return hub{}, nil, err
		}
	} else {
		lay = hublayout.Simple(v.battery, l.sensors)
	}

	var c converter
	size := c.in(lay.SizeQuantity(), wLength)
	sep := c.in(lay.SeparationQuantity(), wLength)
	if c.err != nil {
		return hub{}, nil, c.err
	}
	return hub{length: size, width: size, separation: sep, span: size, layers: lay.Layers}, nil, nil
}

func (layeredFrame) envelope(h hub, armLen, _ float64, l *limits) *rejection {
	if h.length > math.Min(l.cutterL, l.cutterW) {
		return reject(ReasonHubCutter, h.length, wLength)
	}
	return armsFitPrinter(armLen, l)
}

func (layeredFrame) structure(h hub, armLen, _ float64, v *vehicle, _ *limits) (float64, *rejection, error) {
	hubArea := h.length * h.length * float64(h.layers)
	hubWeight := v.cutting.density / cubicInchesPerFoot * v.cutting.thickness * hubArea

	s, c, a := h.separation, h.separation, armLen
	armVol := -0.59039*s*s*s - 0.39684*a*c*c + 0.10027*c*a*a + 2.35465*s*s + 2.06676*c*c -
		0.22142*a*c - 9.04469e-2*a*a - 2.1687*s - 0.9074*c + 0.92599*a - 0.99887
	armWeight := armVol / cubicInchesPerFoot * v.pDensity

	return hubWeight + armWeight*nArms, nil, nil
}

func (layeredFrame) buildTime(h hub, armLen, _ float64, _ *vehicle, _ *limits) (float64, *rejection, error) {
	s, c, a := h.separation, h.separation, armLen
	bt := (-1.68036*a*s*s + 10.49405*s*s + 4.85943*a*s + 0.48171*a*c -
		29.25380*s - 2.59574*c - 3.27393*a + 22.59885) * nArms
	return bt, nil, nil
}
