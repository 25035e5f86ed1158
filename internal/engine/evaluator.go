package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/piwi3910/RotorSizer/internal/interp"
	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/units"
)

// Rejection reasons, in pipeline order.
const (
	ReasonPlacement   = "Could not place sensors in/on hub."
	ReasonTooLarge    = "Max dimension too large."
	ReasonHubCutter   = "Hub too large for cutter"
	ReasonBodyPrinter = "Body too large for printer."
	ReasonHubPrinter  = "Hub too large for printer."
	ReasonArmsPrinter = "Arms too long for printer."
	ReasonFrameData   = "Insufficient frame data."
	ReasonTooHeavy    = "Too heavy."
	ReasonPayload     = "Not enough payload capacity."
	ReasonComboData   = "Insufficient P/M Combo Data"
	ReasonEndurance   = "Not enough endurance."
	ReasonBuildTime   = "Takes too long to build."
)

var (
	// ErrAlreadyEvaluated is returned when a candidate is evaluated twice.
	ErrAlreadyEvaluated = errors.New("candidate already evaluated")
	// ErrNoCuttingMaterial is returned by the layered frame for candidates
	// generated without a cutting material or constraints without a cutter.
	ErrNoCuttingMaterial = errors.New("layered frame needs a cutting material and cutter")
)

const (
	nArms      = 4
	safeFactor = 1.15
	hoverRatio = 1.125

	// Fixed ancillary weights in lbf.
	wirePerInch    = 0.000612394
	escWeight      = 0.2524
	apmWeight      = 0.0705479
	compassWeight  = 0.06062712
	receiverWeight = 0.033069
	propNutWeight  = 0.0251327
)

// Working units of the empirical models.
const (
	wLength   = units.Inch
	wForce    = units.PoundForce
	wTime     = units.Hour
	wDuration = units.Minute
	wVolume   = units.CubicInch
	wDensity  = units.LbfPerCubicFt
)

// Evaluator classifies candidates as feasible or infeasible.
type Evaluator struct {
	Settings model.EvalSettings
	frame    frame
}

// NewEvaluator builds an evaluator for the configured frame model.
func NewEvaluator(settings model.EvalSettings) (*Evaluator, error) {
	f, err := newFrame(settings)
	if err != nil {
		return nil, err
	}
	return &Evaluator{Settings: settings, frame: f}, nil
}

// vehicle holds one candidate's inputs in working units.
type vehicle struct {
	propDia   float64 // in
	motorDia  float64 // in
	battery   model.Battery
	batWeight float64 // lbf
	motorWt   float64 // lbf
	propWt    float64 // lbf
	maxThrust float64 // lbf
	capacity  float64 // mAh
	thrust    []float64
	current   []float64 // A
	pDensity  float64   // lbf/ft^3
	cutting   *cutting
}

type cutting struct {
	density   float64 // lbf/ft^3
	thickness float64 // in
}

// limits holds a constraint set in working units.
type limits struct {
	endurance    float64 // min
	payload      float64 // lbf
	maxWeight    float64 // lbf
	maxSize      float64 // in
	printerL     float64 // in
	printerW     float64 // in
	printerH     float64 // in
	cutterL      float64 // in
	cutterW      float64 // in
	hasCutter    bool
	maxBuildTime float64 // hr
	sensorWeight float64 // lbf
	margin       float64
	cover        bool
	sensors      []model.Sensor
}

// converter records the first conversion failure so a run of conversions
// can be checked once.
type converter struct {
	err error
}

func (c *converter) in(q units.Quantity, u units.Unit, opts ...units.Option) float64 {
	if c.err != nil {
		return 0
	}
	v, err := q.In(u, opts...)
	if err != nil {
		c.err = err
	}
	return v
}

func (c *converter) series(s units.Series, u units.Unit) []float64 {
	if c.err != nil {
		return nil
	}
	v, err := s.In(u)
	if err != nil {
		c.err = err
	}
	return v
}

func newLimits(cs model.ConstraintSet) (limits, error) {
	if err := cs.Validate(); err != nil {
		return limits{}, err
	}
	margin, err := cs.Maneuverability.ThrustMargin()
	if err != nil {
		return limits{}, err
	}
	sw, err := cs.SensorWeight()
	if err != nil {
		return limits{}, err
	}

	var c converter
	l := limits{
		endurance:    c.in(cs.EnduranceRequired, wDuration),
		payload:      c.in(cs.PayloadRequired, wForce),
		maxWeight:    c.in(cs.MaxWeight, wForce),
		maxSize:      c.in(cs.MaxSize, wLength),
		printerL:     c.in(cs.PrinterLength, wLength),
		printerW:     c.in(cs.PrinterWidth, wLength),
		printerH:     c.in(cs.PrinterHeight, wLength),
		maxBuildTime: c.in(cs.MaxBuildTime, wTime),
		sensorWeight: c.in(sw, wForce),
		margin:       margin,
		cover:        cs.CoverPlate,
		sensors:      cs.Sensors,
	}
	if cs.CutterLength != nil && cs.CutterWidth != nil {
		l.cutterL = c.in(*cs.CutterLength, wLength)
		l.cutterW = c.in(*cs.CutterWidth, wLength)
		l.hasCutter = true
	}
	if c.err != nil {
		return limits{}, fmt.Errorf("failed to convert constraints: %w", c.err)
	}
	return l, nil
}

func newVehicle(cand model.Candidate) (vehicle, error) {
	var c converter
	v := vehicle{
		propDia:   c.in(cand.Combo.Propeller.Diameter, wLength),
		motorDia:  c.in(cand.Combo.Motor.BodyDiameter, wLength),
		battery:   cand.Battery,
		batWeight: c.in(cand.Battery.Weight, wForce),
		motorWt:   c.in(cand.Combo.Motor.Weight, wForce),
		propWt:    c.in(cand.Combo.Propeller.Weight, wForce),
		maxThrust: c.in(cand.Combo.MaxThrust, wForce),
		capacity:  c.in(cand.Battery.Capacity, units.MilliampHour, units.WithVoltage(cand.Battery.Voltage.Value)),
		thrust:    c.series(cand.Combo.Thrust, wForce),
		current:   c.series(cand.Combo.Current, units.Ampere),
		pDensity:  c.in(cand.PrintMaterial.Density, wDensity),
	}
	if cm := cand.CuttingMaterial; cm != nil {
		v.cutting = &cutting{
			density:   c.in(cm.Density, wDensity),
			thickness: c.in(cm.Thickness, wLength),
		}
	}
	if c.err != nil {
		return vehicle{}, fmt.Errorf("failed to convert %s: %w", cand.Name, c.err)
	}
	return v, nil
}

// rejection is a failed check with its measured value in working units.
// An empty unit means no value was measured.
type rejection struct {
	reason string
	value  float64
	unit   units.Unit
}

func reject(reason string, value float64, unit units.Unit) *rejection {
	return &rejection{reason: reason, value: value, unit: unit}
}

// hub is the airframe centre section in working units.
type hub struct {
	length     float64 // in
	width      float64 // in
	separation float64 // in
	span       float64 // in, the hub's share of the overall dimension
	layers     int
}

// dim is the hub dimension subtracted from the prop-clearance arm length.
func (h hub) dim() float64 { return math.Max(h.length, h.width) }

// frame is the structural model of one airframe family.
type frame interface {
	layout(v *vehicle, l *limits) (hub, *rejection, error)
	envelope(h hub, armLen, size float64, l *limits) *rejection
	structure(h hub, armLen, size float64, v *vehicle, l *limits) (float64, *rejection, error)
	buildTime(h hub, armLen, size float64, v *vehicle, l *limits) (float64, *rejection, error)
}

func newFrame(s model.EvalSettings) (frame, error) {
	switch s.Frame {
	case model.FramePlate, "":
		return newPlateFrame(s.Tables)
	case model.FrameOnePiece:
		return onePieceFrame{}, nil
	case model.FrameLayered:
		switch s.HubLayout {
		case model.HubLayoutSimple, "", model.HubLayoutGrid:
		default:
			return nil, fmt.Errorf("unknown hub layout %q", s.HubLayout)
		}
		return layeredFrame{grid: s.HubLayout == model.HubLayoutGrid}, nil
	}
	return nil, fmt.Errorf("unknown frame %q", s.Frame)
}

// armLength sizes an arm so that neighbouring prop discs and the prop and
// hub keep clear of each other.
func armLength(propDia, motorDia, hubDim float64) float64 {
	discLimited := safeFactor * (propDia/2/math.Sin(math.Pi/nArms) + 0.75*motorDia - 0.5*hubDim)
	hubLimited := safeFactor * (propDia/2 + 1.5*motorDia/2)
	return math.Max(discLimited, hubLimited)
}

func ancillaryWeight(armLen float64) float64 {
	return wirePerInch*armLen*nArms + escWeight + apmWeight + compassWeight + receiverWeight + propNutWeight
}

// Evaluate runs the feasibility pipeline on an unevaluated candidate and
// returns it marked feasible or infeasible. Conversion failures and invalid
// constraints are returned as errors.
func (e *Evaluator) Evaluate(c model.Candidate, cs model.ConstraintSet) (model.Candidate, error) {
	l, err := newLimits(cs)
	if err != nil {
		return c, err
	}
	return e.evaluate(c, &l)
}

func (e *Evaluator) evaluate(c model.Candidate, l *limits) (model.Candidate, error) {
	if c.Status != model.Unevaluated {
		return c, fmt.Errorf("%s: %w", c.Name, ErrAlreadyEvaluated)
	}
	v, err := newVehicle(c)
	if err != nil {
		return c, err
	}

	perf, geom, rej, err := e.run(&v, l)
	if err != nil {
		return c, fmt.Errorf("%s: %w", c.Name, err)
	}
	if rej != nil {
		value := units.Quantity{}
		if rej.unit != "" {
			if value, err = units.ToCanonical(units.Q(rej.value, rej.unit)); err != nil {
				return c, err
			}
		}
		return c.MarkInfeasible(rej.reason, value), nil
	}
	return c.MarkFeasible(perf, geom), nil
}

func (e *Evaluator) run(v *vehicle, l *limits) (model.Performance, model.Geometry, *rejection, error) {
	var (
		perf model.Performance
		geom model.Geometry
	)

	// 1. Geometry and manufacturing envelope.
	h, rej, err := e.frame.layout(v, l)
	if err != nil || rej != nil {
		return perf, geom, rej, err
	}
	armLen := armLength(v.propDia, v.motorDia, h.dim())
	size := h.span + 2*armLen + v.propDia
	if size > l.maxSize {
		return perf, geom, reject(ReasonTooLarge, size, wLength), nil
	}
	if rej := e.frame.envelope(h, armLen, size, l); rej != nil {
		return perf, geom, rej, nil
	}

	// 2. Weight.
	structure, rej, err := e.frame.structure(h, armLen, size, v, l)
	if err != nil || rej != nil {
		return perf, geom, rej, err
	}
	weight := structure + ancillaryWeight(armLen) + v.batWeight +
		v.motorWt*nArms + v.propWt*nArms + l.sensorWeight
	if weight > l.maxWeight {
		return perf, geom, reject(ReasonTooHeavy, weight, wForce), nil
	}

	// 3. Payload.
	payload := nArms*v.maxThrust/l.margin - weight
	if payload < l.payload {
		return perf, geom, reject(ReasonPayload, payload, wForce), nil
	}

	// 4. Endurance.
	hover := hoverRatio * (weight + l.payload) / nArms
	current, err := interp.Linear(v.thrust, v.current, hover)
	if errors.Is(err, interp.ErrOutOfRange) || (err == nil && current <= 0) {
		return perf, geom, reject(ReasonComboData, hover, wForce), nil
	}
	if err != nil {
		return perf, geom, nil, err
	}
	endurance := v.capacity / (nArms * current * 1000) * 60
	if endurance < l.endurance {
		return perf, geom, reject(ReasonEndurance, endurance, wDuration), nil
	}

	// 5. Build time.
	bt, rej, err := e.frame.buildTime(h, armLen, size, v, l)
	if err != nil || rej != nil {
		return perf, geom, rej, err
	}
	if bt > l.maxBuildTime {
		return perf, geom, reject(ReasonBuildTime, bt, wTime), nil
	}

	var c converter
	perf = model.Performance{
		Weight:    canonical(&c, weight, wForce),
		Payload:   canonical(&c, payload, wForce),
		Endurance: canonical(&c, endurance, wDuration),
		Size:      canonical(&c, size, wLength),
		BuildTime: canonical(&c, bt, wTime),
	}
	geom = model.Geometry{
		HubLength:     canonical(&c, h.length, wLength),
		HubWidth:      canonical(&c, h.width, wLength),
		HubSeparation: canonical(&c, h.separation, wLength),
		ArmLength:     canonical(&c, armLen, wLength),
		HubLayers:     h.layers,
	}
	return perf, geom, nil, c.err
}

func canonical(c *converter, v float64, u units.Unit) units.Quantity {
	if c.err != nil {
		return units.Quantity{}
	}
	q, err := units.ToCanonical(units.Q(v, u))
	if err != nil {
		c.err = err
	}
	return q
}
