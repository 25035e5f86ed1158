package model

import "github.com/piwi3910/RotorSizer/internal/units"

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func qp(v float64, u units.Unit) *units.Quantity {
	q := units.Q(v, u)
	return &q
}

func fp(v float64) *float64 { return &v }

func ip(v int) *int { return &v }

// DefaultCatalog returns a small catalog of common hobby components.
func DefaultCatalog() Catalog {
	mt2212 := must(NewMotor("MT2212 920Kv", qp(0.056, units.KilogramForce), fp(920), qp(2.8, units.Centimeter), fp(18)))
	mn3110 := must(NewMotor("MN3110 700Kv", qp(0.08, units.KilogramForce), fp(700), qp(3.7, units.Centimeter), fp(45)))

	apc10 := must(NewPropeller("APC 10x4.7", qp(0.012, units.KilogramForce), qp(10, units.Inch), qp(4.7, units.Inch), 2, fp(4)))
	apc12 := must(NewPropeller("APC 12x3.8", qp(0.018, units.KilogramForce), qp(12, units.Inch), qp(3.8, units.Inch), 2, fp(5)))
	gf8 := must(NewPropeller("GF 8x4.5", qp(0.008, units.KilogramForce), qp(8, units.Inch), qp(4.5, units.Inch), 2, fp(2)))

	amps := func(v ...float64) units.Series { return units.Series{Values: v, Unit: units.Ampere} }
	newtons := func(v ...float64) units.Series { return units.Series{Values: v, Unit: units.Newton} }

	return Catalog{
		Batteries: []Battery{
			must(NewBattery(BatterySpec{Name: "3S 2200", Capacity: qp(2200, units.MilliampHour), Voltage: qp(11.1, units.Volt),
				XDim: qp(10.5, units.Centimeter), YDim: qp(3.4, units.Centimeter), ZDim: qp(2.4, units.Centimeter), Cost: fp(20)})),
			must(NewBattery(BatterySpec{Name: "3S 3300", Capacity: qp(3300, units.MilliampHour), Cells: ip(3),
				XDim: qp(13.5, units.Centimeter), YDim: qp(4.3, units.Centimeter), ZDim: qp(2.4, units.Centimeter), Cost: fp(28)})),
			must(NewBattery(BatterySpec{Name: "4S 4000", Capacity: qp(4000, units.MilliampHour), Cells: ip(4),
				XDim: qp(14.5, units.Centimeter), YDim: qp(4.4, units.Centimeter), ZDim: qp(3.2, units.Centimeter), Cost: fp(45)})),
			must(NewBattery(BatterySpec{Name: "3S 5000 Li-ion", Chemistry: "Li-ion", Weight: qp(0.33, units.KilogramForce),
				Capacity: qp(5000, units.MilliampHour), Voltage: qp(11.1, units.Volt), Cells: ip(3),
				XDim: qp(7.5, units.Centimeter), YDim: qp(5.6, units.Centimeter), ZDim: qp(6.5, units.Centimeter)})),
		},
		Motors:     []Motor{mt2212, mn3110},
		Propellers: []Propeller{apc10, apc12, gf8},
		Combos: []PropMotorCombo{
			must(NewPropMotorCombo(ComboSpec{Motor: mt2212, Propeller: apc10, TestVoltage: qp(11.1, units.Volt),
				Thrust:  newtons(0.5, 2.0, 3.4, 4.6, 5.6, 6.5, 7.2),
				Current: amps(0.5, 2, 4, 6, 8, 10, 12)})),
			must(NewPropMotorCombo(ComboSpec{Motor: mt2212, Propeller: gf8, TestVoltage: qp(11.1, units.Volt),
				Thrust:  newtons(0.4, 1.5, 2.6, 3.5, 4.3, 5.0, 5.6, 6.1),
				Current: amps(0.5, 2, 4, 6, 8, 10, 12, 14)})),
			must(NewPropMotorCombo(ComboSpec{Motor: mn3110, Propeller: apc12, TestVoltage: qp(14.8, units.Volt),
				Thrust:  newtons(1.0, 3.2, 5.4, 7.2, 8.8, 10.1),
				Current: amps(0.5, 2, 4, 6, 8, 10)})),
		},
		Sensors: []Sensor{
			must(NewSensor("Action Camera", qp(0.117, units.KilogramForce), qp(6.2, units.Centimeter), qp(4.5, units.Centimeter),
				qp(3.3, units.Centimeter), LayerBottom, OrientForward)),
			must(NewSensor("Lidar Rangefinder", qp(0.022, units.KilogramForce), qp(4.0, units.Centimeter), qp(4.8, units.Centimeter),
				qp(2.0, units.Centimeter), LayerAny, OrientForward)),
			must(NewSensor("GPS Puck", qp(0.03, units.KilogramForce), qp(5.0, units.Centimeter), qp(5.0, units.Centimeter),
				qp(1.5, units.Centimeter), LayerTop, OrientAny)),
		},
		Printers: []Printer{
			must(NewPrinter("Prusa MK4", qp(25, units.Centimeter), qp(21, units.Centimeter), qp(22, units.Centimeter))),
			must(NewPrinter("Ender 3", qp(22, units.Centimeter), qp(22, units.Centimeter), qp(25, units.Centimeter))),
		},
		Cutters: []Cutter{
			must(NewCutter("Epilog Mini", qp(61, units.Centimeter), qp(30.5, units.Centimeter))),
		},
		PrintMaterials: []PrintMaterial{
			must(NewPrintMaterial("PLA", qp(1240, units.KgPerCubicM), qp(0.02405, units.SquareCm))),
			must(NewPrintMaterial("PETG", qp(1270, units.KgPerCubicM), qp(0.02405, units.SquareCm))),
			must(NewPrintMaterial("ABS", qp(1040, units.KgPerCubicM), nil)),
		},
		CuttingMaterials: []CuttingMaterial{
			must(NewCuttingMaterial("Acrylic 1/8", qp(1180, units.KgPerCubicM), qp(0.125, units.Inch))),
			must(NewCuttingMaterial("Plywood 1/8", qp(680, units.KgPerCubicM), qp(0.125, units.Inch))),
		},
	}
}
