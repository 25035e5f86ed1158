package model

import (
	"math"
	"testing"

	"github.com/piwi3910/RotorSizer/internal/units"
)

func TestCatalogFindByName(t *testing.T) {
	cat := DefaultCatalog()

	if b := cat.FindBattery("3S 2200"); b == nil {
		t.Error("expected to find battery 3S 2200")
	}
	if c := cat.FindCombo("MT2212 920Kv/APC 10x4.7"); c == nil {
		t.Error("expected to find combo MT2212 920Kv/APC 10x4.7")
	}
	if p := cat.FindPrinter("nope"); p != nil {
		t.Errorf("expected nil for unknown printer, got %+v", p)
	}
}

func TestCatalogNames(t *testing.T) {
	cat := DefaultCatalog()
	names := cat.Names(KindPrintMaterial)
	want := []string{"PLA", "PETG", "ABS"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d]: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestCatalogPutSupersedes(t *testing.T) {
	cat := DefaultCatalog()
	before := len(cat.PrintMaterials)

	pla, err := NewPrintMaterial("PLA", qp(1300, units.KgPerCubicM), nil)
	if err != nil {
		t.Fatal(err)
	}
	cat.Put(pla)
	if len(cat.PrintMaterials) != before {
		t.Errorf("expected %d materials after replace, got %d", before, len(cat.PrintMaterials))
	}
	if got := cat.FindPrintMaterial("PLA").Density.Value; got != 1300 {
		t.Errorf("expected density 1300, got %f", got)
	}

	nylon, _ := NewPrintMaterial("Nylon", qp(1150, units.KgPerCubicM), nil)
	cat.Put(nylon)
	if len(cat.PrintMaterials) != before+1 {
		t.Errorf("expected %d materials after insert, got %d", before+1, len(cat.PrintMaterials))
	}
}

func TestCatalogMerge(t *testing.T) {
	cat := Catalog{}
	def := DefaultCatalog()
	added := cat.Merge(def)
	if added != def.Len() {
		t.Errorf("expected %d added, got %d", def.Len(), added)
	}
	if again := cat.Merge(DefaultCatalog()); again != 0 {
		t.Errorf("expected 0 added on second merge, got %d", again)
	}
}

func TestCatalogValidateDuplicates(t *testing.T) {
	cat := DefaultCatalog()
	cat.Printers = append(cat.Printers, cat.Printers[0])
	if err := cat.Validate(); err == nil {
		t.Error("expected duplicate printer to fail validation")
	}
}

func TestCatalogNormalizeKeepsCanonicalRecords(t *testing.T) {
	cat := DefaultCatalog()
	if err := cat.Normalize(); err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	def := DefaultCatalog()
	if cat.Len() != def.Len() {
		t.Fatalf("expected %d records, got %d", def.Len(), cat.Len())
	}
	if got, want := cat.Combos[0].MaxThrust, def.Combos[0].MaxThrust; got != want {
		t.Errorf("max thrust changed: got %v, want %v", got, want)
	}
	if got, want := cat.Batteries[0].Weight, def.Batteries[0].Weight; got != want {
		t.Errorf("battery weight changed: got %v, want %v", got, want)
	}
}

func TestCatalogNormalizeConvertsUnits(t *testing.T) {
	cat := Catalog{Batteries: []Battery{{
		Name:     "Raw",
		Capacity: units.Q(2200, units.MilliampHour),
		Cells:    3,
		XDim:     units.Q(4.1, units.Inch),
		YDim:     units.Q(3.5, units.Centimeter),
		ZDim:     units.Q(2.5, units.Centimeter),
	}}}
	if err := cat.Normalize(); err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	b := cat.Batteries[0]
	if b.XDim.Unit != units.Meter || math.Abs(b.XDim.Value-4.1/39.37) > 1e-9 {
		t.Errorf("xdim not converted to metres: %v", b.XDim)
	}
	if b.Weight.Value <= 0 || b.Voltage.Value != 3*VoltsPerCell {
		t.Errorf("derived fields missing: weight %v voltage %v", b.Weight, b.Voltage)
	}
}

func TestCatalogNormalizeRejectsIncompleteRecords(t *testing.T) {
	tests := []struct {
		name string
		cat  Catalog
	}{
		{"combo without motor", Catalog{Combos: []PropMotorCombo{{
			Name:        "x/y",
			TestVoltage: units.Q(11.1, units.Volt),
			Thrust:      units.Series{Values: []float64{1, 2}, Unit: units.Newton},
			Current:     units.Series{Values: []float64{1, 2}, Unit: units.Ampere},
		}}}},
		{"battery without dimensions", Catalog{Batteries: []Battery{{
			Name:     "NoDims",
			Capacity: units.Q(10, units.WattHour),
			Cells:    3,
		}}}},
		{"sensor without weight", Catalog{Sensors: []Sensor{{Name: "GPS"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cat.Normalize(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
