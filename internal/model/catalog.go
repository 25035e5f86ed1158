package model

import "fmt"

// Catalog holds every component available to a study. Slices keep their
// load order, which fixes the order candidates are generated in.
type Catalog struct {
	Batteries        []Battery         `json:"batteries"`
	Motors           []Motor           `json:"motors"`
	Propellers       []Propeller       `json:"propellers"`
	Combos           []PropMotorCombo  `json:"pmcombos"`
	Sensors          []Sensor          `json:"sensors"`
	Printers         []Printer         `json:"printers"`
	Cutters          []Cutter          `json:"cutters"`
	PrintMaterials   []PrintMaterial   `json:"print_materials"`
	CuttingMaterials []CuttingMaterial `json:"cutting_materials"`
}

// Components returns every record of the given kind.
func (c *Catalog) Components(k Kind) []Component {
	var out []Component
	switch k {
	case KindBattery:
		for _, v := range c.Batteries {
			out = append(out, v)
		}
	case KindMotor:
		for _, v := range c.Motors {
			out = append(out, v)
		}
	case KindPropeller:
		for _, v := range c.Propellers {
			out = append(out, v)
		}
	case KindPropMotorCombo:
		for _, v := range c.Combos {
			out = append(out, v)
		}
	case KindSensor:
		for _, v := range c.Sensors {
			out = append(out, v)
		}
	case KindPrinter:
		for _, v := range c.Printers {
			out = append(out, v)
		}
	case KindCutter:
		for _, v := range c.Cutters {
			out = append(out, v)
		}
	case KindPrintMaterial:
		for _, v := range c.PrintMaterials {
			out = append(out, v)
		}
	case KindCuttingMaterial:
		for _, v := range c.CuttingMaterials {
			out = append(out, v)
		}
	}
	return out
}

// Kinds lists every component family in catalog order.
func Kinds() []Kind {
	return []Kind{
		KindBattery, KindMotor, KindPropeller, KindPropMotorCombo, KindSensor,
		KindPrinter, KindCutter, KindPrintMaterial, KindCuttingMaterial,
	}
}

// Names returns the keys of every record of the given kind.
func (c *Catalog) Names(k Kind) []string {
	comps := c.Components(k)
	names := make([]string, len(comps))
	for i, comp := range comps {
		names[i] = comp.Key()
	}
	return names
}

// Len returns the total number of records.
func (c *Catalog) Len() int {
	n := 0
	for _, k := range Kinds() {
		n += len(c.Components(k))
	}
	return n
}

// Validate checks that names are unique within each family and that every
// combo carries test data.
func (c *Catalog) Validate() error {
	for _, k := range Kinds() {
		seen := make(map[string]bool)
		for _, name := range c.Names(k) {
			if name == "" {
				return fmt.Errorf("%s with empty name", k)
			}
			if seen[name] {
				return fmt.Errorf("duplicate %s %q", k, name)
			}
			seen[name] = true
		}
	}
	for _, combo := range c.Combos {
		if combo.Thrust.Len() == 0 || combo.Thrust.Len() != combo.Current.Len() {
			return fmt.Errorf("pmcombo %q: thrust and current samples do not match", combo.Name)
		}
	}
	return nil
}

// Put adds a component, replacing any record of the same kind and name.
// Records are never edited in place; an edit supersedes the old record.
func (c *Catalog) Put(comp Component) {
	switch v := comp.(type) {
	case Battery:
		c.Batteries = upsert(c.Batteries, v)
	case Motor:
		c.Motors = upsert(c.Motors, v)
	case Propeller:
		c.Propellers = upsert(c.Propellers, v)
	case PropMotorCombo:
		c.Combos = upsert(c.Combos, v)
	case Sensor:
		c.Sensors = upsert(c.Sensors, v)
	case Printer:
		c.Printers = upsert(c.Printers, v)
	case Cutter:
		c.Cutters = upsert(c.Cutters, v)
	case PrintMaterial:
		c.PrintMaterials = upsert(c.PrintMaterials, v)
	case CuttingMaterial:
		c.CuttingMaterials = upsert(c.CuttingMaterials, v)
	}
}

func upsert[T Component](list []T, v T) []T {
	for i := range list {
		if list[i].Key() == v.Key() {
			list[i] = v
			return list
		}
	}
	return append(list, v)
}

// Merge adds every record of other that is not already present by name.
// It returns the number of records added.
func (c *Catalog) Merge(other Catalog) int {
	added := 0
	for _, k := range Kinds() {
		have := make(map[string]bool)
		for _, n := range c.Names(k) {
			have[n] = true
		}
		for _, comp := range other.Components(k) {
			if !have[comp.Key()] {
				c.Put(comp)
				have[comp.Key()] = true
				added++
			}
		}
	}
	return added
}

func find[T Component](list []T, name string) *T {
	for i := range list {
		if list[i].Key() == name {
			return &list[i]
		}
	}
	return nil
}

// FindBattery returns the battery with the given name, or nil.
func (c *Catalog) FindBattery(name string) *Battery { return find(c.Batteries, name) }

// FindMotor returns the motor with the given name, or nil.
func (c *Catalog) FindMotor(name string) *Motor { return find(c.Motors, name) }

// FindPropeller returns the propeller with the given name, or nil.
func (c *Catalog) FindPropeller(name string) *Propeller { return find(c.Propellers, name) }

// FindCombo returns the prop/motor combo with the given name, or nil.
func (c *Catalog) FindCombo(name string) *PropMotorCombo { return find(c.Combos, name) }

// FindSensor returns the sensor with the given name, or nil.
func (c *Catalog) FindSensor(name string) *Sensor { return find(c.Sensors, name) }

// FindPrinter returns the printer with the given name, or nil.
func (c *Catalog) FindPrinter(name string) *Printer { return find(c.Printers, name) }

// FindCutter returns the cutter with the given name, or nil.
func (c *Catalog) FindCutter(name string) *Cutter { return find(c.Cutters, name) }

// FindPrintMaterial returns the print material with the given name, or nil.
func (c *Catalog) FindPrintMaterial(name string) *PrintMaterial {
	return find(c.PrintMaterials, name)
}

// FindCuttingMaterial returns the cutting material with the given name, or nil.
func (c *Catalog) FindCuttingMaterial(name string) *CuttingMaterial {
	return find(c.CuttingMaterials, name)
}
