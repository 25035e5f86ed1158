// Package importer provides CSV and Excel import functionality for component
// catalogs. It supports automatic delimiter detection, unit-tagged headers
// such as "Weight (kg)", and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/units"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Catalog  model.Catalog
	Errors   []string
	Warnings []string
}

// Count returns the number of records imported.
func (r ImportResult) Count() int { return r.Catalog.Len() }

// headerAliases maps canonical field names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"name":          {"name", "label", "model", "part"},
	"chemistry":     {"chemistry", "type"},
	"weight":        {"weight", "mass"},
	"capacity":      {"capacity"},
	"voltage":       {"voltage", "nominal voltage"},
	"test_voltage":  {"test voltage", "test battery voltage", "battery voltage"},
	"cells":         {"cells", "cell count"},
	"cost":          {"cost", "price"},
	"xdim":          {"x", "xdim", "x dim", "x dimension"},
	"ydim":          {"y", "ydim", "y dim", "y dimension"},
	"zdim":          {"z", "zdim", "z dim", "z dimension"},
	"length":        {"length", "len"},
	"width":         {"width"},
	"height":        {"height"},
	"kv":            {"kv"},
	"body_diameter": {"body diameter", "motor diameter"},
	"diameter":      {"diameter", "prop diameter"},
	"pitch":         {"pitch"},
	"blades":        {"blades"},
	"motor":         {"motor"},
	"propeller":     {"propeller", "prop"},
	"current":       {"current"},
	"thrust":        {"thrust"},
	"power":         {"power"},
	"rpm":           {"rpm"},
	"throttle":      {"throttle"},
	"layer":         {"layer", "req layer", "required layer"},
	"orientation":   {"orientation", "orient", "req orient", "required orientation"},
	"density":       {"density"},
	"cs_area":       {"cs area", "cross section area", "cross-section area"},
	"thickness":     {"thickness"},
}

// requiredColumns lists the header fields each sheet kind must carry.
var requiredColumns = map[model.Kind][]string{
	model.KindBattery:         {"name", "xdim", "ydim", "zdim"},
	model.KindMotor:           {"name", "weight", "kv"},
	model.KindPropeller:       {"name", "weight", "diameter"},
	model.KindPropMotorCombo:  {"motor", "propeller", "test_voltage", "current", "thrust"},
	model.KindSensor:          {"name", "weight", "xdim", "ydim", "zdim"},
	model.KindPrinter:         {"name", "length", "width", "height"},
	model.KindCutter:          {"name", "length", "width"},
	model.KindPrintMaterial:   {"name", "density"},
	model.KindCuttingMaterial: {"name", "density", "thickness"},
}

// kindAliases maps sheet and file names to component kinds.
var kindAliases = map[string]model.Kind{
	"battery": model.KindBattery, "batteries": model.KindBattery,
	"motor": model.KindMotor, "motors": model.KindMotor,
	"propeller": model.KindPropeller, "propellers": model.KindPropeller, "props": model.KindPropeller,
	"pmcombo": model.KindPropMotorCombo, "pmcombos": model.KindPropMotorCombo, "combos": model.KindPropMotorCombo,
	"thrust": model.KindPropMotorCombo, "thrust data": model.KindPropMotorCombo,
	"sensor": model.KindSensor, "sensors": model.KindSensor,
	"printer": model.KindPrinter, "printers": model.KindPrinter,
	"cutter": model.KindCutter, "cutters": model.KindCutter,
	"print material": model.KindPrintMaterial, "print materials": model.KindPrintMaterial,
	"printing materials": model.KindPrintMaterial,
	"cutting material":   model.KindCuttingMaterial, "cutting materials": model.KindCuttingMaterial,
}

// KindFromName resolves a sheet name or file base name such as
// "Batteries", "print_materials.csv" or "thrust-data" to a component kind.
func KindFromName(name string) (model.Kind, bool) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	norm := strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(base)))
	k, ok := kindAliases[norm]
	return k, ok
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// column locates one field in a sheet and the unit its header declares.
type column struct {
	index int
	unit  units.Unit
}

// ParseHeader splits a header cell like "Thrust (lbf)" into its canonical
// field name and unit. ok is false for unrecognized headers.
func ParseHeader(cell string) (field string, unit units.Unit, ok bool) {
	text := strings.TrimSpace(cell)
	if open := strings.LastIndex(text, "("); open >= 0 && strings.HasSuffix(text, ")") {
		unit = units.Unit(strings.TrimSpace(text[open+1 : len(text)-1]))
		text = strings.TrimSpace(text[:open])
	}
	normalized := strings.ToLower(strings.NewReplacer("_", " ").Replace(text))
	for f, aliases := range headerAliases {
		for _, alias := range aliases {
			if normalized == alias {
				return f, unit, true
			}
		}
	}
	return "", unit, false
}

// DetectColumns maps the header row to field columns. Unknown headers are
// returned so the caller can warn about them.
func DetectColumns(row []string) (map[string]column, []string) {
	cols := make(map[string]column)
	var unknown []string
	for i, cell := range row {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		field, unit, ok := ParseHeader(cell)
		if !ok {
			unknown = append(unknown, strings.TrimSpace(cell))
			continue
		}
		if _, seen := cols[field]; !seen {
			cols[field] = column{index: i, unit: unit}
		}
	}
	return cols, unknown
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports one component family from a CSV file. An empty kind is
// inferred from the file name. existing resolves the motors and propellers
// named by thrust-test rows; it may be nil.
func ImportCSV(path string, kind model.Kind, existing *model.Catalog) ImportResult {
	result := ImportResult{}

	if kind == "" {
		k, ok := KindFromName(path)
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("Cannot tell component type from file name %q", filepath.Base(path)))
			return result
		}
		kind = k
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	imported := ImportCSVFromReader(bytes.NewReader(data), delimiter, kind, existing)
	imported.Warnings = append(result.Warnings, imported.Warnings...)
	return imported
}

// ImportCSVFromReader imports one component family from a CSV reader with a
// specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune, kind model.Kind, existing *model.Catalog) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	importFromRows(&result, records, kind, "Line", existing)
	return result
}

// ImportExcel imports every sheet whose name is a component family.
// Sheets are processed in catalog order so motors and propellers exist
// before the thrust data that references them.
func ImportExcel(path string, existing *model.Catalog) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	byKind := make(map[model.Kind]string)
	for _, name := range sheets {
		k, ok := KindFromName(name)
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Skipping sheet %q", name))
			continue
		}
		if _, dup := byKind[k]; dup {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Skipping sheet %q: %s already imported", name, k))
			continue
		}
		byKind[k] = name
	}

	for _, k := range model.Kinds() {
		name, ok := byKind[k]
		if !ok {
			continue
		}
		rows, err := f.GetRows(name)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Cannot read sheet %q: %v", name, err))
			continue
		}
		if len(rows) == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("Sheet %q is empty", name))
			continue
		}
		importFromRows(&result, rows, k, fmt.Sprintf("%s row", name), existing)
	}

	if len(byKind) == 0 {
		result.Errors = append(result.Errors, "No component sheets found")
	}
	return result
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It maps the header row to fields and parses each row into a component.
func importFromRows(result *ImportResult, rows [][]string, kind model.Kind, rowPrefix string, existing *model.Catalog) {
	cols, unknown := DetectColumns(rows[0])
	for _, h := range unknown {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: ignoring column %q", kind, h))
	}

	var missing []string
	for _, f := range requiredColumns[kind] {
		if _, ok := cols[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: required columns not found in header: %s", kind, strings.Join(missing, ", ")))
		return
	}

	p := &rowParser{cols: cols, result: result, kind: kind, warned: make(map[string]bool)}
	if kind == model.KindPropMotorCombo {
		p.combos(rows[1:], rowPrefix, existing)
		return
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		comp, err := p.component(row)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rowLabel, err))
			continue
		}
		if contains(result.Catalog.Names(kind), comp.Key()) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: duplicate %s %q replaces the earlier row", rowLabel, kind, comp.Key()))
		}
		result.Catalog.Put(comp)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// rowParser reads typed values out of rows using a header mapping.
type rowParser struct {
	cols   map[string]column
	result *ImportResult
	kind   model.Kind
	warned map[string]bool
}

func (p *rowParser) text(row []string, field string) string {
	c, ok := p.cols[field]
	if !ok {
		return ""
	}
	return getCell(row, c.index)
}

// quantity reads the first present field among fields. A cell may carry its
// own unit ("2200 mAh"); otherwise the header unit applies, falling back to
// the family's canonical unit with a one-time warning.
func (p *rowParser) quantity(row []string, fam units.Family, fields ...string) (*units.Quantity, error) {
	for _, field := range fields {
		cell := p.text(row, field)
		if cell == "" {
			continue
		}
		unit := p.cols[field].unit
		parts := strings.Fields(cell)
		if len(parts) == 2 {
			cell, unit = parts[0], units.Unit(parts[1])
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s '%s'", field, cell)
		}
		if unit == "" {
			unit = units.CanonicalFor(fam)
			if !p.warned[field] {
				p.warned[field] = true
				p.result.Warnings = append(p.result.Warnings, fmt.Sprintf("%s: no unit for %s, assuming %s", p.kind, field, unit))
			}
		}
		q := units.Q(v, unit)
		return &q, nil
	}
	return nil, nil
}

func (p *rowParser) number(row []string, field string) (*float64, error) {
	cell := p.text(row, field)
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s '%s'", field, cell)
	}
	return &v, nil
}

// fields collects the results of several reads, keeping the first error.
type fields struct {
	err error
}

func (f *fields) q(q *units.Quantity, err error) *units.Quantity {
	if f.err == nil && err != nil {
		f.err = err
	}
	return q
}

func (f *fields) n(v *float64, err error) *float64 {
	if f.err == nil && err != nil {
		f.err = err
	}
	return v
}

func (p *rowParser) component(row []string) (model.Component, error) {
	var f fields
	name := p.text(row, "name")
	cost := f.n(p.number(row, "cost"))
	switch p.kind {
	case model.KindBattery:
		spec := model.BatterySpec{
			Name:      name,
			Chemistry: p.text(row, "chemistry"),
			Weight:    f.q(p.quantity(row, units.Force, "weight")),
			Capacity:  f.q(p.quantity(row, units.Capacity, "capacity")),
			Voltage:   f.q(p.quantity(row, units.Voltage, "voltage")),
			Cost:      cost,
			XDim:      f.q(p.quantity(row, units.Length, "xdim", "length")),
			YDim:      f.q(p.quantity(row, units.Length, "ydim", "width")),
			ZDim:      f.q(p.quantity(row, units.Length, "zdim", "height")),
		}
		if cells := f.n(p.number(row, "cells")); cells != nil {
			n := int(*cells)
			spec.Cells = &n
		}
		if f.err != nil {
			return nil, f.err
		}
		return model.NewBattery(spec)
	case model.KindMotor:
		weight := f.q(p.quantity(row, units.Force, "weight"))
		kv := f.n(p.number(row, "kv"))
		dia := f.q(p.quantity(row, units.Length, "body_diameter", "diameter"))
		if f.err != nil {
			return nil, f.err
		}
		return model.NewMotor(name, weight, kv, dia, cost)
	case model.KindPropeller:
		weight := f.q(p.quantity(row, units.Force, "weight"))
		dia := f.q(p.quantity(row, units.Length, "diameter"))
		pitch := f.q(p.quantity(row, units.Length, "pitch"))
		blades := 0
		if b := f.n(p.number(row, "blades")); b != nil {
			blades = int(*b)
		}
		if f.err != nil {
			return nil, f.err
		}
		return model.NewPropeller(name, weight, dia, pitch, blades, cost)
	case model.KindSensor:
		weight := f.q(p.quantity(row, units.Force, "weight"))
		x := f.q(p.quantity(row, units.Length, "xdim"))
		y := f.q(p.quantity(row, units.Length, "ydim"))
		z := f.q(p.quantity(row, units.Length, "zdim"))
		if f.err != nil {
			return nil, f.err
		}
		layer := model.Layer(strings.ToLower(p.text(row, "layer")))
		if layer == "any" || layer == "none" {
			layer = model.LayerAny
		}
		orient := model.Orientation(strings.ToLower(p.text(row, "orientation")))
		if orient == "any" || orient == "none" {
			orient = model.OrientAny
		}
		return model.NewSensor(name, weight, x, y, z, layer, orient)
	case model.KindPrinter:
		l := f.q(p.quantity(row, units.Length, "length"))
		w := f.q(p.quantity(row, units.Length, "width"))
		h := f.q(p.quantity(row, units.Length, "height"))
		if f.err != nil {
			return nil, f.err
		}
		return model.NewPrinter(name, l, w, h)
	case model.KindCutter:
		l := f.q(p.quantity(row, units.Length, "length"))
		w := f.q(p.quantity(row, units.Length, "width"))
		if f.err != nil {
			return nil, f.err
		}
		return model.NewCutter(name, l, w)
	case model.KindPrintMaterial:
		d := f.q(p.quantity(row, units.Density, "density"))
		a := f.q(p.quantity(row, units.Area, "cs_area"))
		if f.err != nil {
			return nil, f.err
		}
		return model.NewPrintMaterial(name, d, a)
	case model.KindCuttingMaterial:
		d := f.q(p.quantity(row, units.Density, "density"))
		t := f.q(p.quantity(row, units.Length, "thickness"))
		if f.err != nil {
			return nil, f.err
		}
		return model.NewCuttingMaterial(name, d, t)
	}
	return nil, fmt.Errorf("unsupported component type %q", p.kind)
}

// comboRows accumulates the thrust-test points of one motor/propeller pair.
type comboRows struct {
	motor, prop string
	firstRow    string
	testVoltage *units.Quantity
	current     []float64
	thrust      []float64
	voltage     []float64
	power       []float64
	rpm         []float64
	throttle    []float64
}

// combos groups thrust-test rows by motor/propeller pair, in first-seen
// order, and builds one combo per pair.
func (p *rowParser) combos(rows [][]string, rowPrefix string, existing *model.Catalog) {
	var order []string
	groups := make(map[string]*comboRows)

	for i, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+2)
		motor, prop := p.text(row, "motor"), p.text(row, "propeller")
		if motor == "" || prop == "" {
			p.result.Errors = append(p.result.Errors, fmt.Sprintf("%s: motor and propeller are required", rowLabel))
			continue
		}

		var f fields
		tv := f.q(p.quantity(row, units.Voltage, "test_voltage"))
		cur := f.n(p.number(row, "current"))
		thr := f.n(p.number(row, "thrust"))
		volt := f.n(p.number(row, "voltage"))
		pwr := f.n(p.number(row, "power"))
		rpm := f.n(p.number(row, "rpm"))
		thro := f.n(p.number(row, "throttle"))
		if f.err == nil && (cur == nil || thr == nil) {
			f.err = fmt.Errorf("current and thrust are required")
		}
		if f.err != nil {
			p.result.Errors = append(p.result.Errors, fmt.Sprintf("%s: %v", rowLabel, f.err))
			continue
		}

		key := model.ComboName(motor, prop)
		g, ok := groups[key]
		if !ok {
			g = &comboRows{motor: motor, prop: prop, firstRow: rowLabel, testVoltage: tv}
			groups[key] = g
			order = append(order, key)
		} else if tv != nil && g.testVoltage != nil && *tv != *g.testVoltage {
			p.result.Warnings = append(p.result.Warnings, fmt.Sprintf("%s: test voltage differs from %s, keeping the first", rowLabel, g.firstRow))
		}
		if g.testVoltage == nil {
			g.testVoltage = tv
		}
		g.current = append(g.current, *cur)
		g.thrust = append(g.thrust, *thr)
		appendOptional(&g.voltage, volt)
		appendOptional(&g.power, pwr)
		appendOptional(&g.rpm, rpm)
		appendOptional(&g.throttle, thro)
	}

	for _, key := range order {
		g := groups[key]
		comp, err := p.buildCombo(g, existing)
		if err != nil {
			p.result.Errors = append(p.result.Errors, fmt.Sprintf("%s: %v", g.firstRow, err))
			continue
		}
		p.result.Catalog.Put(comp)
	}
}

func appendOptional(dst *[]float64, v *float64) {
	if v != nil {
		*dst = append(*dst, *v)
	}
}

func (p *rowParser) buildCombo(g *comboRows, existing *model.Catalog) (model.PropMotorCombo, error) {
	motor := p.result.Catalog.FindMotor(g.motor)
	if motor == nil && existing != nil {
		motor = existing.FindMotor(g.motor)
	}
	if motor == nil {
		return model.PropMotorCombo{}, fmt.Errorf("motor %q not in catalog", g.motor)
	}
	prop := p.result.Catalog.FindPropeller(g.prop)
	if prop == nil && existing != nil {
		prop = existing.FindPropeller(g.prop)
	}
	if prop == nil {
		return model.PropMotorCombo{}, fmt.Errorf("propeller %q not in catalog", g.prop)
	}

	spec := model.ComboSpec{
		Motor:       *motor,
		Propeller:   *prop,
		TestVoltage: g.testVoltage,
		Thrust:      p.series(g.thrust, "thrust", units.Force),
		Current:     p.series(g.current, "current", units.Current),
	}
	// Optional vectors are kept only when every row carried them.
	if len(g.voltage) == len(g.thrust) {
		spec.Voltage = p.series(g.voltage, "voltage", units.Voltage)
	}
	if len(g.power) == len(g.thrust) {
		spec.Power = p.series(g.power, "power", units.Power)
	}
	if len(g.rpm) == len(g.thrust) {
		spec.RPM = g.rpm
	}
	if len(g.throttle) == len(g.thrust) {
		spec.Throttle = g.throttle
	}
	return model.NewPropMotorCombo(spec)
}

func (p *rowParser) series(values []float64, field string, fam units.Family) units.Series {
	unit := p.cols[field].unit
	if unit == "" {
		unit = units.CanonicalFor(fam)
		if !p.warned[field] {
			p.warned[field] = true
			p.result.Warnings = append(p.result.Warnings, fmt.Sprintf("%s: no unit for %s, assuming %s", p.kind, field, unit))
		}
	}
	return units.Series{Values: values, Unit: unit}
}
