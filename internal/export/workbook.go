package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/project"
	"github.com/piwi3910/RotorSizer/internal/units"
)

// table is one sheet of tabular output.
type table struct {
	sheet string
	file  string
	rows  [][]interface{} // first row is the header
}

// newWorkbook writes tables to a new workbook, one sheet each.
func newWorkbook(path string, tables []table) error {
	if len(tables) == 0 {
		return fmt.Errorf("nothing to export")
	}
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.sheet); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", t.sheet, err)
			}
		} else if _, err := f.NewSheet(t.sheet); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", t.sheet, err)
		}
		for r, row := range t.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(t.sheet, cell, &row); err != nil {
				return fmt.Errorf("failed to write %s row %d: %w", t.sheet, r+1, err)
			}
		}
		if err := f.SetPanes(t.sheet, &excelize.Panes{
			Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze header of %s: %w", t.sheet, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// ExportResultsXLSX writes a run to a workbook with the ranked candidates,
// failure statistics and design envelope.
func ExportResultsXLSX(path string, r project.Results) error {
	header := []interface{}{"Rank", "ID", "Candidate", "Status", "Score", "Pareto"}
	for _, a := range model.Attributes() {
		u, _ := displayUnit(a)
		header = append(header, fmt.Sprintf("%s (%s)", a.Label(), u))
	}
	header = append(header, "Arm Length (m)", "Hub Layers", "Rejection", "Measured", "Unit")

	ranking := [][]interface{}{header}
	rank := 0
	for _, c := range r.Candidates {
		row := []interface{}{"", c.ID, c.Name, c.Status.String(), "", ""}
		if c.IsFeasible() {
			rank++
			row[0] = rank
			row[4] = c.Score
			row[5] = c.Pareto
		}
		for _, a := range model.Attributes() {
			if c.Performance == nil {
				row = append(row, "")
				continue
			}
			q, err := c.Performance.Attr(a)
			u, _ := displayUnit(a)
			if err != nil {
				row = append(row, "")
				continue
			}
			row = append(row, valueIn(q, u))
		}
		if c.Geometry != nil {
			row = append(row, valueIn(c.Geometry.ArmLength, units.Meter), c.Geometry.HubLayers)
		} else {
			row = append(row, "", "")
		}
		if c.Rejection != nil {
			row = append(row, c.Rejection.Reason, c.Rejection.Value.Value, string(c.Rejection.Value.Unit))
		}
		ranking = append(ranking, row)
	}

	failures := [][]interface{}{{"Reason", "Count", "Mean", "Limit", "Unit"}}
	for _, f := range r.Summary.Failures {
		limit := interface{}("")
		if f.Threshold != nil {
			limit = f.Threshold.Value
		}
		failures = append(failures, []interface{}{f.Reason, f.Count, f.Mean.Value, limit, string(f.Mean.Unit)})
	}

	envelope := [][]interface{}{{"Metric", "Min", "Max", "Unit"}}
	for _, e := range r.Envelope {
		envelope = append(envelope, []interface{}{e.Attribute.Label(), e.Min.Value, e.Max.Value, string(e.Min.Unit)})
	}

	return newWorkbook(path, []table{
		{sheet: "Ranking", rows: ranking},
		{sheet: "Failures", rows: failures},
		{sheet: "Envelope", rows: envelope},
	})
}

// ExportCatalogXLSX writes every non-empty component family to its own
// sheet, in the layout ImportExcel reads back.
func ExportCatalogXLSX(path string, cat model.Catalog) error {
	return newWorkbook(path, catalogTables(&cat))
}

// ExportCatalogCSV writes one CSV file per non-empty component family into
// dir and returns the files written.
func ExportCatalogCSV(dir string, cat model.Catalog) ([]string, error) {
	tables := catalogTables(&cat)
	if len(tables) == 0 {
		return nil, fmt.Errorf("nothing to export")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var written []string
	for _, t := range tables {
		path := filepath.Join(dir, t.file)
		if err := writeCSV(path, t.rows); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeCSV(path string, rows [][]interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = cellText(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func cellText(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func quantityCell(q *units.Quantity) interface{} {
	if q == nil || q.IsZero() {
		return ""
	}
	return q.Value
}

// catalogTables lays out each family with unit-tagged headers in canonical
// units. Thrust data is written one test point per row.
func catalogTables(cat *model.Catalog) []table {
	var out []table
	add := func(sheet, file string, header []interface{}, rows [][]interface{}) {
		if len(rows) == 0 {
			return
		}
		out = append(out, table{sheet: sheet, file: file, rows: append([][]interface{}{header}, rows...)})
	}

	var rows [][]interface{}
	for _, b := range cat.Batteries {
		rows = append(rows, []interface{}{b.Name, b.Chemistry, b.Weight.Value, b.Capacity.Value, b.Voltage.Value, b.Cells, optional(b.Cost), b.XDim.Value, b.YDim.Value, b.ZDim.Value})
	}
	add("Batteries", "batteries.csv",
		[]interface{}{"Name", "Chemistry", "Weight (N)", "Capacity (Wh)", "Voltage (V)", "Cells", "Cost", "X (m)", "Y (m)", "Z (m)"}, rows)

	rows = nil
	for _, m := range cat.Motors {
		rows = append(rows, []interface{}{m.Name, m.Weight.Value, m.Kv, m.BodyDiameter.Value, optional(m.Cost)})
	}
	add("Motors", "motors.csv",
		[]interface{}{"Name", "Weight (N)", "KV", "Body Diameter (m)", "Cost"}, rows)

	rows = nil
	for _, p := range cat.Propellers {
		rows = append(rows, []interface{}{p.Name, p.Weight.Value, p.Diameter.Value, p.Pitch.Value, p.Blades, optional(p.Cost)})
	}
	add("Propellers", "propellers.csv",
		[]interface{}{"Name", "Weight (N)", "Diameter (m)", "Pitch (m)", "Blades", "Cost"}, rows)

	rows = nil
	for _, c := range cat.Combos {
		for i := range c.Thrust.Values {
			row := []interface{}{c.Motor.Name, c.Propeller.Name, c.TestVoltage.Value, c.Current.Values[i], c.Thrust.Values[i]}
			row = append(row, sample(c.Voltage.Values, i), sample(c.Power.Values, i), sample(c.RPM, i), sample(c.Throttle, i))
			rows = append(rows, row)
		}
	}
	add("Thrust Data", "pmcombos.csv",
		[]interface{}{"Motor", "Propeller", "Test Voltage (V)", "Current (A)", "Thrust (N)", "Voltage (V)", "Power (W)", "RPM", "Throttle"}, rows)

	rows = nil
	for _, s := range cat.Sensors {
		rows = append(rows, []interface{}{s.Name, s.Weight.Value, s.XDim.Value, s.YDim.Value, s.ZDim.Value, string(s.Layer), string(s.Orientation), optional(s.Cost)})
	}
	add("Sensors", "sensors.csv",
		[]interface{}{"Name", "Weight (N)", "X (m)", "Y (m)", "Z (m)", "Req Layer", "Req Orient", "Cost"}, rows)

	rows = nil
	for _, p := range cat.Printers {
		rows = append(rows, []interface{}{p.Name, p.Length.Value, p.Width.Value, p.Height.Value})
	}
	add("Printers", "printers.csv",
		[]interface{}{"Name", "Length (m)", "Width (m)", "Height (m)"}, rows)

	rows = nil
	for _, c := range cat.Cutters {
		rows = append(rows, []interface{}{c.Name, c.Length.Value, c.Width.Value})
	}
	add("Cutters", "cutters.csv",
		[]interface{}{"Name", "Length (m)", "Width (m)"}, rows)

	rows = nil
	for _, m := range cat.PrintMaterials {
		rows = append(rows, []interface{}{m.Name, m.Density.Value, quantityCell(m.CrossSectionArea)})
	}
	add("Print Materials", "print_materials.csv",
		[]interface{}{"Name", "Density (kg*m^-3)", "CS Area (m^2)"}, rows)

	rows = nil
	for _, m := range cat.CuttingMaterials {
		rows = append(rows, []interface{}{m.Name, m.Density.Value, m.Thickness.Value})
	}
	add("Cutting Materials", "cutting_materials.csv",
		[]interface{}{"Name", "Density (kg*m^-3)", "Thickness (m)"}, rows)

	return out
}

// sample returns vs[i], or an empty cell for absent optional vectors.
func sample(vs []float64, i int) interface{} {
	if i >= len(vs) {
		return ""
	}
	return vs[i]
}
