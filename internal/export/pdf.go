// Package export writes trade-study results to PDF reports, QR-coded build
// labels, DXF planform drawings and Excel workbooks.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/project"
	"github.com/piwi3910/RotorSizer/internal/units"
)

// partColor represents an RGB color used in drawings.
type partColor struct {
	R, G, B int
}

var (
	colorHub   = partColor{R: 210, G: 180, B: 140}
	colorArm   = partColor{R: 121, G: 85, B: 72}
	colorMotor = partColor{R: 244, G: 67, B: 54}
	colorProp  = partColor{R: 33, G: 150, B: 243}
	colorFront = partColor{R: 76, G: 175, B: 80}
)

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	rowHeight    = 6.0

	rankingRowsPerPage = 24
	// MaxDetailPages bounds the per-candidate sheets appended to a report.
	MaxDetailPages = 5
)

// ExportPDF generates the trade-study report: a summary page with the
// requirements, failure statistics and design envelope, the ranked table of
// feasible candidates, and one sheet per top-ranked candidate with its
// planform.
func ExportPDF(path string, r project.Results) error {
	if len(r.Candidates) == 0 {
		return fmt.Errorf("no candidates to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	pdf.AddPage()
	renderSummaryPage(pdf, r)

	feasible := model.FeasibleOnly(r.Candidates)
	for start := 0; start < len(feasible); start += rankingRowsPerPage {
		end := min(start+rankingRowsPerPage, len(feasible))
		pdf.AddPage()
		renderRankingPage(pdf, feasible[start:end], start, len(feasible))
	}

	for i, c := range feasible {
		if i >= MaxDetailPages {
			break
		}
		pdf.AddPage()
		if err := renderCandidatePage(pdf, c, i+1); err != nil {
			return fmt.Errorf("failed to render %s: %w", c.Name, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// formatQuantity renders q in unit u, falling back to q's own unit.
func formatQuantity(q units.Quantity, u units.Unit, prec int) string {
	if q.IsZero() {
		return "-"
	}
	v, err := q.In(u)
	if err != nil {
		return q.String()
	}
	return fmt.Sprintf("%.*f %s", prec, v, u)
}

// displayUnit is the report unit for each metric.
func displayUnit(a model.Attribute) (units.Unit, int) {
	switch a {
	case model.AttrEndurance:
		return units.Minute, 1
	case model.AttrBuildTime:
		return units.Hour, 1
	case model.AttrSize:
		return units.Meter, 3
	default:
		return units.Newton, 2
	}
}

func sectionTitle(pdf *fpdf.Fpdf, y float64, title string) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(150, 7, title, "", 0, "L", false, 0, "")
	return y + 9
}

// drawTable renders a header row and data rows with alternating fill and
// returns the y position below the table.
func drawTable(pdf *fpdf.Fpdf, y float64, widths []float64, headers []string, rows [][]string) float64 {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(widths[i], rowHeight, header, "1", 0, "C", true, 0, "")
		xPos += widths[i]
	}
	y += rowHeight

	pdf.SetFont("Helvetica", "", 9)
	for i, row := range rows {
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos = marginLeft
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(widths[j], rowHeight, cell, "1", 0, "C", true, 0, "")
			xPos += widths[j]
		}
		y += rowHeight
	}
	return y
}

// keyValues renders a two-column list and returns the y below it.
func keyValues(pdf *fpdf.Fpdf, x, y float64, items [][2]string) float64 {
	pdf.SetFont("Helvetica", "", 9)
	for _, item := range items {
		pdf.SetXY(x, y)
		pdf.CellFormat(45, 5, item[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(70, 5, item[1], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		y += 5
	}
	return y
}

func footer(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, text, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// renderSummaryPage draws the requirements, failure statistics and envelope.
func renderSummaryPage(pdf *fpdf.Fpdf, r project.Results) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Trade Study: "+r.Study.Name, "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+14)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 6, r.Summary.Headline(), "", 0, "L", false, 0, "")

	y := sectionTitle(pdf, marginTop+24, "Requirements")
	s := r.Study
	cutter := s.Cutter
	if cutter == "" {
		cutter = "-"
	}
	left := [][2]string{
		{"Endurance", formatQuantity(s.EnduranceRequired, units.Minute, 1)},
		{"Payload", formatQuantity(s.PayloadRequired, units.Newton, 2)},
		{"Max Weight", formatQuantity(s.MaxWeight, units.Newton, 2)},
		{"Max Dimension", formatQuantity(s.MaxSize, units.Meter, 3)},
		{"Max Build Time", formatQuantity(s.MaxBuildTime, units.Hour, 1)},
	}
	right := [][2]string{
		{"Maneuverability", string(s.Maneuverability)},
		{"Frame", string(r.Frame)},
		{"Cover Plate", fmt.Sprintf("%t", s.CoverPlate)},
		{"Printer / Cutter", s.Printer + " / " + cutter},
		{"Sensors", strings.Join(s.Sensors, ", ")},
	}
	yl := keyValues(pdf, marginLeft+5, y, left)
	yr := keyValues(pdf, marginLeft+135, y, right)
	y = math.Max(yl, yr) + 5

	y = sectionTitle(pdf, y, "Failure Statistics")
	if len(r.Summary.Failures) == 0 {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(100, 5, "Zero failures.", "", 0, "L", false, 0, "")
		y += 7
	} else {
		var rows [][]string
		for _, f := range r.Summary.Failures {
			threshold := "-"
			if f.Threshold != nil {
				threshold = f.Threshold.String()
			}
			mean := "-"
			if f.Mean.Unit != "" {
				mean = f.Mean.String()
			}
			rows = append(rows, []string{f.Reason, fmt.Sprintf("%d", f.Count), mean, threshold})
		}
		y = drawTable(pdf, y, []float64{100, 25, 50, 50}, []string{"Reason", "Count", "Mean Value", "Limit"}, rows) + 5
	}

	if len(r.Envelope) > 0 {
		y = sectionTitle(pdf, y, "Design Envelope")
		var rows [][]string
		for _, e := range r.Envelope {
			u, prec := displayUnit(e.Attribute)
			rows = append(rows, []string{e.Attribute.Label(), formatQuantity(e.Min, u, prec), formatQuantity(e.Max, u, prec)})
		}
		drawTable(pdf, y, []float64{60, 50, 50}, []string{"Metric", "Min", "Max"}, rows)
	}

	footer(pdf, fmt.Sprintf("Generated by RotorSizer - run %s", r.RunID))
}

// renderRankingPage draws one page of the ranked feasible candidates.
func renderRankingPage(pdf *fpdf.Fpdf, page []model.Candidate, offset, total int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Ranked Alternatives (%d-%d of %d)", offset+1, offset+len(page), total)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	headers := []string{"Rank", "Candidate", "Score", "Pareto"}
	widths := []float64{14, 74, 18, 16}
	for _, a := range model.Attributes() {
		u, _ := displayUnit(a)
		headers = append(headers, fmt.Sprintf("%s (%s)", a.Label(), u))
		widths = append(widths, 29)
	}

	var rows [][]string
	for i, c := range page {
		pareto := ""
		if c.Pareto {
			pareto = "yes"
		}
		row := []string{fmt.Sprintf("%d", offset+i+1), c.Name, fmt.Sprintf("%.3f", c.Score), pareto}
		for _, a := range model.Attributes() {
			u, prec := displayUnit(a)
			q, err := c.Performance.Attr(a)
			if err != nil {
				row = append(row, "-")
				continue
			}
			v, err := q.In(u)
			if err != nil {
				row = append(row, q.String())
				continue
			}
			row = append(row, fmt.Sprintf("%.*f", prec, v))
		}
		rows = append(rows, row)
	}
	drawTable(pdf, marginTop+headerHeight+3, widths, headers, rows)
	footer(pdf, "Generated by RotorSizer")
}

// renderCandidatePage draws the bill of materials, performance and
// planform of one feasible candidate.
func renderCandidatePage(pdf *fpdf.Fpdf, c model.Candidate, rank int) error {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, fmt.Sprintf("#%d %s", rank, c.Name), "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	pdf.CellFormat(120, 5, fmt.Sprintf("ID %s | Score %.3f | Pareto %t", c.ID, c.Score, c.Pareto), "", 0, "L", false, 0, "")

	y := sectionTitle(pdf, marginTop+headerHeight+8, "Components")
	cutting := "-"
	if c.CuttingMaterial != nil {
		cutting = c.CuttingMaterial.Name
	}
	y = keyValues(pdf, marginLeft+5, y, [][2]string{
		{"Motor", fmt.Sprintf("%s (%.0f KV)", c.Combo.Motor.Name, c.Combo.Motor.Kv)},
		{"Propeller", fmt.Sprintf("%s (%s)", c.Combo.Propeller.Name, formatQuantity(c.Combo.Propeller.Diameter, units.Inch, 1))},
		{"Battery", fmt.Sprintf("%s (%dS, %s)", c.Battery.Name, c.Battery.Cells, formatQuantity(c.Battery.Capacity, units.WattHour, 1))},
		{"Print Material", c.PrintMaterial.Name},
		{"Cutting Material", cutting},
	}) + 4

	y = sectionTitle(pdf, y, "Performance")
	var perf [][2]string
	for _, a := range model.Attributes() {
		q, err := c.Performance.Attr(a)
		if err != nil {
			continue
		}
		u, prec := displayUnit(a)
		perf = append(perf, [2]string{a.Label(), formatQuantity(q, u, prec)})
	}
	y = keyValues(pdf, marginLeft+5, y, perf) + 4

	y = sectionTitle(pdf, y, "Geometry")
	g := c.Geometry
	keyValues(pdf, marginLeft+5, y, [][2]string{
		{"Hub", fmt.Sprintf("%s x %s", formatQuantity(g.HubLength, units.Centimeter, 1), formatQuantity(g.HubWidth, units.Centimeter, 1))},
		{"Hub Layers", fmt.Sprintf("%d", g.HubLayers)},
		{"Layer Separation", formatQuantity(g.HubSeparation, units.Centimeter, 1)},
		{"Arm Length", formatQuantity(g.ArmLength, units.Centimeter, 1)},
	})

	p, err := NewPlanform(c)
	if err != nil {
		return err
	}
	drawPlanform(pdf, p, 150, marginTop+headerHeight+5, 130, pageHeight-marginTop-headerHeight-marginBottom-10)
	footer(pdf, "Generated by RotorSizer")
	return nil
}

// drawPlanform sketches the airframe, scaled to fit the box.
func drawPlanform(pdf *fpdf.Fpdf, p Planform, x, y, w, h float64) {
	extent := p.Extent()
	if extent <= 0 {
		return
	}
	scale := math.Min(w, h) / (2 * extent)
	cx, cy := x+w/2, y+h/2
	// Page Y grows downward; planform Y points left of forward.
	at := func(pt Point) (float64, float64) { return cx - pt.Y*scale, cy - pt.X*scale }

	pdf.SetLineWidth(0.2)
	pdf.SetDrawColor(colorProp.R, colorProp.G, colorProp.B)
	for _, a := range p.Arms {
		px, py := at(a.Tip)
		pdf.Circle(px, py, p.PropRadius*scale, "D")
	}

	pdf.SetLineWidth(1.2)
	pdf.SetDrawColor(colorArm.R, colorArm.G, colorArm.B)
	for _, a := range p.Arms {
		rx, ry := at(a.Root)
		tx, ty := at(a.Tip)
		pdf.Line(rx, ry, tx, ty)
	}

	pdf.SetLineWidth(0.3)
	pdf.SetDrawColor(30, 30, 30)
	pdf.SetFillColor(colorHub.R, colorHub.G, colorHub.B)
	hw, hh := p.HubWidth*scale, p.HubLength*scale
	pdf.Rect(cx-hw/2, cy-hh/2, hw, hh, "FD")

	pdf.SetFillColor(colorMotor.R, colorMotor.G, colorMotor.B)
	for _, a := range p.Arms {
		px, py := at(a.Tip)
		pdf.Circle(px, py, math.Max(p.MotorRadius*scale, 0.8), "FD")
	}

	// Forward arrow
	pdf.SetDrawColor(colorFront.R, colorFront.G, colorFront.B)
	pdf.SetLineWidth(0.6)
	pdf.Line(cx, cy, cx, cy-hh/2-4)
	pdf.Line(cx, cy-hh/2-4, cx-1.5, cy-hh/2-2)
	pdf.Line(cx, cy-hh/2-4, cx+1.5, cy-hh/2-2)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)
	label := fmt.Sprintf("Span %.0f mm", 2*extent*1000)
	lw := pdf.GetStringWidth(label)
	pdf.SetXY(cx-lw/2, y+h-4)
	pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}
