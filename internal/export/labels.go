package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/units"
)

// LabelInfo is the bill of materials encoded into each build label's QR code.
type LabelInfo struct {
	ID              string  `json:"id"`
	Rank            int     `json:"rank"`
	Motor           string  `json:"motor"`
	Propeller       string  `json:"propeller"`
	Battery         string  `json:"battery"`
	PrintMaterial   string  `json:"print_material"`
	CuttingMaterial string  `json:"cutting_material,omitempty"`
	Score           float64 `json:"score"`
	WeightN         float64 `json:"weight_n"`
	EnduranceMin    float64 `json:"endurance_min"`
	ArmLengthMM     float64 `json:"arm_length_mm"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportLabels generates a PDF of QR-coded build labels, one per feasible
// candidate in ranked order. Labels are laid out on a standard label sheet
// format (Avery 5160 / 3 columns x 10 rows on US Letter).
func ExportLabels(path string, cands []model.Candidate) error {
	labels := CollectLabelInfos(cands)
	if len(labels) == 0 {
		return fmt.Errorf("no feasible candidates to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.ID, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	// Light border for cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	imgName := fmt.Sprintf("qr_%s_%d", info.ID, info.Rank)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, truncate(pdf, fmt.Sprintf("#%d %s", info.Rank, info.ID), textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	lines := []string{
		info.Motor + " / " + info.Propeller,
		info.Battery,
		fmt.Sprintf("Arms %.0f mm, %s", info.ArmLengthMM, info.PrintMaterial),
	}
	for i, line := range lines {
		pdf.SetXY(textX, y+labelPadding+5+float64(i)*3.5)
		pdf.CellFormat(textW, 3.5, truncate(pdf, line, textW), "", 1, "L", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+16)
	stats := fmt.Sprintf("%.1f N | %.0f min | score %.2f", info.WeightN, info.EnduranceMin, info.Score)
	pdf.CellFormat(textW, 3, truncate(pdf, stats, textW), "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncate shortens s with an ellipsis until it fits width w in the
// current font.
func truncate(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectLabelInfos extracts label information from the feasible candidates,
// ranked in the order given.
func CollectLabelInfos(cands []model.Candidate) []LabelInfo {
	var labels []LabelInfo
	for _, c := range cands {
		if !c.IsFeasible() || c.Performance == nil || c.Geometry == nil {
			continue
		}
		info := LabelInfo{
			ID:            c.ID,
			Rank:          len(labels) + 1,
			Motor:         c.Combo.Motor.Name,
			Propeller:     c.Combo.Propeller.Name,
			Battery:       c.Battery.Name,
			PrintMaterial: c.PrintMaterial.Name,
			Score:         c.Score,
			WeightN:       valueIn(c.Performance.Weight, units.Newton),
			EnduranceMin:  valueIn(c.Performance.Endurance, units.Minute),
			ArmLengthMM:   valueIn(c.Geometry.ArmLength, units.Meter) * 1000,
		}
		if c.CuttingMaterial != nil {
			info.CuttingMaterial = c.CuttingMaterial.Name
		}
		labels = append(labels, info)
	}
	return labels
}

// valueIn converts q to u, returning zero when the conversion fails.
func valueIn(q units.Quantity, u units.Unit) float64 {
	v, err := q.In(u)
	if err != nil {
		return 0
	}
	return v
}
