package export

import (
	"fmt"
	"io"

	"github.com/ClareAI/astra-fleet-dashboard/internal/services/report"
	"github.com/jung-kurt/gofpdf/v2"
)

const fontFamily = "Helvetica"

// ExecutiveSummaryPDF renders the executive summary and financial headline as an A4 report
func ExecutiveSummaryPDF(w io.Writer, sum report.ExecutiveSummary, fin report.FinancialReport) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	generated := sum.GeneratedAt.Format("2006-01-02 15:04:05")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Generated on %s - page %d", generated, pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 10, "Executive Summary", "", 1, "", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(0, 8, "Key Performance Indicators", "", 1, "", false, 0, "")
	pdf.SetFont(fontFamily, "", 11)
	kpis := [][2]string{
		{"Total daily calls", fmt.Sprintf("%d", sum.TotalDailyCalls)},
		{"Average success rate", fmt.Sprintf("%.1f%%", sum.AvgSuccessRate)},
		{"Total revenue", fmt.Sprintf("$%.2f", sum.TotalRevenue)},
		{"Top performer", tr(fmt.Sprintf("%s (%.1f%%)", sum.TopPerformer, sum.TopSuccessRate))},
		{"Total cost", fmt.Sprintf("$%.2f", fin.TotalCost)},
		{"Profit margin", fmt.Sprintf("%.1f%%", fin.ProfitMargin)},
		{"ROI", fmt.Sprintf("%.1f%%", fin.ROI)},
	}
	for _, kv := range kpis {
		pdf.CellFormat(60, 7, kv[0], "", 0, "", false, 0, "")
		pdf.CellFormat(0, 7, kv[1], "", 1, "", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(0, 8, "Performance by Specialization", "", 1, "", false, 0, "")

	widths := []float64{70, 25, 25, 35, 25}
	headers := []string{"Specialization", "Daily Calls", "Success %", "Revenue", "Satisfaction"}
	pdf.SetFont(fontFamily, "B", 9)
	pdf.SetFillColor(230, 230, 240)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(fontFamily, "", 9)
	for _, s := range sum.BySpecialization {
		pdf.CellFormat(widths[0], 6, tr(s.Specialization), "1", 0, "", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%d", s.DailyCalls), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%.1f", s.SuccessRate), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("$%.2f", s.Revenue), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%.2f", s.Satisfaction), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(0, 8, "Strategic Recommendations", "", 1, "", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	for _, rec := range sum.Recommendations {
		pdf.MultiCell(0, 6, tr("- "+rec), "", "", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	return nil
}
