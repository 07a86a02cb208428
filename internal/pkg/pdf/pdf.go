// Package pdf renders an analysis report as a downloadable PDF.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/zahlentech/str8up_server/internal/str8up"
)

const (
	fontFamily = "Helvetica"
	lineHeight = 6.0
)

var (
	brandGreen = [3]int{0, 155, 119}
	textDark   = [3]int{28, 40, 51}
)

// Render lays out the report on A4 pages.
func Render(r *str8up.AnalysisReport) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("str8up Map Analysis", true)
	doc.SetAuthor("Zahlentech", true)
	doc.SetCatalogSort(true)
	if !r.Meta.GeneratedAt.IsZero() {
		doc.SetCreationDate(r.Meta.GeneratedAt)
		doc.SetModificationDate(r.Meta.GeneratedAt)
	}
	doc.SetMargins(18, 18, 18)
	doc.SetAutoPageBreak(true, 18)
	doc.AliasNbPages("")
	doc.SetFooterFunc(func() {
		doc.SetY(-14)
		doc.SetFont(fontFamily, "I", 8)
		doc.SetTextColor(120, 120, 120)
		doc.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	w := &writer{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}
	doc.AddPage()
	w.header(r)
	w.financials(r.Calculator)
	w.timeline(r.Narrative.Timeline)
	w.risk(r.Narrative.RiskAssessment)
	w.recommendations(r.Narrative.TechnicalRecommendations)
	w.strategy(r.Narrative.ModernizationStrategy)
	if len(r.Narrative.ComplianceAlignment) > 0 {
		w.compliance(r.Narrative.ComplianceAlignment)
	}
	w.nextSteps(r.Narrative.NextSteps)

	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

type writer struct {
	doc *fpdf.Fpdf
	tr  func(string) string
}

func (w *writer) header(r *str8up.AnalysisReport) {
	d := w.doc
	d.SetFillColor(139, 69, 19)
	d.SetTextColor(255, 255, 255)
	d.SetFont(fontFamily, "B", 20)
	d.CellFormat(0, 14, "ZAHLENTECH", "", 1, "C", true, 0, "")
	d.SetFont(fontFamily, "", 10)
	d.SetTextColor(255, 165, 0)
	d.CellFormat(0, 7, "STR8UP MAP ANALYSIS", "", 1, "C", true, 0, "")
	d.Ln(6)

	d.SetTextColor(brandGreen[0], brandGreen[1], brandGreen[2])
	d.SetFont(fontFamily, "B", 28)
	d.CellFormat(0, 14, fmt.Sprintf("%d%%", r.Meta.OverallScore), "", 1, "C", false, 0, "")
	d.SetFont(fontFamily, "", 9)
	d.SetTextColor(textDark[0], textDark[1], textDark[2])
	d.CellFormat(0, 5, "MODERNIZATION READINESS SCORE", "", 1, "C", false, 0, "")
	if !r.Meta.GeneratedAt.IsZero() {
		d.CellFormat(0, 5, "Generated "+r.Meta.GeneratedAt.Format("January 2, 2006"), "", 1, "C", false, 0, "")
	}
	d.Ln(4)
}

func (w *writer) section(title string) {
	d := w.doc
	d.Ln(3)
	d.SetFont(fontFamily, "B", 13)
	d.SetTextColor(textDark[0], textDark[1], textDark[2])
	d.CellFormat(0, 8, w.tr(title), "B", 1, "L", false, 0, "")
	d.Ln(2)
	d.SetFont(fontFamily, "", 10)
}

func (w *writer) paragraph(text string) {
	w.doc.MultiCell(0, lineHeight, w.tr(text), "", "L", false)
}

func (w *writer) labeled(label, text string) {
	d := w.doc
	d.SetFont(fontFamily, "B", 10)
	d.MultiCell(0, lineHeight, w.tr(label), "", "L", false)
	d.SetFont(fontFamily, "", 10)
	w.paragraph(text)
	d.Ln(1)
}

func (w *writer) financials(c str8up.CalculatorData) {
	w.section("Financial Impact Summary")
	rows := [][2]string{
		{"Estimated Annual Spend", str8up.FormatCurrency(c.BaseSpend)},
		{fmt.Sprintf("Identified Waste (%.0f%%)", c.WasteFactor*100), str8up.FormatCurrency(c.WasteAmount)},
		{"Projected Annual Savings", str8up.FormatCurrency(c.ProjectedAnnualSavings)},
		{"Transformation Investment", str8up.FormatCurrency(c.TransformationCost)},
		{"Return on Investment", fmt.Sprintf("%d%%", c.ROIPercent)},
		{"Payback Period", fmt.Sprintf("%d months", str8up.PaybackMonths(c))},
	}
	d := w.doc
	for i, row := range rows {
		fill := i%2 == 0
		d.SetFillColor(240, 249, 247)
		d.CellFormat(110, 8, w.tr(row[0]), "", 0, "L", fill, 0, "")
		d.CellFormat(0, 8, w.tr(row[1]), "", 1, "R", fill, 0, "")
	}
}

func (w *writer) timeline(phases []str8up.TimelinePhase) {
	w.section("Implementation Timeline")
	total := 0
	for i, p := range phases {
		total += p.DurationMonths
		unit := "months"
		if p.DurationMonths == 1 {
			unit = "month"
		}
		w.labeled(fmt.Sprintf("Phase %d: %s (%d %s)", i+1, p.Phase, p.DurationMonths, unit), p.Details)
	}
	w.labeled("Total Duration", fmt.Sprintf("%d months", total))
}

func (w *writer) risk(r str8up.RiskAssessment) {
	w.section("Risk Assessment")
	w.labeled("Technical Risk", r.Technical)
	w.labeled("Business Risk", r.Business)
	w.labeled("Overall Risk Likelihood", strings.ToUpper(string(r.Likelihood)))
}

func (w *writer) recommendations(recs []str8up.Recommendation) {
	w.section("Technical Recommendations")
	if len(recs) == 0 {
		w.paragraph("No recommendations were returned.")
		return
	}
	for _, rec := range recs {
		w.labeled(fmt.Sprintf("[%s] %s", strings.ToUpper(string(rec.Priority)), rec.Title), rec.Description)
	}
}

func (w *writer) strategy(s str8up.Strategy) {
	w.section("Modernization Strategy")
	w.labeled("Recommended Approach", s.Approach)
	w.paragraph(s.Summary)
}

func (w *writer) compliance(items []str8up.ComplianceItem) {
	w.section("Compliance Alignment")
	for _, item := range items {
		w.labeled(fmt.Sprintf("%s (%s)", item.Standard, item.Status), item.Details)
	}
}

func (w *writer) nextSteps(steps []string) {
	w.section("Next Steps")
	for i, step := range steps {
		w.paragraph(fmt.Sprintf("%d. %s", i+1, step))
	}
}
