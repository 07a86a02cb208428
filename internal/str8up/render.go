package str8up

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency renders whole US dollars with thousands separators.
func FormatCurrency(v int64) string {
	if v < 0 {
		return printer.Sprintf("-$%d", -v)
	}
	return printer.Sprintf("$%d", v)
}

// EmailSubject picks the results email subject from the overall score.
func EmailSubject(score int) string {
	switch {
	case score >= 90:
		return "Your str8up Map: Excellent Modernization Readiness"
	case score >= 75:
		return "Your str8up Map: Strong Modernization Potential"
	case score >= 60:
		return "Your str8up Map: Modernization Strategy Ready"
	default:
		return "Your str8up Map: Transformation Opportunity Identified"
	}
}

// RenderMarkdown renders the report as a markdown document.
func RenderMarkdown(r *AnalysisReport) string {
	var b strings.Builder
	c := r.Calculator
	n := r.Narrative

	fmt.Fprintf(&b, "# str8up Map Analysis\n\n")
	fmt.Fprintf(&b, "**Overall score:** %d/100  \n", r.Meta.OverallScore)
	if !r.Meta.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "**Generated:** %s  \n", r.Meta.GeneratedAt.Format("January 2, 2006"))
	}
	if r.SessionID != "" {
		fmt.Fprintf(&b, "**Session:** `%s`\n", r.SessionID)
	}

	b.WriteString("\n## Financial projection\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Estimated annual spend | %s |\n", FormatCurrency(c.BaseSpend))
	fmt.Fprintf(&b, "| Waste factor | %.0f%% |\n", c.WasteFactor*100)
	fmt.Fprintf(&b, "| Estimated waste | %s |\n", FormatCurrency(c.WasteAmount))
	fmt.Fprintf(&b, "| Projected annual savings | %s |\n", FormatCurrency(c.ProjectedAnnualSavings))
	fmt.Fprintf(&b, "| Transformation cost | %s |\n", FormatCurrency(c.TransformationCost))
	fmt.Fprintf(&b, "| ROI | %d%% |\n", c.ROIPercent)
	fmt.Fprintf(&b, "| Payback | %d months |\n", PaybackMonths(c))

	b.WriteString("\n## Timeline\n\n")
	for i, p := range n.Timeline {
		fmt.Fprintf(&b, "%d. **%s** (%d mo): %s\n", i+1, p.Phase, p.DurationMonths, p.Details)
	}

	b.WriteString("\n## Risk assessment\n\n")
	fmt.Fprintf(&b, "- **Technical:** %s\n", n.RiskAssessment.Technical)
	fmt.Fprintf(&b, "- **Business:** %s\n", n.RiskAssessment.Business)
	fmt.Fprintf(&b, "- **Likelihood:** %s\n", strings.ToUpper(string(n.RiskAssessment.Likelihood)))

	b.WriteString("\n## Recommendations\n\n")
	if len(n.TechnicalRecommendations) == 0 {
		b.WriteString("_No recommendations were returned._\n")
	}
	for _, rec := range n.TechnicalRecommendations {
		fmt.Fprintf(&b, "- **%s** [%s]: %s\n", rec.Title, rec.Priority, rec.Description)
	}

	b.WriteString("\n## Modernization strategy\n\n")
	fmt.Fprintf(&b, "%s\n\n%s\n", n.ModernizationStrategy.Approach, n.ModernizationStrategy.Summary)

	if len(n.ComplianceAlignment) > 0 {
		b.WriteString("\n## Compliance\n\n")
		for _, item := range n.ComplianceAlignment {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", item.Standard, item.Status, item.Details)
		}
	}

	b.WriteString("\n## Next steps\n\n")
	for i, step := range n.NextSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return b.String()
}
