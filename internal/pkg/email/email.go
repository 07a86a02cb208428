package email

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/zahlentech/str8up_server/config"
	"github.com/zahlentech/str8up_server/internal/str8up"
)

type Service struct {
	cfg     *config.EmailConfig
	siteURL string
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewService(cfg *config.EmailConfig, siteURL string) *Service {
	return &Service{cfg: cfg, siteURL: siteURL, send: smtp.SendMail}
}

// SendResults emails the analysis report as HTML with a plain text part.
func (s *Service) SendResults(to, recipientName string, r *str8up.AnalysisReport) error {
	html, err := renderResultsHTML(resultsView(recipientName, r, s.siteURL))
	if err != nil {
		return err
	}
	text := greeting(recipientName) + "\n\n" + str8up.RenderMarkdown(r)
	if s.siteURL != "" {
		text += "\nBook your strategy call: " + s.siteURL + "\n"
	}
	return s.sendAlternative(to, str8up.EmailSubject(r.Meta.OverallScore), text, html)
}

// SendLeadConfirmation thanks the visitor after the CTA form.
func (s *Service) SendLeadConfirmation(to, name string) error {
	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, struct{ Greeting string }{greeting(name)}); err != nil {
		return fmt.Errorf("render confirmation email: %w", err)
	}
	return s.sendHTML(to, "Thanks for your interest in str8up Map", body.String())
}

func greeting(name string) string {
	if name == "" {
		return "Hello,"
	}
	return "Dear " + name + ","
}

func (s *Service) sendHTML(to, subject, body string) error {
	var msg bytes.Buffer
	writeHeaders(&msg, [][2]string{
		{"From", s.cfg.From},
		{"To", to},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	})
	msg.WriteString(body)
	return s.deliver(to, msg.Bytes())
}

func (s *Service) sendAlternative(to, subject, text, html string) error {
	msg, err := buildAlternative(s.cfg.From, to, subject, text, html)
	if err != nil {
		return err
	}
	return s.deliver(to, msg)
}

func (s *Service) deliver(to string, msg []byte) error {
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	if err := s.send(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// buildAlternative assembles a multipart/alternative message.
func buildAlternative(from, to, subject, text, html string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	parts := []struct{ contentType, content string }{
		{"text/plain; charset=UTF-8", text},
		{"text/html; charset=UTF-8", html},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.contentType}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var msg bytes.Buffer
	writeHeaders(&msg, [][2]string{
		{"From", from},
		{"To", to},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "multipart/alternative; boundary=" + mw.Boundary()},
	})
	msg.Write(body.Bytes())
	return msg.Bytes(), nil
}

func writeHeaders(b *bytes.Buffer, headers [][2]string) {
	for _, h := range headers {
		fmt.Fprintf(b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
}

type financialRow struct {
	Label, Value string
	Highlight    bool
}

type resultsData struct {
	Greeting    string
	Score       int
	Financials  []financialRow
	Report      *str8up.AnalysisReport
	TotalMonths int
	CTAURL      string
}

func resultsView(name string, r *str8up.AnalysisReport, ctaURL string) resultsData {
	c := r.Calculator
	total := 0
	for _, p := range r.Narrative.Timeline {
		total += p.DurationMonths
	}
	return resultsData{
		Greeting: greeting(name),
		Score:    r.Meta.OverallScore,
		Financials: []financialRow{
			{Label: "Estimated Annual Spend", Value: str8up.FormatCurrency(c.BaseSpend)},
			{Label: fmt.Sprintf("Identified Waste (%.0f%%)", c.WasteFactor*100), Value: str8up.FormatCurrency(c.WasteAmount)},
			{Label: "Projected Annual Savings", Value: str8up.FormatCurrency(c.ProjectedAnnualSavings), Highlight: true},
			{Label: "Transformation Investment", Value: str8up.FormatCurrency(c.TransformationCost)},
			{Label: "Return on Investment", Value: fmt.Sprintf("%d%%", c.ROIPercent), Highlight: true},
			{Label: "Payback Period", Value: fmt.Sprintf("%d months", str8up.PaybackMonths(c))},
		},
		Report:      r,
		TotalMonths: total,
		CTAURL:      ctaURL,
	}
}

func renderResultsHTML(data resultsData) (string, error) {
	var b strings.Builder
	if err := resultsTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render results email: %w", err)
	}
	return b.String(), nil
}

var funcs = template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"upper": strings.ToUpper,
	"months": func(n int) string {
		if n == 1 {
			return "1 month"
		}
		return fmt.Sprintf("%d months", n)
	},
}

var resultsTmpl = template.Must(template.New("results").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Your str8up Map Analysis Results</title></head>
<body style="margin:0;padding:0;font-family:Arial,sans-serif;background-color:#f5f5f5;color:#1C2833;">
<div style="max-width:600px;margin:0 auto;background-color:#ffffff;">
  <div style="background-color:#8B4513;padding:32px;text-align:center;">
    <h1 style="margin:0;color:#ffffff;letter-spacing:2px;">ZAHLENTECH</h1>
    <p style="margin:8px 0 0 0;color:#FFA500;">STR8UP MAP ANALYSIS</p>
  </div>
  <div style="padding:24px 30px;">
    <p>{{.Greeting}}</p>
    <p>Thank you for completing the str8up Map modernization assessment. We've analyzed your infrastructure and generated a margin-first modernization strategy tailored to your organization.</p>
    <div style="background-color:#009B77;color:#ffffff;text-align:center;padding:20px;border-radius:8px;">
      <p style="margin:0;text-transform:uppercase;">Modernization Readiness Score</p>
      <h2 style="margin:8px 0 0 0;font-size:48px;">{{.Score}}%</h2>
    </div>
    <h2>Financial Impact Summary</h2>
    <table style="width:100%;border-collapse:collapse;">
    {{- range .Financials}}
      <tr><td style="padding:8px 0;"><strong>{{.Label}}:</strong></td><td style="padding:8px 0;text-align:right;{{if .Highlight}}color:#009B77;font-weight:bold;{{end}}">{{.Value}}</td></tr>
    {{- end}}
    </table>
    <h2>Implementation Timeline</h2>
    {{- range $i, $p := .Report.Narrative.Timeline}}
    <p><strong>Phase {{inc $i}}: {{$p.Phase}}</strong> ({{months $p.DurationMonths}})<br>{{$p.Details}}</p>
    {{- end}}
    <p><strong>Total Duration:</strong> {{.TotalMonths}} months</p>
    <h2>Risk Assessment</h2>
    <p><strong>Technical Risk:</strong> {{.Report.Narrative.RiskAssessment.Technical}}</p>
    <p><strong>Business Risk:</strong> {{.Report.Narrative.RiskAssessment.Business}}</p>
    <p><strong>Overall Risk Likelihood:</strong> {{upper (print .Report.Narrative.RiskAssessment.Likelihood)}}</p>
    <h2>Technical Recommendations</h2>
    {{- range .Report.Narrative.TechnicalRecommendations}}
    <p><span style="text-transform:uppercase;">[{{.Priority}}]</span> <strong>{{.Title}}</strong><br>{{.Description}}</p>
    {{- else}}
    <p>No recommendations were returned.</p>
    {{- end}}
    <h2>Modernization Strategy</h2>
    <p><strong>Recommended Approach:</strong> {{.Report.Narrative.ModernizationStrategy.Approach}}</p>
    <p>{{.Report.Narrative.ModernizationStrategy.Summary}}</p>
    {{- if .Report.Narrative.ComplianceAlignment}}
    <h2>Compliance Alignment</h2>
    {{- range .Report.Narrative.ComplianceAlignment}}
    <p><strong>{{.Standard}}</strong> ({{.Status}})<br>{{.Details}}</p>
    {{- end}}
    {{- end}}
    <h2>Next Steps</h2>
    <ol>
    {{- range .Report.Narrative.NextSteps}}
      <li>{{.}}</li>
    {{- end}}
    </ol>
    {{- if .CTAURL}}
    <p style="text-align:center;"><a href="{{.CTAURL}}" style="background-color:#009B77;color:#ffffff;padding:12px 30px;text-decoration:none;border-radius:5px;">Book Your Strategy Call</a></p>
    {{- end}}
    <hr style="border:none;border-top:1px solid #e5e7eb;">
    <p style="color:#6b7280;font-size:12px;">This email was sent automatically. Please do not reply.</p>
  </div>
</div>
</body>
</html>
`))

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family:Arial,sans-serif;line-height:1.6;color:#333;">
  <div style="max-width:600px;margin:0 auto;padding:20px;">
    <h2 style="color:#009B77;">Thank you!</h2>
    <p>{{.Greeting}}</p>
    <p>We received your request. A Zahlentech modernization specialist will contact you within one business day to schedule your strategy call.</p>
    <hr style="border:none;border-top:1px solid #e5e7eb;margin:20px 0;">
    <p style="color:#6b7280;font-size:12px;">This email was sent automatically. Please do not reply.</p>
  </div>
</body>
</html>
`))
