package str8up

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	notAvailable       = "N/A"
	genericPhaseDetail = "Scope for this phase will be confirmed with your delivery team."
	defaultRecTitle    = "General"
)

// remote roadmap phases and their fixed durations
var remotePhases = []struct {
	key    string
	name   string
	months int
}{
	{"phase_1", "Foundation", 2},
	{"phase_2", "Implementation", 3},
	{"phase_3", "Optimization", 2},
}

// object is a loosely decoded JSON object. Every accessor falls back to a
// zero value when the key is missing or has the wrong type.
type object map[string]json.RawMessage

func decodeObject(raw json.RawMessage) object {
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return object{}
	}
	return o
}

func (o object) object(key string) object {
	if v, ok := o[key]; ok {
		return decodeObject(v)
	}
	return object{}
}

func (o object) str(key string) string {
	var s string
	if v, ok := o[key]; ok && json.Unmarshal(v, &s) == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

// number accepts a JSON number or a numeric string.
func (o object) number(key string) (float64, bool) {
	v, ok := o[key]
	if !ok || string(v) == "null" {
		return 0, false
	}
	var f float64
	if json.Unmarshal(v, &f) == nil {
		return f, true
	}
	var s string
	if json.Unmarshal(v, &s) == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func (o object) list(key string) []json.RawMessage {
	var items []json.RawMessage
	if v, ok := o[key]; ok && json.Unmarshal(v, &items) == nil {
		return items
	}
	return nil
}

func (o object) strings(key string) []string {
	out := []string{}
	for _, item := range o.list(key) {
		var s string
		if json.Unmarshal(item, &s) == nil && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// Transform maps the remote analysis document into an AnalysisReport.
// It never fails: missing or malformed fields become placeholders and the
// financial figures are always recomputed from the onboarding input.
func Transform(sessionID string, raw json.RawMessage, in OnboardingInput, generatedAt time.Time) *AnalysisReport {
	doc := decodeObject(raw)
	roadmap := doc.object("implementation_roadmap")

	report := &AnalysisReport{
		SessionID:  sessionID,
		Calculator: ComputeFinancials(in.BudgetBracket, in.Complexity),
		Narrative: Narrative{
			Timeline:                 transformTimeline(roadmap),
			RiskAssessment:           transformRisk(doc.object("risk_assessment")),
			TechnicalRecommendations: transformRecommendations(doc.list("recommendations")),
			ModernizationStrategy:    strategyFor(in),
			ComplianceAlignment:      complianceFor(in.Compliance),
			NextSteps:                roadmap.strings("phase_1"),
		},
		Meta: ReportMeta{GeneratedAt: generatedAt},
	}

	if len(report.Narrative.NextSteps) == 0 {
		report.Narrative.NextSteps = defaultNextSteps(in.CloudProvider)
	}
	if score, ok := doc.number("overall_score"); ok && !math.IsNaN(score) {
		report.Meta.OverallScore = int(math.Round(math.Max(0, math.Min(100, score))))
	}
	return report
}

func transformTimeline(roadmap object) []TimelinePhase {
	timeline := make([]TimelinePhase, 0, len(remotePhases))
	for _, p := range remotePhases {
		details := strings.Join(roadmap.strings(p.key), ", ")
		if details == "" {
			details = genericPhaseDetail
		}
		timeline = append(timeline, TimelinePhase{Phase: p.name, DurationMonths: p.months, Details: details})
	}
	return timeline
}

func transformRecommendations(items []json.RawMessage) []Recommendation {
	recs := make([]Recommendation, 0, len(items))
	for _, item := range items {
		o := decodeObject(item)
		if len(o) == 0 {
			continue
		}

		title := o.str("category")
		if title == "" {
			title = defaultRecTitle
		}

		description := o.str("description")
		if impact := o.str("impact"); impact != "" {
			if description == "" {
				description = impact
			} else {
				description = description + ". " + impact
			}
		}

		recs = append(recs, Recommendation{
			Title:       title,
			Description: description,
			Priority:    ParsePriority(o.str("priority")),
		})
	}
	return recs
}

// ParsePriority normalizes a priority, defaulting to medium.
func ParsePriority(s string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return p
	default:
		return PriorityMedium
	}
}

func scoreText(o object, key string) string {
	if f, ok := o.number(key); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return notAvailable
}

func transformRisk(risk object) RiskAssessment {
	return RiskAssessment{
		Technical: fmt.Sprintf("Security posture scored %s and compliance readiness scored %s out of 100 in the automated review.",
			scoreText(risk, "security_score"), scoreText(risk, "compliance_score")),
		Business: fmt.Sprintf("Cost efficiency scored %s out of 100; closing that gap is what drives the projected savings.",
			scoreText(risk, "cost_efficiency")),
		// the remote schema carries no likelihood
		Likelihood: RiskMedium,
	}
}
