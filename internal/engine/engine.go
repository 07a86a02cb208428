// Package engine produces the analysis document the service returns from
// GET /analysis/:sessionId. It is deterministic: the same onboarding input
// always yields the same document.
package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/zahlentech/str8up_server/internal/pkg/pubsub"
	"github.com/zahlentech/str8up_server/internal/str8up"
)

// Recommendation is one remote recommendation entry.
type Recommendation struct {
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
	Impact      string `json:"impact"`
}

type RiskScores struct {
	SecurityScore   int `json:"security_score"`
	ComplianceScore int `json:"compliance_score"`
	CostEfficiency  int `json:"cost_efficiency"`
}

type Roadmap struct {
	Phase1 []string `json:"phase_1"`
	Phase2 []string `json:"phase_2"`
	Phase3 []string `json:"phase_3"`
}

// Result is the wire document of a completed analysis.
type Result struct {
	OverallScore          int              `json:"overall_score"`
	Recommendations       []Recommendation `json:"recommendations"`
	RiskAssessment        RiskScores       `json:"risk_assessment"`
	ImplementationRoadmap Roadmap          `json:"implementation_roadmap"`
}

// StepFunc is called before each analysis step. Returning an error aborts the run.
type StepFunc func(ctx context.Context, step string) error

// Run executes the analysis step by step.
func Run(ctx context.Context, in str8up.OnboardingInput, onStep StepFunc) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if onStep == nil {
		onStep = func(context.Context, string) error { return nil }
	}

	var (
		calc   str8up.CalculatorData
		scores RiskScores
		result = &Result{}
	)
	steps := []struct {
		name string
		run  func()
	}{
		{pubsub.StepCollecting, func() { calc = str8up.ComputeFinancials(in.BudgetBracket, in.Complexity) }},
		{pubsub.StepBenchmarking, func() { scores.CostEfficiency = costEfficiency(calc) }},
		{pubsub.StepScoring, func() {
			scores.SecurityScore = securityScore(in)
			scores.ComplianceScore = complianceScore(in)
			result.RiskAssessment = scores
			result.OverallScore = overallScore(scores)
		}},
		{pubsub.StepRoadmap, func() {
			result.Recommendations = recommendations(in, calc, scores)
			result.ImplementationRoadmap = roadmap(in)
		}},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := onStep(ctx, s.name); err != nil {
			return nil, fmt.Errorf("step %s: %w", s.name, err)
		}
		s.run()
	}
	return result, nil
}

// Analyze runs every step without callbacks.
func Analyze(in str8up.OnboardingInput) (*Result, error) {
	return Run(context.Background(), in, nil)
}

func clamp(v float64) int {
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

// costEfficiency maps the waste factor 0.15..0.30 onto 70..40.
func costEfficiency(c str8up.CalculatorData) int {
	return clamp(100 - c.WasteFactor*200)
}

func securityScore(in str8up.OnboardingInput) int {
	score := 82 - float64(in.Complexity)*0.2
	if in.CloudProvider == str8up.CloudHybrid {
		score -= 6
	}
	if in.Compliance != str8up.ComplianceNone {
		// regulated shops already run baseline controls
		score += 4
	}
	if in.RiskTolerance == str8up.RiskHigh {
		score -= 5
	}
	return clamp(score)
}

func complianceScore(in str8up.OnboardingInput) int {
	switch in.Compliance {
	case str8up.ComplianceNone:
		return 90
	case str8up.ComplianceMultiple:
		return clamp(68 - float64(in.Complexity)*0.15)
	default:
		return clamp(76 - float64(in.Complexity)*0.1)
	}
}

func overallScore(s RiskScores) int {
	return clamp(0.4*float64(s.SecurityScore) + 0.3*float64(s.ComplianceScore) + 0.3*float64(s.CostEfficiency))
}

var commitmentPrograms = map[str8up.CloudProvider]string{
	str8up.CloudAWS:    "Savings Plans and Reserved Instances",
	str8up.CloudAzure:  "Azure Reservations and Savings Plans",
	str8up.CloudGCP:    "Committed Use Discounts",
	str8up.CloudHybrid: "per-environment capacity commitments",
}

func recommendations(in str8up.OnboardingInput, c str8up.CalculatorData, s RiskScores) []Recommendation {
	recs := make([]Recommendation, 0, 5)

	costPriority := str8up.PriorityMedium
	if s.CostEfficiency < 55 {
		costPriority = str8up.PriorityHigh
	}
	recs = append(recs, Recommendation{
		Category:    "Cost Governance",
		Priority:    string(costPriority),
		Description: fmt.Sprintf("Introduce budgets, tagging and rightsizing reviews, and cover steady workloads with %s", commitmentPrograms[in.CloudProvider]),
		Impact:      fmt.Sprintf("Recovers up to %s of the estimated %s annual waste", str8up.FormatCurrency(c.ProjectedAnnualSavings), str8up.FormatCurrency(c.WasteAmount)),
	})

	if in.Complexity >= 50 {
		priority := str8up.PriorityMedium
		if in.Complexity >= 75 {
			priority = str8up.PriorityHigh
		}
		recs = append(recs, Recommendation{
			Category:    "Architecture Simplification",
			Priority:    string(priority),
			Description: "Consolidate overlapping services and retire legacy integration layers",
			Impact:      "Shorter delivery cycles and a smaller operational surface",
		})
	}

	if s.SecurityScore < 75 {
		priority := str8up.PriorityHigh
		if s.SecurityScore < 60 {
			priority = str8up.PriorityCritical
		}
		recs = append(recs, Recommendation{
			Category:    "Security Hardening",
			Priority:    string(priority),
			Description: "Centralize identity, enforce least privilege and enable continuous posture monitoring",
			Impact:      fmt.Sprintf("Raises the security score from %d toward the 80+ benchmark", s.SecurityScore),
		})
	}

	if in.Compliance != str8up.ComplianceNone {
		recs = append(recs, Recommendation{
			Category:    "Compliance Automation",
			Priority:    string(str8up.PriorityHigh),
			Description: "Codify controls as policy and collect audit evidence automatically",
			Impact:      "Audit preparation drops from weeks to days",
		})
	}

	if in.RiskTolerance == str8up.RiskLow {
		recs = append(recs, Recommendation{
			Category:    "Migration Safety",
			Priority:    string(str8up.PriorityMedium),
			Description: "Run a pilot on a non-critical workload with tested rollback before each wave",
			Impact:      "Keeps change risk within a low tolerance",
		})
	}
	return recs
}

func roadmap(in str8up.OnboardingInput) Roadmap {
	r := Roadmap{
		Phase1: []string{"Inventory workloads and owners", "Establish cost allocation tags"},
		Phase2: []string{"Rightsize over-provisioned compute", "Migrate stateless services to managed platforms"},
		Phase3: []string{"Enable autoscaling and scheduling", "Adopt continuous cost reviews"},
	}
	if in.Compliance != str8up.ComplianceNone {
		r.Phase1 = append(r.Phase1, "Map controls to "+string(in.Compliance)+" requirements")
	}
	if in.Complexity >= 75 {
		r.Phase2 = append(r.Phase2, "Decompose the highest-churn legacy systems")
	}
	if in.CloudProvider == str8up.CloudHybrid {
		r.Phase3 = append(r.Phase3, "Rebalance workload placement across environments")
	}
	return r
}
