package str8up

import (
	"fmt"
	"math"
	"strings"
	"time"
)

func providerLabel(p CloudProvider) string {
	return strings.ToUpper(string(p))
}

// GenerateReport synthesizes a full report from the onboarding input alone.
// It is deterministic: identical arguments give identical reports.
func GenerateReport(sessionID string, in OnboardingInput, generatedAt time.Time) *AnalysisReport {
	cf := float64(clampComplexity(in.Complexity)) / 100
	provider := providerLabel(in.CloudProvider)

	return &AnalysisReport{
		SessionID:  sessionID,
		Calculator: ComputeFinancials(in.BudgetBracket, in.Complexity),
		Narrative: Narrative{
			Timeline: []TimelinePhase{
				{
					Phase:          "Assessment",
					DurationMonths: 1,
					Details:        fmt.Sprintf("Conduct a detailed assessment of the current %s infrastructure, including cost analysis, performance metrics, and security posture.", provider),
				},
				{
					Phase:          "Planning",
					DurationMonths: 1,
					Details:        "Develop a detailed modernization plan focusing on cost optimization, performance improvement, and scalability.",
				},
				{
					Phase:          "Implementation",
					DurationMonths: int(math.Ceil(2 + cf*3)),
					Details:        "Execute the modernization plan, including migrating to more cost-effective services, implementing automation, and enhancing security measures.",
				},
				{
					Phase:          "Optimization",
					DurationMonths: 1,
					Details:        "Fine-tune the infrastructure for optimal performance and cost efficiency. Implement monitoring and alerting systems.",
				},
				{
					Phase:          "Review",
					DurationMonths: 1,
					Details:        "Conduct a post-implementation review to ensure all objectives are met and identify areas for further improvement.",
				},
			},
			RiskAssessment: mockRisk(in, provider),
			TechnicalRecommendations: []Recommendation{
				{
					Title:       "Cost Optimization",
					Description: fmt.Sprintf("Leverage %s cost management tools to identify underutilized resources and implement Reserved Instances or Savings Plans where applicable.", provider),
					Priority:    PriorityHigh,
				},
				{
					Title:       "Performance Enhancement",
					Description: "Utilize auto-scaling and load balancing to ensure applications can handle varying loads efficiently.",
					Priority:    PriorityMedium,
				},
				{
					Title:       "Security Improvement",
					Description: "Implement Identity and Access Management (IAM) best practices and enable advanced threat protection.",
					Priority:    PriorityHigh,
				},
			},
			ModernizationStrategy: strategyFor(in),
			ComplianceAlignment:   complianceFor(in.Compliance),
			NextSteps:             defaultNextSteps(in.CloudProvider),
		},
		Meta: ReportMeta{
			OverallScore: mockScore(in),
			GeneratedAt:  generatedAt,
		},
	}
}

func mockRisk(in OnboardingInput, provider string) RiskAssessment {
	tolerance := string(in.RiskTolerance)
	if tolerance == "" {
		tolerance = "moderate"
	}
	mitigation := "A phased migration approach will help mitigate these risks."
	if in.RiskTolerance == RiskLow {
		mitigation = "However, using proven cloud services significantly reduces these risks."
	}
	business := "low"
	if in.RiskTolerance == RiskHigh {
		business = "moderate"
	}
	likelihood := in.RiskTolerance
	if likelihood == "" {
		likelihood = RiskMedium
	}

	return RiskAssessment{
		Technical:  fmt.Sprintf("The technical risk is %s due to %s infrastructure dependencies and migration complexity. %s", tolerance, provider, mitigation),
		Business:   fmt.Sprintf("The business risk is %s as the modernization is aimed at cost reduction and performance improvement, aligning with business goals.", business),
		Likelihood: likelihood,
	}
}

// mockScore is floor(90 - 15*complexity/100 - 5 for high risk), kept in [0,100].
func mockScore(in OnboardingInput) int {
	cf := float64(clampComplexity(in.Complexity)) / 100
	score := 90 - cf*15
	if in.RiskTolerance == RiskHigh {
		score -= 5
	}
	return clampScore(int(math.Floor(score)))
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func strategyFor(in OnboardingInput) Strategy {
	provider := providerLabel(in.CloudProvider)
	profile := string(in.RiskTolerance)
	if profile == "" {
		profile = string(RiskLow)
	}
	return Strategy{
		Approach: fmt.Sprintf("Adopt a phased approach focusing on cost optimization, performance enhancement, and security improvement using %s native tools and services.", provider),
		Summary:  fmt.Sprintf("The strategy aims to modernize the %s infrastructure by optimizing costs, improving performance, and enhancing security, while maintaining a %s risk profile.", provider, profile),
	}
}

func complianceFor(c Compliance) []ComplianceItem {
	if c == "" || c == ComplianceNone {
		return []ComplianceItem{}
	}
	standard := strings.ToUpper(string(c))
	return []ComplianceItem{{
		Standard: standard,
		Status:   "Requires Assessment",
		Details:  fmt.Sprintf("Compliance with %s standards will be evaluated during the assessment phase.", standard),
	}}
}

func defaultNextSteps(p CloudProvider) []string {
	provider := providerLabel(p)
	return []string{
		fmt.Sprintf("Initiate the assessment phase by gathering current %s usage data and performance metrics.", provider),
		fmt.Sprintf("Engage with %s experts to validate the modernization plan and ensure alignment with best practices.", provider),
		"Begin the implementation phase with a focus on quick wins in cost savings and performance improvements.",
	}
}
