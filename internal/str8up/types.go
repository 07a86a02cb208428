// Package str8up holds the str8up Map domain: onboarding input, the
// financial Calculator, the Mock Analysis Generator and the Response
// Transformer that turns the remote analysis payload into an AnalysisReport.
//
// Everything in this package is pure. Nothing here performs I/O or reads
// the clock; callers pass generation timestamps in.
package str8up

import (
	"fmt"
	"strings"
	"time"
)

type BusinessSize string

const (
	BusinessSmall  BusinessSize = "small"
	BusinessMedium BusinessSize = "medium"
	BusinessLarge  BusinessSize = "large"
)

type CloudProvider string

const (
	CloudAWS    CloudProvider = "aws"
	CloudAzure  CloudProvider = "azure"
	CloudGCP    CloudProvider = "gcp"
	CloudHybrid CloudProvider = "hybrid"
)

type BudgetBracket string

const (
	BudgetUnder100k BudgetBracket = "under100k"
	Budget100kTo500 BudgetBracket = "100k-500k"
	Budget500kTo1m  BudgetBracket = "500k-1m"
	Budget1mTo5m    BudgetBracket = "1m-5m"
	BudgetOver5m    BudgetBracket = "over5m"
)

// RiskLevel is used both for the visitor's risk tolerance and for the
// likelihood field of a risk assessment.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type Compliance string

const (
	ComplianceNone     Compliance = "none"
	ComplianceHIPAA    Compliance = "hipaa"
	CompliancePCI      Compliance = "pci"
	ComplianceSOX      Compliance = "sox"
	ComplianceGDPR     Compliance = "gdpr"
	ComplianceMultiple Compliance = "multiple"
)

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

var (
	BusinessSizes  = []BusinessSize{BusinessSmall, BusinessMedium, BusinessLarge}
	CloudProviders = []CloudProvider{CloudAWS, CloudAzure, CloudGCP, CloudHybrid}
	BudgetBrackets = []BudgetBracket{BudgetUnder100k, Budget100kTo500, Budget500kTo1m, Budget1mTo5m, BudgetOver5m}
	RiskLevels     = []RiskLevel{RiskLow, RiskMedium, RiskHigh}
	Compliances    = []Compliance{ComplianceNone, ComplianceHIPAA, CompliancePCI, ComplianceSOX, ComplianceGDPR, ComplianceMultiple}
)

// OnboardingInput is what the visitor fills in during the Onboarding stage.
type OnboardingInput struct {
	BusinessSize  BusinessSize  `json:"business_size" yaml:"business_size"`
	CloudProvider CloudProvider `json:"cloud_provider" yaml:"cloud_provider"`
	Complexity    int           `json:"complexity" yaml:"complexity"`
	BudgetBracket BudgetBracket `json:"budget" yaml:"budget"`
	RiskTolerance RiskLevel     `json:"risk_tolerance" yaml:"risk_tolerance"`
	Compliance    Compliance    `json:"compliance" yaml:"compliance"`
}

// Status of a remote analysis. Stored lower-case, sent upper-case.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus accepts either the wire (upper-case) or internal form.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown analysis status %q", s)
	}
}

// Wire returns the upper-case form used on the HTTP API.
func (s Status) Wire() string {
	return strings.ToUpper(string(s))
}

// Terminal reports whether no further status change can happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ProcessingStatus is one observation of a running analysis.
type ProcessingStatus struct {
	Status                    Status `json:"status"`
	Progress                  int    `json:"progress"`
	CurrentStep               string `json:"current_step,omitempty"`
	EstimatedSecondsRemaining int    `json:"estimated_seconds_remaining,omitempty"`
}

type CalculatorData struct {
	BaseSpend              int64   `json:"estimated_base_spend" yaml:"estimated_base_spend"`
	WasteFactor            float64 `json:"waste_factor" yaml:"waste_factor"`
	WasteAmount            int64   `json:"estimated_waste" yaml:"estimated_waste"`
	ProjectedAnnualSavings int64   `json:"projected_annual_savings" yaml:"projected_annual_savings"`
	TransformationCost     int64   `json:"estimated_transformation_cost" yaml:"estimated_transformation_cost"`
	ROIPercent             int64   `json:"roi_percent" yaml:"roi_percent"`
}

type TimelinePhase struct {
	Phase          string `json:"phase" yaml:"phase"`
	DurationMonths int    `json:"duration_months" yaml:"duration_months"`
	Details        string `json:"details" yaml:"details"`
}

type RiskAssessment struct {
	Technical  string    `json:"technical" yaml:"technical"`
	Business   string    `json:"business" yaml:"business"`
	Likelihood RiskLevel `json:"likelihood" yaml:"likelihood"`
}

type Recommendation struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Priority    Priority `json:"priority" yaml:"priority"`
}

type Strategy struct {
	Approach string `json:"approach" yaml:"approach"`
	Summary  string `json:"summary" yaml:"summary"`
}

type ComplianceItem struct {
	Standard string `json:"standard" yaml:"standard"`
	Status   string `json:"status" yaml:"status"`
	Details  string `json:"details" yaml:"details"`
}

type Narrative struct {
	Timeline                 []TimelinePhase  `json:"timeline" yaml:"timeline"`
	RiskAssessment           RiskAssessment   `json:"risk_assessment" yaml:"risk_assessment"`
	TechnicalRecommendations []Recommendation `json:"technical_recommendations" yaml:"technical_recommendations"`
	ModernizationStrategy    Strategy         `json:"modernization_strategy" yaml:"modernization_strategy"`
	ComplianceAlignment      []ComplianceItem `json:"compliance_alignment" yaml:"compliance_alignment"`
	NextSteps                []string         `json:"next_steps" yaml:"next_steps"`
}

type ReportMeta struct {
	OverallScore int       `json:"overall_score" yaml:"overall_score"`
	GeneratedAt  time.Time `json:"generated_at" yaml:"generated_at"`
}

// AnalysisReport is the full result shown on the Results stage.
type AnalysisReport struct {
	SessionID  string         `json:"session_id" yaml:"session_id"`
	Calculator CalculatorData `json:"calculator" yaml:"calculator"`
	Narrative  Narrative      `json:"narrative" yaml:"narrative"`
	Meta       ReportMeta     `json:"meta" yaml:"meta"`
}

// LeadSubmission is the contact form sent from the CTA stage.
type LeadSubmission struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company,omitempty"`
	Phone     string `json:"phone,omitempty"`
}
