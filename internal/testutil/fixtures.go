package testutil

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zahlentech/str8up_server/internal/model"
)

// SampleAnalysis is a remote analysis document as the engine produces it.
const SampleAnalysis = `{
	"overall_score": 81,
	"recommendations": [
		{"category": "Cost Governance", "priority": "high", "description": "Introduce budgets and tagging", "impact": "Visibility into 100% of spend"}
	],
	"risk_assessment": {"security_score": 70, "compliance_score": 85, "cost_efficiency": 62},
	"implementation_roadmap": {
		"phase_1": ["Inventory workloads"],
		"phase_2": ["Migrate stateless services"],
		"phase_3": ["Enable autoscaling"]
	}
}`

// TestAssessment creates an assessment session.
func TestAssessment(t *testing.T, db *gorm.DB, opts ...func(*model.Assessment)) *model.Assessment {
	t.Helper()

	a := &model.Assessment{
		SessionID:     uuid.NewString(),
		BusinessSize:  "medium",
		CloudProvider: "azure",
		Complexity:    60,
		Budget:        "500k-1m",
		RiskTolerance: "medium",
		Compliance:    "none",
		Status:        "pending",
		ExpiresAt:     time.Now().Add(24 * time.Hour),
	}

	for _, opt := range opts {
		opt(a)
	}

	if err := db.Create(a).Error; err != nil {
		t.Fatalf("Failed to create test assessment: %v", err)
	}

	return a
}

// WithStatus sets status and progress.
func WithStatus(status string, progress int) func(*model.Assessment) {
	return func(a *model.Assessment) {
		a.Status = status
		a.Progress = progress
	}
}

// WithResult marks the assessment completed with the given document.
func WithResult(doc string) func(*model.Assessment) {
	return func(a *model.Assessment) {
		now := time.Now()
		a.Status = "completed"
		a.Progress = 100
		a.Result = model.JSONDocument(json.RawMessage(doc))
		a.CompletedAt = &now

		var parsed struct {
			OverallScore int `json:"overall_score"`
		}
		if json.Unmarshal([]byte(doc), &parsed) == nil {
			a.OverallScore = parsed.OverallScore
		}
	}
}

// WithExpiresAt sets the expiry.
func WithExpiresAt(at time.Time) func(*model.Assessment) {
	return func(a *model.Assessment) {
		a.ExpiresAt = at
	}
}

// WithUpdatedAt backdates the last update.
func WithUpdatedAt(at time.Time) func(*model.Assessment) {
	return func(a *model.Assessment) {
		a.CreatedAt = at
		a.UpdatedAt = at
	}
}

// TestJob creates a queue job for an assessment.
func TestJob(t *testing.T, db *gorm.DB, a *model.Assessment, status string) *model.AnalysisJob {
	t.Helper()

	job := &model.AnalysisJob{
		AssessmentID: a.ID,
		SessionID:    a.SessionID,
		Status:       status,
	}

	if err := db.Create(job).Error; err != nil {
		t.Fatalf("Failed to create test job: %v", err)
	}

	return job
}

// TestLead creates a lead for a session.
func TestLead(t *testing.T, db *gorm.DB, sessionID string, opts ...func(*model.Lead)) *model.Lead {
	t.Helper()

	lead := &model.Lead{
		LeadID:    uuid.NewString(),
		SessionID: sessionID,
		Name:      fmt.Sprintf("Lead %d", time.Now().UnixNano()%10000),
		Email:     fmt.Sprintf("lead_%d@example.com", time.Now().UnixNano()),
		Company:   "Acme",
	}

	for _, opt := range opts {
		opt(lead)
	}

	if err := db.Create(lead).Error; err != nil {
		t.Fatalf("Failed to create test lead: %v", err)
	}

	return lead
}

// WithLeadCreatedAt sets the capture time.
func WithLeadCreatedAt(at time.Time) func(*model.Lead) {
	return func(l *model.Lead) {
		l.CreatedAt = at
	}
}
