package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahlentech/str8up_server/internal/str8up"
)

func sampleReport() *str8up.AnalysisReport {
	return str8up.GenerateReport("sess-1", str8up.OnboardingInput{
		BusinessSize:  str8up.BusinessMedium,
		CloudProvider: str8up.CloudAzure,
		Complexity:    60,
		BudgetBracket: str8up.Budget500kTo1m,
		RiskTolerance: str8up.RiskMedium,
		Compliance:    str8up.ComplianceGDPR,
	}, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
}

func TestRender(t *testing.T) {
	out, err := Render(sampleReport())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 1000)
}

func TestRender_Deterministic(t *testing.T) {
	a, err := Render(sampleReport())
	require.NoError(t, err)
	b, err := Render(sampleReport())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRender_EmptyNarrative(t *testing.T) {
	r := &str8up.AnalysisReport{
		SessionID:  "sess-2",
		Calculator: str8up.ComputeFinancials(str8up.BudgetUnder100k, 0),
	}

	out, err := Render(r)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
