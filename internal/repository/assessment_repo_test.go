package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zahlentech/str8up_server/internal/model"
	"github.com/zahlentech/str8up_server/internal/testutil"
)

func TestAssessmentRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAssessmentRepository(db)
	a := &model.Assessment{
		SessionID:     "sess-1",
		BusinessSize:  "small",
		CloudProvider: "aws",
		Complexity:    10,
		Budget:        "under100k",
		RiskTolerance: "low",
		Compliance:    "hipaa",
		ExpiresAt:     time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(a))
	assert.NotZero(t, a.ID)

	found, err := repo.GetBySessionID("sess-1")
	require.NoError(t, err)
	assert.Equal(t, "pending", found.Status)
	assert.Equal(t, "under100k", string(found.Input().BudgetBracket))
	assert.False(t, found.Terminal())
}

func TestAssessmentRepository_GetBySessionID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	_, err := NewAssessmentRepository(db).GetBySessionID("missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAssessmentRepository_GetBySessionIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAssessmentRepository(db)
	a := testutil.TestAssessment(t, db)
	b := testutil.TestAssessment(t, db)
	testutil.TestAssessment(t, db)

	found, err := repo.GetBySessionIDs([]string{a.SessionID, b.SessionID, "missing"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Contains(t, found, a.SessionID)

	empty, err := repo.GetBySessionIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAssessmentRepository_UpdateProgress_NeverDecreases(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAssessmentRepository(db)
	a := testutil.TestAssessment(t, db)

	require.NoError(t, repo.UpdateProgress(a.SessionID, "processing", 45, "benchmarking"))
	require.NoError(t, repo.UpdateProgress(a.SessionID, "processing", 20, "collecting"))

	found, err := repo.GetBySessionID(a.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 45, found.Progress)
	assert.Equal(t, "benchmarking", found.CurrentStep)
}

func TestAssessmentRepository_CompleteAndFail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAssessmentRepository(db)
	done := testutil.TestAssessment(t, db)
	failed := testutil.TestAssessment(t, db)
	now := time.Now()

	require.NoError(t, repo.MarkStarted(done.SessionID, now))
	require.NoError(t, repo.Complete(done.SessionID, []byte(testutil.SampleAnalysis), 81, "local://reports/x.json", now))
	require.NoError(t, repo.Fail(failed.SessionID, "engine error", now))

	found, err := repo.GetBySessionID(done.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "completed", found.Status)
	assert.Equal(t, 100, found.Progress)
	assert.Equal(t, 81, found.OverallScore)
	assert.JSONEq(t, testutil.SampleAnalysis, string(found.Result))
	assert.NotNil(t, found.StartedAt)
	assert.True(t, found.Terminal())

	found, err = repo.GetBySessionID(failed.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "failed", found.Status)
	assert.Equal(t, "engine error", found.ErrorMessage)
}

func TestAssessmentRepository_FailStale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAssessmentRepository(db)
	old := time.Now().Add(-48 * time.Hour)

	stuck := testutil.TestAssessment(t, db, testutil.WithStatus("processing", 45), testutil.WithUpdatedAt(old))
	finished := testutil.TestAssessment(t, db, testutil.WithResult(testutil.SampleAnalysis), testutil.WithUpdatedAt(old))
	fresh := testutil.TestAssessment(t, db, testutil.WithStatus("pending", 0))

	n, err := repo.FailStale(time.Now().Add(-24*time.Hour), "analysis timed out")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	found, _ := repo.GetBySessionID(stuck.SessionID)
	assert.Equal(t, "failed", found.Status)
	assert.Equal(t, "analysis timed out", found.ErrorMessage)

	found, _ = repo.GetBySessionID(finished.SessionID)
	assert.Equal(t, "completed", found.Status)

	found, _ = repo.GetBySessionID(fresh.SessionID)
	assert.Equal(t, "pending", found.Status)
}

func TestAssessmentRepository_DeleteExpiredWithoutLeads(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAssessmentRepository(db)
	past := time.Now().Add(-time.Hour)

	expired := testutil.TestAssessment(t, db, testutil.WithExpiresAt(past))
	testutil.TestJob(t, db, expired, "completed")
	converted := testutil.TestAssessment(t, db, testutil.WithExpiresAt(past))
	testutil.TestLead(t, db, converted.SessionID)
	active := testutil.TestAssessment(t, db)

	count, err := repo.CountExpiredWithoutLeads(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	deleted, err := repo.DeleteExpiredWithoutLeads(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetBySessionID(expired.SessionID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = NewJobRepository(db).GetBySessionID(expired.SessionID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetBySessionID(converted.SessionID)
	assert.NoError(t, err)
	_, err = repo.GetBySessionID(active.SessionID)
	assert.NoError(t, err)
}

func TestAssessmentRepository_ListUnarchived(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewAssessmentRepository(db)
	pending := testutil.TestAssessment(t, db, testutil.WithResult(testutil.SampleAnalysis))
	archived := testutil.TestAssessment(t, db, testutil.WithResult(testutil.SampleAnalysis), func(a *model.Assessment) {
		a.ArchiveURL = "https://cdn.example.com/reports/x/analysis.json"
	})
	testutil.TestAssessment(t, db, testutil.WithStatus("processing", 45))

	list, err := repo.ListUnarchived(10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.SessionID, list[0].SessionID)

	require.NoError(t, repo.SetArchiveURL(pending.SessionID, "file:///tmp/a.json"))
	list, err = repo.ListUnarchived(10)
	require.NoError(t, err)
	assert.Empty(t, list)

	found, err := repo.GetBySessionID(archived.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/reports/x/analysis.json", found.ArchiveURL)
}
