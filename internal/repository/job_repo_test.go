package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahlentech/str8up_server/internal/model"
	"github.com/zahlentech/str8up_server/internal/testutil"
)

func TestJobRepository_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)
	a := testutil.TestAssessment(t, db)

	job := &model.AnalysisJob{
		AssessmentID: a.ID,
		SessionID:    a.SessionID,
		Status:       "queued",
	}

	err := repo.Create(job)
	require.NoError(t, err)
	assert.NotZero(t, job.ID)
}

func TestJobRepository_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)
	a := testutil.TestAssessment(t, db)
	created := testutil.TestJob(t, db, a, "queued")

	found, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "queued", found.Status)

	_, err = repo.GetByID(99999)
	assert.Error(t, err)
}

func TestJobRepository_GetBySessionID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)
	a := testutil.TestAssessment(t, db)

	testutil.TestJob(t, db, a, "failed")
	latest := testutil.TestJob(t, db, a, "queued")

	found, err := repo.GetBySessionID(a.SessionID)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, found.ID)
}

func TestJobRepository_UpdateStatusAndStep(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)
	a := testutil.TestAssessment(t, db)
	job := testutil.TestJob(t, db, a, "queued")

	require.NoError(t, repo.UpdateStatus(job.ID, "processing"))
	require.NoError(t, repo.UpdateStep(job.ID, "scoring"))

	found, err := repo.GetByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, "processing", found.Status)
	assert.Equal(t, "scoring", found.CurrentStep)
}

func TestJobRepository_GetPendingJobs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)
	for _, status := range []string{"queued", "queued", "processing", "completed"} {
		testutil.TestJob(t, db, testutil.TestAssessment(t, db), status)
	}

	jobs, err := repo.GetPendingJobs(10)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	jobs, err = repo.GetPendingJobs(1)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestJobRepository_FailBySessionID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)
	a := testutil.TestAssessment(t, db)
	queued := testutil.TestJob(t, db, a, "queued")
	done := testutil.TestJob(t, db, a, "completed")

	require.NoError(t, repo.FailBySessionID(a.SessionID, "enqueue failed"))

	found, _ := repo.GetByID(queued.ID)
	assert.Equal(t, "failed", found.Status)
	assert.Equal(t, "enqueue failed", found.ErrorMessage)

	found, _ = repo.GetByID(done.ID)
	assert.Equal(t, "completed", found.Status)
}
