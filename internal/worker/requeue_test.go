package worker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahlentech/str8up_server/internal/pkg/queue"
	"github.com/zahlentech/str8up_server/internal/repository"
	"github.com/zahlentech/str8up_server/internal/testutil"
)

func setupTestQueue(t *testing.T) *queue.Queue {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return queue.NewQueue(client, "str8up:test")
}

func TestRequeueOrphans(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	jobs := repository.NewJobRepository(db)
	q := setupTestQueue(t)
	ctx := context.Background()

	a := testutil.TestAssessment(t, db)
	queued := testutil.TestJob(t, db, a, "queued")
	testutil.TestJob(t, db, testutil.TestAssessment(t, db), "completed")

	n, err := RequeueOrphans(ctx, jobs, q, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	depth, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)

	// queue already holds work
	n, err = RequeueOrphans(ctx, jobs, q, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	msg, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, queued.ID, msg.JobID)
	assert.Equal(t, a.ID, msg.AssessmentID)
	assert.Equal(t, a.SessionID, msg.SessionID)
}

func TestProcessor_Process_SkipsHandledJob(t *testing.T) {
	p, db, pub := setupProcessor(t, nil)

	a := testutil.TestAssessment(t, db, testutil.WithResult(testutil.SampleAnalysis))
	job := testutil.TestJob(t, db, a, "completed")

	require.NoError(t, p.Process(context.Background(), &queue.JobMessage{JobID: job.ID, AssessmentID: a.ID, SessionID: a.SessionID}))
	assert.Empty(t, pub.msgs)

	got, err := repository.NewAssessmentRepository(db).GetBySessionID(a.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "completed", got.Status)
}
