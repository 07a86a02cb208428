package repository

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zahlentech/str8up_server/internal/model"
	"github.com/zahlentech/str8up_server/internal/testutil"
)

func TestLeadRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewLeadRepository(db)
	a := testutil.TestAssessment(t, db)

	lead := &model.Lead{LeadID: "lead-1", SessionID: a.SessionID, Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, repo.Create(lead))

	found, err := repo.GetByLeadID("lead-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", found.Name)

	count, err := repo.CountBySessionID(a.SessionID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestLeadRepository_List(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewLeadRepository(db)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		testutil.TestLead(t, db, "sess", testutil.WithLeadCreatedAt(base.Add(time.Duration(i)*time.Minute)))
	}

	leads, total, err := repo.List(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, leads, 2)
	assert.True(t, leads[0].CreatedAt.After(leads[1].CreatedAt))

	leads, _, err = repo.List(3, 2)
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestLeadRepository_Create_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `leads`")).
		WillReturnError(errors.New("connection reset"))

	err := NewLeadRepository(db).Create(&model.Lead{LeadID: "x", SessionID: "s", Name: "n", Email: "e@example.com"})

	assert.EqualError(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentRepository_GetBySessionID_DatabaseError(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `assessments` WHERE session_id = ?")).
		WillReturnError(errors.New("too many connections"))

	_, err := NewAssessmentRepository(db).GetBySessionID("sess-1")

	assert.EqualError(t, err, "too many connections")
	assert.NoError(t, mock.ExpectationsWereMet())
}
