package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/deskinspect/deskinspect-api/internal/models"
)

func newThesisRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func thesisRowColumns() []string {
	return []string{
		"id", "student_name", "student_id", "department", "file_url", "supervisor_id", "status",
		"version", "is_resubmission", "parent_thesis_id", "original_submission_id",
		"resubmission_requested", "resubmission_requested_at", "resubmission_requested_by", "resubmission_reason",
		"submission_history", "created_at", "updated_at",
	}
}

func addThesisRow(rows *sqlmock.Rows, id, studentID string, version int, status models.ThesisStatus) *sqlmock.Rows {
	now := time.Now().UTC()
	return rows.AddRow(
		id, "Alice Tan", studentID, "CS", "https://files.example.com/v.pdf", "fac-1", string(status),
		version, version > 1, nil, nil,
		false, nil, nil, nil,
		[]byte(`[]`), now, now,
	)
}

func TestThesisRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newThesisRepoMock(t)
	defer cleanup()

	repo := NewThesisRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO theses")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	thesis := &models.Thesis{
		StudentName:  "Alice Tan",
		StudentID:    "STU001",
		Department:   "CS",
		FileURL:      "https://files.example.com/v1.pdf",
		SupervisorID: "fac-1",
		Status:       models.ThesisStatusUnderReview,
		Version:      1,
	}
	require.NoError(t, repo.Create(context.Background(), thesis))
	require.NotEmpty(t, thesis.ID)
	require.NotNil(t, thesis.SubmissionHistory)

	rows := addThesisRow(sqlmock.NewRows(thesisRowColumns()), thesis.ID, "STU001", 1, models.ThesisStatusUnderReview)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_name, student_id")).
		WithArgs(thesis.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), thesis.ID)
	require.NoError(t, err)
	require.Equal(t, thesis.ID, found.ID)
	require.Equal(t, 1, found.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestThesisRepositoryExistsForStudent(t *testing.T) {
	db, mock, cleanup := newThesisRepoMock(t)
	defer cleanup()

	repo := NewThesisRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("STU001").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForStudent(context.Background(), "STU001")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestThesisRepositoryListChain(t *testing.T) {
	db, mock, cleanup := newThesisRepoMock(t)
	defer cleanup()

	repo := NewThesisRepository(db)
	rows := sqlmock.NewRows(thesisRowColumns())
	addThesisRow(rows, "t-2", "STU001", 2, models.ThesisStatusUnderReview)
	addThesisRow(rows, "t-1", "STU001", 1, models.ThesisStatusResubmitted)
	mock.ExpectQuery(regexp.QuoteMeta("original_submission_id = $1 OR parent_thesis_id = $1")).
		WithArgs("t-1").
		WillReturnRows(rows)

	chain, err := repo.ListChain(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, chain, 2)
	require.Equal(t, 2, chain[0].Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestThesisRepositoryMarkResubmissionRequested(t *testing.T) {
	db, mock, cleanup := newThesisRepoMock(t)
	defer cleanup()

	repo := NewThesisRepository(db)
	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE theses SET")).
		WithArgs("t-1", string(models.ThesisStatusResubmit), at, "fac-1", "revise").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkResubmissionRequested(context.Background(), "t-1", "fac-1", "revise", at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestThesisRepositoryMarkResubmissionRequestedMissingRow(t *testing.T) {
	db, mock, cleanup := newThesisRepoMock(t)
	defer cleanup()

	repo := NewThesisRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE theses SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkResubmissionRequested(context.Background(), "t-404", "fac-1", "revise", time.Now().UTC())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestThesisRepositoryCreateNextVersionLocksChainRoot(t *testing.T) {
	db, mock, cleanup := newThesisRepoMock(t)
	defer cleanup()

	repo := NewThesisRepository(db)
	original := &models.Thesis{
		ID:                    "t-1",
		StudentName:           "Alice Tan",
		StudentID:             "STU001",
		Department:            "CS",
		FileURL:               "https://files.example.com/v1.pdf",
		SupervisorID:          "fac-1",
		Status:                models.ThesisStatusResubmit,
		Version:               1,
		ResubmissionRequested: true,
		CreatedAt:             time.Now().UTC(),
	}
	next := &models.Thesis{
		StudentName:          "Alice Tan",
		StudentID:            "STU001",
		Department:           "CS",
		FileURL:              "https://files.example.com/v2.pdf",
		SupervisorID:         "fac-1",
		Status:               models.ThesisStatusUnderReview,
		IsResubmission:       true,
		ParentThesisID:       &original.ID,
		OriginalSubmissionID: &original.ID,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM theses WHERE id = $1 FOR UPDATE")).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(version) FROM theses")).
		WithArgs("t-1", "t-1").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO theses")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE theses SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateNextVersion(context.Background(), original, next))

	// Version allocated past the chain's highest, not original.Version+1.
	require.Equal(t, 4, next.Version)
	require.NotEmpty(t, next.ID)
	require.Equal(t, models.ThesisStatusResubmitted, original.Status)
	require.False(t, original.ResubmissionRequested)
	require.Len(t, original.SubmissionHistory, 1)
	require.Equal(t, 1, original.SubmissionHistory[0].Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestThesisRepositoryCreateNextVersionRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newThesisRepoMock(t)
	defer cleanup()

	repo := NewThesisRepository(db)
	original := &models.Thesis{
		ID: "t-1", StudentID: "STU001", Version: 1,
		Status: models.ThesisStatusResubmit, ResubmissionRequested: true,
	}
	next := &models.Thesis{StudentID: "STU001", IsResubmission: true}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(version) FROM theses")).
		WithArgs("t-1", "t-1").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO theses")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.CreateNextVersion(context.Background(), original, next)
	require.Error(t, err)
	require.Equal(t, models.ThesisStatusResubmit, original.Status)
	require.True(t, original.ResubmissionRequested)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestThesisRepositoryCreateNextVersionMissingRootLocksOriginal(t *testing.T) {
	db, mock, cleanup := newThesisRepoMock(t)
	defer cleanup()

	repo := NewThesisRepository(db)
	rootID := "t-root"
	original := &models.Thesis{
		ID: "t-2", StudentID: "STU001", Version: 2,
		Status: models.ThesisStatusResubmit, ResubmissionRequested: true,
		OriginalSubmissionID: &rootID,
	}
	next := &models.Thesis{StudentID: "STU001", IsResubmission: true}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("t-root").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("t-2").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("t-2"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(version) FROM theses")).
		WithArgs("t-2", "t-root").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO theses")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE theses SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateNextVersion(context.Background(), original, next))
	require.Equal(t, 3, next.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestThesisRepositoryApproveLatestForStudent(t *testing.T) {
	db, mock, cleanup := newThesisRepoMock(t)
	defer cleanup()

	repo := NewThesisRepository(db)
	rows := addThesisRow(sqlmock.NewRows(thesisRowColumns()), "t-2", "STU001", 2, models.ThesisStatusApproved)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE theses SET")).
		WillReturnRows(rows)

	thesis, err := repo.ApproveLatestForStudent(context.Background(), "STU001")
	require.NoError(t, err)
	require.Equal(t, "t-2", thesis.ID)
	require.Equal(t, models.ThesisStatusApproved, thesis.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
