package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/deskinspect/deskinspect-api/internal/models"
)

const thesisColumns = `id, student_name, student_id, department, file_url, supervisor_id, status,
       version, is_resubmission, parent_thesis_id, original_submission_id,
       resubmission_requested, resubmission_requested_at, resubmission_requested_by, resubmission_reason,
       submission_history, created_at, updated_at`

// ThesisRepository persists thesis submissions and their version chains.
type ThesisRepository struct {
	db *sqlx.DB
}

// NewThesisRepository constructs the repository.
func NewThesisRepository(db *sqlx.DB) *ThesisRepository {
	return &ThesisRepository{db: db}
}

// Create inserts a new thesis row.
func (r *ThesisRepository) Create(ctx context.Context, thesis *models.Thesis) error {
	prepareThesisRow(thesis)
	const query = `INSERT INTO theses
	(id, student_name, student_id, department, file_url, supervisor_id, status,
	 version, is_resubmission, parent_thesis_id, original_submission_id,
	 resubmission_requested, resubmission_requested_at, resubmission_requested_by, resubmission_reason,
	 submission_history, created_at, updated_at)
	VALUES (:id, :student_name, :student_id, :department, :file_url, :supervisor_id, :status,
	 :version, :is_resubmission, :parent_thesis_id, :original_submission_id,
	 :resubmission_requested, :resubmission_requested_at, :resubmission_requested_by, :resubmission_reason,
	 :submission_history, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, thesis); err != nil {
		return fmt.Errorf("create thesis: %w", err)
	}
	return nil
}

// GetByID fetches a thesis by identifier.
func (r *ThesisRepository) GetByID(ctx context.Context, id string) (*models.Thesis, error) {
	query := fmt.Sprintf(`SELECT %s FROM theses WHERE id = $1`, thesisColumns)
	var thesis models.Thesis
	if err := r.db.GetContext(ctx, &thesis, query, id); err != nil {
		return nil, err
	}
	return &thesis, nil
}

// ExistsForStudent reports whether any version exists for the student.
func (r *ThesisRepository) ExistsForStudent(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM theses WHERE student_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID); err != nil {
		return false, fmt.Errorf("check existing thesis: %w", err)
	}
	return exists, nil
}

// ListAll returns every thesis, newest first.
func (r *ThesisRepository) ListAll(ctx context.Context) ([]models.Thesis, error) {
	query := fmt.Sprintf(`SELECT %s FROM theses ORDER BY created_at DESC`, thesisColumns)
	var theses []models.Thesis
	if err := r.db.SelectContext(ctx, &theses, query); err != nil {
		return nil, fmt.Errorf("list theses: %w", err)
	}
	return theses, nil
}

// ListBySupervisor returns all theses supervised by the given faculty user.
func (r *ThesisRepository) ListBySupervisor(ctx context.Context, supervisorID string) ([]models.Thesis, error) {
	query := fmt.Sprintf(`SELECT %s FROM theses WHERE supervisor_id = $1 ORDER BY created_at DESC`, thesisColumns)
	var theses []models.Thesis
	if err := r.db.SelectContext(ctx, &theses, query, supervisorID); err != nil {
		return nil, fmt.Errorf("list theses by supervisor: %w", err)
	}
	return theses, nil
}

// LatestForStudent returns the student's highest (version, createdAt) record.
func (r *ThesisRepository) LatestForStudent(ctx context.Context, studentID string) (*models.Thesis, error) {
	query := fmt.Sprintf(`SELECT %s FROM theses WHERE student_id = $1
	ORDER BY version DESC, created_at DESC LIMIT 1`, thesisColumns)
	var thesis models.Thesis
	if err := r.db.GetContext(ctx, &thesis, query, studentID); err != nil {
		return nil, err
	}
	return &thesis, nil
}

// FindOutstandingRequest returns the student's thesis with an open
// resubmission request, if any.
func (r *ThesisRepository) FindOutstandingRequest(ctx context.Context, studentID string) (*models.Thesis, error) {
	query := fmt.Sprintf(`SELECT %s FROM theses
	WHERE student_id = $1 AND resubmission_requested LIMIT 1`, thesisColumns)
	var thesis models.Thesis
	if err := r.db.GetContext(ctx, &thesis, query, studentID); err != nil {
		return nil, err
	}
	return &thesis, nil
}

// ListChain returns every record in the chain rooted at rootID, sorted by
// version descending.
func (r *ThesisRepository) ListChain(ctx context.Context, rootID string) ([]models.Thesis, error) {
	query := fmt.Sprintf(`SELECT %s FROM theses
	WHERE id = $1 OR original_submission_id = $1 OR parent_thesis_id = $1
	ORDER BY version DESC`, thesisColumns)
	var theses []models.Thesis
	if err := r.db.SelectContext(ctx, &theses, query, rootID); err != nil {
		return nil, fmt.Errorf("list thesis chain: %w", err)
	}
	return theses, nil
}

// MarkResubmissionRequested stamps the request fields and flips the status.
func (r *ThesisRepository) MarkResubmissionRequested(ctx context.Context, id, facultyID, reason string, at time.Time) error {
	const query = `UPDATE theses SET
	status = $2, resubmission_requested = TRUE, resubmission_requested_at = $3,
	resubmission_requested_by = $4, resubmission_reason = $5, updated_at = $3
	WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, models.ThesisStatusResubmit, at, facultyID, reason)
	if err != nil {
		return fmt.Errorf("mark resubmission requested: %w", err)
	}
	return requireRow(result)
}

// UpdateStatus sets the lifecycle status of a single record.
func (r *ThesisRepository) UpdateStatus(ctx context.Context, id string, status models.ThesisStatus) error {
	const query = `UPDATE theses SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update thesis status: %w", err)
	}
	return requireRow(result)
}

// ApproveLatestForStudent marks the student's highest (version, createdAt)
// thesis as approved and clears any outstanding resubmission request. It
// returns the updated record, or sql.ErrNoRows when the student has none.
func (r *ThesisRepository) ApproveLatestForStudent(ctx context.Context, studentID string) (*models.Thesis, error) {
	query := fmt.Sprintf(`UPDATE theses SET
	status = $2, resubmission_requested = FALSE, updated_at = $3
	WHERE id = (
		SELECT id FROM theses WHERE student_id = $1
		ORDER BY version DESC, created_at DESC LIMIT 1
	)
	RETURNING %s`, thesisColumns)
	var thesis models.Thesis
	if err := r.db.GetContext(ctx, &thesis, query, studentID, models.ThesisStatusApproved, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &thesis, nil
}

// CreateNextVersion atomically allocates the next version number in the
// chain and persists the resubmission. The chain root row is locked for the
// duration of the transaction so concurrent resubmissions on sibling
// branches can never allocate the same version. The original record is
// flipped to Resubmitted with its request flag cleared in the same
// transaction.
func (r *ThesisRepository) CreateNextVersion(ctx context.Context, original *models.Thesis, next *models.Thesis) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin resubmission tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	chainID := original.ChainRootID()

	var rootID string
	if err = tx.GetContext(ctx, &rootID, `SELECT id FROM theses WHERE id = $1 FOR UPDATE`, chainID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Root already gone; fall back to locking the original itself.
			if err = tx.GetContext(ctx, &rootID, `SELECT id FROM theses WHERE id = $1 FOR UPDATE`, original.ID); err != nil {
				return fmt.Errorf("lock chain root: %w", err)
			}
		} else {
			return fmt.Errorf("lock chain root: %w", err)
		}
	}

	var highest sql.NullInt64
	const maxQuery = `SELECT MAX(version) FROM theses
	WHERE parent_thesis_id = $1 OR original_submission_id = $2 OR id = $2`
	if err = tx.GetContext(ctx, &highest, maxQuery, original.ID, chainID); err != nil {
		return fmt.Errorf("scan chain versions: %w", err)
	}

	newVersion := original.Version
	if highest.Valid && int(highest.Int64) > newVersion {
		newVersion = int(highest.Int64)
	}
	newVersion++
	next.Version = newVersion
	prepareThesisRow(next)

	const insertQuery = `INSERT INTO theses
	(id, student_name, student_id, department, file_url, supervisor_id, status,
	 version, is_resubmission, parent_thesis_id, original_submission_id,
	 resubmission_requested, resubmission_requested_at, resubmission_requested_by, resubmission_reason,
	 submission_history, created_at, updated_at)
	VALUES (:id, :student_name, :student_id, :department, :file_url, :supervisor_id, :status,
	 :version, :is_resubmission, :parent_thesis_id, :original_submission_id,
	 :resubmission_requested, :resubmission_requested_at, :resubmission_requested_by, :resubmission_reason,
	 :submission_history, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertQuery, next); err != nil {
		return fmt.Errorf("insert resubmission: %w", err)
	}

	const updateQuery = `UPDATE theses SET
	status = $2, resubmission_requested = FALSE, submission_history = $3, updated_at = $4
	WHERE id = $1`
	history := append(models.SubmissionHistory{}, original.SubmissionHistory...)
	history = append(history, models.SubmissionSnapshot{
		Version:     original.Version,
		SubmittedAt: original.CreatedAt,
		FileURL:     original.FileURL,
		Status:      original.Status,
	})
	if _, err = tx.ExecContext(ctx, updateQuery, original.ID, models.ThesisStatusResubmitted, history, time.Now().UTC()); err != nil {
		return fmt.Errorf("finalize original thesis: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit resubmission tx: %w", err)
	}

	original.Status = models.ThesisStatusResubmitted
	original.ResubmissionRequested = false
	original.SubmissionHistory = history
	return nil
}

func prepareThesisRow(thesis *models.Thesis) {
	if thesis.ID == "" {
		thesis.ID = uuid.NewString()
	}
	if thesis.Status == "" {
		thesis.Status = models.ThesisStatusNotSubmitted
	}
	if thesis.Version <= 0 {
		thesis.Version = 1
	}
	if thesis.SubmissionHistory == nil {
		thesis.SubmissionHistory = models.SubmissionHistory{}
	}
	now := time.Now().UTC()
	if thesis.CreatedAt.IsZero() {
		thesis.CreatedAt = now
	}
	thesis.UpdatedAt = now
}

func requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check affected rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
