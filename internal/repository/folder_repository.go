package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/deskinspect/deskinspect-api/internal/models"
)

const folderScheduleColumns = `id, event_id, event_name, event_type, due_date, folder_creation_date,
       status, folder_path, folder_url, error, last_attempt, created_at, updated_at`

const thesisFolderColumns = `id, event_id, event_name, event_type, due_date, folder_creation_date,
       folder_path, folder_url, virtual_folder_id, status, total_students, submissions_received,
       department, created_at, updated_at`

// FolderRepository persists folder schedules and provisioned folders.
type FolderRepository struct {
	db *sqlx.DB
}

// NewFolderRepository constructs the repository.
func NewFolderRepository(db *sqlx.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// CreateSchedule inserts a schedule row for the event.
func (r *FolderRepository) CreateSchedule(ctx context.Context, s *models.FolderSchedule) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = models.FolderScheduleStatusScheduled
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	const query = `INSERT INTO folder_schedules
	(id, event_id, event_name, event_type, due_date, folder_creation_date, status, folder_path, folder_url, error, last_attempt, created_at, updated_at)
	VALUES (:id, :event_id, :event_name, :event_type, :due_date, :folder_creation_date, :status, :folder_path, :folder_url, :error, :last_attempt, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create folder schedule: %w", err)
	}
	return nil
}

// GetScheduleByEvent fetches the schedule row for an event.
func (r *FolderRepository) GetScheduleByEvent(ctx context.Context, eventID string) (*models.FolderSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM folder_schedules WHERE event_id = $1`, folderScheduleColumns)
	var s models.FolderSchedule
	if err := r.db.GetContext(ctx, &s, query, eventID); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSchedules returns every schedule row, soonest creation date first.
func (r *FolderRepository) ListSchedules(ctx context.Context) ([]models.FolderSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM folder_schedules ORDER BY folder_creation_date ASC`, folderScheduleColumns)
	var items []models.FolderSchedule
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list folder schedules: %w", err)
	}
	return items, nil
}

// ListPendingSchedules returns schedules that have not been provisioned yet.
func (r *FolderRepository) ListPendingSchedules(ctx context.Context) ([]models.FolderSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM folder_schedules WHERE status <> $1 ORDER BY folder_creation_date ASC`, folderScheduleColumns)
	var items []models.FolderSchedule
	if err := r.db.SelectContext(ctx, &items, query, models.FolderScheduleStatusCreated); err != nil {
		return nil, fmt.Errorf("list pending folder schedules: %w", err)
	}
	return items, nil
}

// MarkScheduleCreated records a successful provisioning attempt.
func (r *FolderRepository) MarkScheduleCreated(ctx context.Context, eventID, folderPath, folderURL string, at time.Time) error {
	const query = `UPDATE folder_schedules SET
	status = $2, folder_path = $3, folder_url = $4, error = NULL, last_attempt = $5, updated_at = $5
	WHERE event_id = $1`
	if _, err := r.db.ExecContext(ctx, query, eventID, models.FolderScheduleStatusCreated, folderPath, folderURL, at); err != nil {
		return fmt.Errorf("mark folder schedule created: %w", err)
	}
	return nil
}

// MarkScheduleFailed records a failed provisioning attempt.
func (r *FolderRepository) MarkScheduleFailed(ctx context.Context, eventID, cause string, at time.Time) error {
	const query = `UPDATE folder_schedules SET
	status = $2, error = $3, last_attempt = $4, updated_at = $4
	WHERE event_id = $1`
	if _, err := r.db.ExecContext(ctx, query, eventID, models.FolderScheduleStatusFailed, cause, at); err != nil {
		return fmt.Errorf("mark folder schedule failed: %w", err)
	}
	return nil
}

// CreateFolder inserts a provisioned thesis folder record.
func (r *FolderRepository) CreateFolder(ctx context.Context, f *models.ThesisFolder) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	const query = `INSERT INTO thesis_folders
	(id, event_id, event_name, event_type, due_date, folder_creation_date, folder_path, folder_url, virtual_folder_id, status, total_students, submissions_received, department, created_at, updated_at)
	VALUES (:id, :event_id, :event_name, :event_type, :due_date, :folder_creation_date, :folder_path, :folder_url, :virtual_folder_id, :status, :total_students, :submissions_received, :department, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, f); err != nil {
		return fmt.Errorf("create thesis folder: %w", err)
	}
	return nil
}

// GetFolderByEvent fetches the provisioned folder for an event, if any.
func (r *FolderRepository) GetFolderByEvent(ctx context.Context, eventID string) (*models.ThesisFolder, error) {
	query := fmt.Sprintf(`SELECT %s FROM thesis_folders WHERE event_id = $1`, thesisFolderColumns)
	var f models.ThesisFolder
	if err := r.db.GetContext(ctx, &f, query, eventID); err != nil {
		return nil, err
	}
	return &f, nil
}
