package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/deskinspect/deskinspect-api/internal/models"
)

const eventColumns = `id, name, type, start_date, end_date, thesis_folder_created,
       thesis_folder_path, thesis_folder_url, folder_created_at, description, created_at, updated_at`

// EventRepository persists calendar events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event row.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Type == "" {
		event.Type = models.EventTypeGeneral
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	const query = `INSERT INTO events
	(id, name, type, start_date, end_date, thesis_folder_created, thesis_folder_path, thesis_folder_url, folder_created_at, description, created_at, updated_at)
	VALUES (:id, :name, :type, :start_date, :end_date, :thesis_folder_created, :thesis_folder_path, :thesis_folder_url, :folder_created_at, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetByID fetches an event by identifier.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// List returns every event ordered by due date, then newest first.
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events ORDER BY end_date ASC, created_at DESC`, eventColumns)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Update persists the mutable event fields.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET
	name = :name, type = :type, start_date = :start_date, end_date = :end_date,
	description = :description, updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return requireRow(result)
}

// MarkFolderCreated records successful folder provisioning on the event.
func (r *EventRepository) MarkFolderCreated(ctx context.Context, id, folderPath, folderURL string, at time.Time) error {
	const query = `UPDATE events SET
	thesis_folder_created = TRUE, thesis_folder_path = $2, thesis_folder_url = $3,
	folder_created_at = $4, updated_at = $4
	WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, folderPath, folderURL, at)
	if err != nil {
		return fmt.Errorf("mark event folder created: %w", err)
	}
	return requireRow(result)
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return requireRow(result)
}
