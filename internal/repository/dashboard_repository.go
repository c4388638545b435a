package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/deskinspect/deskinspect-api/internal/models"
)

// DashboardRepository runs the aggregate queries backing the admin
// dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// LatestThesesPerStudent returns each student's highest-version record.
func (r *DashboardRepository) LatestThesesPerStudent(ctx context.Context) ([]models.Thesis, error) {
	query := fmt.Sprintf(`SELECT DISTINCT ON (student_id) %s FROM theses
	ORDER BY student_id, version DESC, created_at DESC`, thesisColumns)
	var theses []models.Thesis
	if err := r.db.SelectContext(ctx, &theses, query); err != nil {
		return nil, fmt.Errorf("latest theses per student: %w", err)
	}
	return theses, nil
}

// DashboardCounters holds the raw counter row scanned from SQL.
type DashboardCounters struct {
	Students            int `db:"students"`
	Faculty             int `db:"faculty"`
	Theses              int `db:"theses"`
	ApprovedTheses      int `db:"approved_theses"`
	UnderReview         int `db:"under_review"`
	Resubmissions       int `db:"resubmissions"`
	Events              int `db:"events"`
	UnreadNotifications int `db:"unread_notifications"`
}

// Counters aggregates the headline dashboard counts in one round trip.
func (r *DashboardRepository) Counters(ctx context.Context) (*DashboardCounters, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM users WHERE role = 'STUDENT') AS students,
	(SELECT COUNT(*) FROM users WHERE role = 'FACULTY') AS faculty,
	(SELECT COUNT(*) FROM theses) AS theses,
	(SELECT COUNT(*) FROM theses WHERE status = 'Approved') AS approved_theses,
	(SELECT COUNT(*) FROM theses WHERE status = 'Under Review') AS under_review,
	(SELECT COUNT(*) FROM theses WHERE is_resubmission) AS resubmissions,
	(SELECT COUNT(*) FROM events) AS events,
	(SELECT COUNT(*) FROM notifications WHERE NOT read) AS unread_notifications`
	var counters DashboardCounters
	if err := r.db.GetContext(ctx, &counters, query); err != nil {
		return nil, fmt.Errorf("dashboard counters: %w", err)
	}
	return &counters, nil
}
