package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/deskinspect/deskinspect-api/internal/models"
)

const reportColumns = `id, report_id, student_id, student_name, faculty_id, thesis_id, thesis_version,
       thesis_title, filename, report_type, report_data, status, sent_date, created_at, updated_at`

// ReportRepository persists faculty evaluation reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a new report row.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.ReportID == "" {
		report.ReportID = fmt.Sprintf("report_%d_%s", time.Now().UnixMilli(), report.ID[:8])
	}
	if report.Status == "" {
		report.Status = models.ReportStatusDraft
	}
	if report.ThesisVersion <= 0 {
		report.ThesisVersion = 1
	}
	now := time.Now().UTC()
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now
	const query = `INSERT INTO reports
	(id, report_id, student_id, student_name, faculty_id, thesis_id, thesis_version, thesis_title, filename, report_type, report_data, status, sent_date, created_at, updated_at)
	VALUES (:id, :report_id, :student_id, :student_name, :faculty_id, :thesis_id, :thesis_version, :thesis_title, :filename, :report_type, :report_data, :status, :sent_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// GetByID fetches a report by identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE id = $1`, reportColumns)
	var report models.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, err
	}
	return &report, nil
}

// MarkSent stamps the report as delivered to the student.
func (r *ReportRepository) MarkSent(ctx context.Context, id, verifiedStudentID string, at time.Time) error {
	const query = `UPDATE reports SET
	student_id = $2, status = $3, sent_date = $4, updated_at = $4
	WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, verifiedStudentID, models.ReportStatusSent, at)
	if err != nil {
		return fmt.Errorf("mark report sent: %w", err)
	}
	return requireRow(result)
}

// ListByFaculty returns reports authored by the faculty user, newest first.
func (r *ReportRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE faculty_id = $1 ORDER BY created_at DESC`, reportColumns)
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, facultyID); err != nil {
		return nil, fmt.Errorf("list reports by faculty: %w", err)
	}
	return reports, nil
}

// ListSentByStudent returns delivered reports for the student, newest first.
func (r *ReportRepository) ListSentByStudent(ctx context.Context, studentID string) ([]models.Report, error) {
	query := fmt.Sprintf(`SELECT %s FROM reports
	WHERE student_id = $1 AND status = $2 ORDER BY created_at DESC`, reportColumns)
	var reports []models.Report
	if err := r.db.SelectContext(ctx, &reports, query, studentID, models.ReportStatusSent); err != nil {
		return nil, fmt.Errorf("list reports by student: %w", err)
	}
	return reports, nil
}

// Delete removes a draft report.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reports WHERE id = $1 AND status <> $2`, id, models.ReportStatusSent)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return requireRow(result)
}
