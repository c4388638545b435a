package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/deskinspect/deskinspect-api/internal/dto"
	"github.com/deskinspect/deskinspect-api/internal/models"
	"github.com/deskinspect/deskinspect-api/internal/repository"
	appErrors "github.com/deskinspect/deskinspect-api/pkg/errors"
	"github.com/deskinspect/deskinspect-api/pkg/export"
)

const (
	cacheKeyDashboardStats    = "dashboard:stats"
	cacheKeyStudentProgress   = "dashboard:progress"
	cacheKeyStudentProgressBy = "dashboard:progress:%s"
)

type dashboardStore interface {
	LatestThesesPerStudent(ctx context.Context) ([]models.Thesis, error)
	Counters(ctx context.Context) (*repository.DashboardCounters, error)
}

// DashboardService aggregates the admin dashboard views, caching the
// expensive aggregations for a short TTL.
type DashboardService struct {
	repo   dashboardStore
	cache  *CacheService
	csv    *export.CSVExporter
	ttl    time.Duration
	logger *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(repo dashboardStore, cache *CacheService, csv *export.CSVExporter, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, csv: csv, ttl: ttl, logger: logger}
}

// StudentsProgress returns each student's latest submission state,
// optionally filtered by thesis status.
func (s *DashboardService) StudentsProgress(ctx context.Context, status models.ThesisStatus) ([]dto.StudentProgress, error) {
	key := cacheKeyStudentProgress
	if status != "" {
		key = fmt.Sprintf(cacheKeyStudentProgressBy, status)
	}
	var cached []dto.StudentProgress
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	theses, err := s.repo.LatestThesesPerStudent(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student progress")
	}

	progress := make([]dto.StudentProgress, 0, len(theses))
	for _, t := range theses {
		if status != "" && t.Status != status {
			continue
		}
		progress = append(progress, dto.StudentProgress{
			StudentID:     t.StudentID,
			StudentName:   t.StudentName,
			Department:    t.Department,
			SupervisorID:  t.SupervisorID,
			Status:        t.Status,
			Version:       t.Version,
			ProgressPct:   progressFor(t.Status),
			LastSubmitted: t.CreatedAt.Format(time.RFC3339),
		})
	}

	if err := s.cache.Set(ctx, key, progress, s.ttl); err != nil {
		s.logger.Debug("progress cache write failed", zap.Error(err))
	}
	return progress, nil
}

// Stats returns the headline dashboard counters.
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardStats, error) {
	var cached dto.DashboardStats
	if hit, _ := s.cache.Get(ctx, cacheKeyDashboardStats, &cached); hit {
		return &cached, nil
	}

	counters, err := s.repo.Counters(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard stats")
	}

	stats := &dto.DashboardStats{
		Students:            counters.Students,
		Faculty:             counters.Faculty,
		Theses:              counters.Theses,
		ApprovedTheses:      counters.ApprovedTheses,
		UnderReview:         counters.UnderReview,
		Resubmissions:       counters.Resubmissions,
		Events:              counters.Events,
		UnreadNotifications: counters.UnreadNotifications,
	}
	if err := s.cache.Set(ctx, cacheKeyDashboardStats, stats, s.ttl); err != nil {
		s.logger.Debug("stats cache write failed", zap.Error(err))
	}
	return stats, nil
}

// ExportProgressCSV renders the progress table as a CSV download.
func (s *DashboardService) ExportProgressCSV(ctx context.Context) ([]byte, error) {
	progress, err := s.StudentsProgress(ctx, "")
	if err != nil {
		return nil, err
	}
	data := export.Dataset{
		Headers: []string{"Student ID", "Student Name", "Department", "Status", "Version", "Progress %", "Last Submitted"},
	}
	for _, p := range progress {
		data.Rows = append(data.Rows, map[string]string{
			"Student ID":     p.StudentID,
			"Student Name":   p.StudentName,
			"Department":     p.Department,
			"Status":         string(p.Status),
			"Version":        fmt.Sprintf("%d", p.Version),
			"Progress %":     fmt.Sprintf("%d", p.ProgressPct),
			"Last Submitted": p.LastSubmitted,
		})
	}
	out, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export progress")
	}
	return out, nil
}

// Invalidate drops the cached dashboard aggregations.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "dashboard:*"); err != nil {
		s.logger.Debug("dashboard cache invalidation failed", zap.Error(err))
	}
}

// progressFor maps a thesis status onto a coarse completion percentage for
// the dashboard progress bars.
func progressFor(status models.ThesisStatus) int {
	switch status {
	case models.ThesisStatusApproved:
		return 100
	case models.ThesisStatusUnderReview:
		return 60
	case models.ThesisStatusSubmitted:
		return 50
	case models.ThesisStatusResubmit, models.ThesisStatusResubmissionRequested, models.ThesisStatusResubmitted:
		return 40
	case models.ThesisStatusRejected:
		return 25
	default:
		return 10
	}
}
