package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deskinspect/deskinspect-api/internal/dto"
	"github.com/deskinspect/deskinspect-api/internal/models"
	appErrors "github.com/deskinspect/deskinspect-api/pkg/errors"
	"github.com/deskinspect/deskinspect-api/pkg/jobs"
	"github.com/deskinspect/deskinspect-api/pkg/mailer"
)

type notificationRepoStub struct {
	notifications map[string]*models.Notification
	nextID        int
	deliverErr    error
}

func newNotificationRepoStub() *notificationRepoStub {
	return &notificationRepoStub{notifications: make(map[string]*models.Notification)}
}

func (s *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		s.nextID++
		n.ID = fmt.Sprintf("n-%d", s.nextID)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	cp := *n
	s.notifications[n.ID] = &cp
	return nil
}

func (s *notificationRepoStub) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	if n, ok := s.notifications[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *notificationRepoStub) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range s.notifications {
		if filter.Email != "" && n.Email != filter.Email {
			continue
		}
		if filter.Status == "unread" && n.Read {
			continue
		}
		if filter.Status == "read" && !n.Read {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (s *notificationRepoStub) MarkRead(ctx context.Context, id string, at time.Time) error {
	n, ok := s.notifications[id]
	if !ok {
		return sql.ErrNoRows
	}
	n.Read = true
	n.ReadAt = &at
	return nil
}

func (s *notificationRepoStub) MarkAllRead(ctx context.Context, userID, email string, at time.Time) (int64, error) {
	var modified int64
	for _, n := range s.notifications {
		match := (userID != "" && n.UserID == userID) || (email != "" && n.Email == email)
		if match && !n.Read {
			n.Read = true
			n.ReadAt = &at
			modified++
		}
	}
	return modified, nil
}

func (s *notificationRepoStub) MarkDelivered(ctx context.Context, id string) error {
	if s.deliverErr != nil {
		return s.deliverErr
	}
	n, ok := s.notifications[id]
	if !ok {
		return sql.ErrNoRows
	}
	n.Delivered = true
	return nil
}

func (s *notificationRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.notifications[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.notifications, id)
	return nil
}

func (s *notificationRepoStub) Counts(ctx context.Context, userID, email string) (int, int, error) {
	total, unread := 0, 0
	for _, n := range s.notifications {
		if (userID != "" && n.UserID == userID) || (email != "" && n.Email == email) {
			total++
			if !n.Read {
				unread++
			}
		}
	}
	return total, unread, nil
}

func (s *notificationRepoStub) DueUndelivered(ctx context.Context, email string, now time.Time) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range s.notifications {
		if n.Email == email && !n.Delivered && !n.ScheduledAt.After(now) {
			out = append(out, *n)
		}
	}
	return out, nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (s *queueStub) Enqueue(job jobs.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

type recipientDirStub struct {
	byEmail     map[string]*models.User
	byStudentID map[string]*models.User
}

func (s *recipientDirStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *recipientDirStub) FindByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	if u, ok := s.byStudentID[studentID]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type mailerStub struct {
	sent []mailer.Message
	err  error
}

func (s *mailerStub) Send(ctx context.Context, msg mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestEmitPersistsThenEnqueues(t *testing.T) {
	repo := newNotificationRepoStub()
	queue := &queueStub{}
	svc := NewNotificationService(repo, queue, nil)

	n := &models.Notification{
		Email:   "student@univ.edu",
		Type:    models.NotificationTypeGeneral,
		Title:   "Welcome",
		Message: "orientation details inside",
	}
	require.NoError(t, svc.Emit(context.Background(), n))

	require.Len(t, repo.notifications, 1)
	require.Len(t, queue.jobs, 1)
	require.Equal(t, JobTypeNotificationEmail, queue.jobs[0].Type)
	require.Equal(t, n.ID, queue.jobs[0].Payload)
}

func TestEmitSurvivesQueueFailure(t *testing.T) {
	repo := newNotificationRepoStub()
	queue := &queueStub{err: errors.New("queue full")}
	svc := NewNotificationService(repo, queue, nil)

	n := &models.Notification{Email: "student@univ.edu", Message: "hello"}
	require.NoError(t, svc.Emit(context.Background(), n))
	require.Len(t, repo.notifications, 1)
}

func TestEmitRequiresRecipient(t *testing.T) {
	svc := NewNotificationService(newNotificationRepoStub(), nil, nil)

	err := svc.Emit(context.Background(), &models.Notification{Message: "no recipient"})
	requireErrCode(t, err, appErrors.ErrValidation)
}

func TestMarkAllReadRequiresIdentity(t *testing.T) {
	svc := NewNotificationService(newNotificationRepoStub(), nil, nil)

	_, err := svc.MarkAllRead(context.Background(), dto.MarkAllReadRequest{})
	requireErrCode(t, err, appErrors.ErrValidation)
}

func TestMarkAllReadCountsModified(t *testing.T) {
	repo := newNotificationRepoStub()
	svc := NewNotificationService(repo, nil, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Emit(context.Background(), &models.Notification{
			Email:   "student@univ.edu",
			Message: "msg",
		}))
	}
	require.NoError(t, svc.Emit(context.Background(), &models.Notification{
		Email:   "other@univ.edu",
		Message: "msg",
	}))

	resp, err := svc.MarkAllRead(context.Background(), dto.MarkAllReadRequest{Email: "student@univ.edu"})
	require.NoError(t, err)
	require.EqualValues(t, 3, resp.ModifiedCount)

	counts, err := svc.Counts(context.Background(), "", "student@univ.edu")
	require.NoError(t, err)
	require.Equal(t, 3, counts.TotalCount)
	require.Equal(t, 0, counts.UnreadCount)
}

func TestDeliverMarksDueNotifications(t *testing.T) {
	repo := newNotificationRepoStub()
	svc := NewNotificationService(repo, nil, nil)

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	require.NoError(t, svc.Emit(context.Background(), &models.Notification{
		Email: "student@univ.edu", Message: "due", ScheduledAt: past,
	}))
	require.NoError(t, svc.Emit(context.Background(), &models.Notification{
		Email: "student@univ.edu", Message: "not yet", ScheduledAt: future,
	}))

	delivered, err := svc.Deliver(context.Background(), "student@univ.edu")
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	require.True(t, delivered[0].Delivered)
	require.Equal(t, "due", delivered[0].Message)
}

func dispatcherFixture() (*notificationRepoStub, *recipientDirStub, *mailerStub, *EmailDispatcher) {
	repo := newNotificationRepoStub()
	users := &recipientDirStub{
		byEmail:     map[string]*models.User{},
		byStudentID: map[string]*models.User{},
	}
	m := &mailerStub{}
	d := NewEmailDispatcher(repo, users, m, "https://app.deskinspect.io", nil)
	return repo, users, m, d
}

func TestDispatcherResolvesStudentID(t *testing.T) {
	repo, users, m, d := dispatcherFixture()
	users.byStudentID["STU001"] = &models.User{
		ID: "u-1", Email: "alice@univ.edu", FullName: "Alice Tan", EmailNotifications: true,
	}
	n := &models.Notification{
		Email:     "STU001",
		Title:     "Thesis Resubmission Required",
		Message:   "revise chapter 3",
		ActionURL: strPtr("/thesis-resubmission"),
	}
	require.NoError(t, repo.Create(context.Background(), n))

	err := d.Handle(context.Background(), jobs.Job{ID: "j-1", Type: JobTypeNotificationEmail, Payload: n.ID})
	require.NoError(t, err)

	require.Len(t, m.sent, 1)
	require.Equal(t, "alice@univ.edu", m.sent[0].To)
	require.Equal(t, "Alice Tan", m.sent[0].ToName)
	require.Equal(t, "https://app.deskinspect.io/thesis-resubmission", m.sent[0].ActionURL)
	require.True(t, repo.notifications[n.ID].Delivered)
}

func TestDispatcherRespectsOptOut(t *testing.T) {
	repo, users, m, d := dispatcherFixture()
	users.byEmail["bob@univ.edu"] = &models.User{
		ID: "u-2", Email: "bob@univ.edu", EmailNotifications: false,
	}
	n := &models.Notification{Email: "bob@univ.edu", Message: "hi"}
	require.NoError(t, repo.Create(context.Background(), n))

	err := d.Handle(context.Background(), jobs.Job{Payload: n.ID})
	require.NoError(t, err)
	require.Empty(t, m.sent)
	require.True(t, repo.notifications[n.ID].Delivered)
}

func TestDispatcherSkipsUnresolvableRecipient(t *testing.T) {
	repo, _, m, d := dispatcherFixture()
	n := &models.Notification{Email: "STU404", Message: "hi"}
	require.NoError(t, repo.Create(context.Background(), n))

	err := d.Handle(context.Background(), jobs.Job{Payload: n.ID})
	require.NoError(t, err)
	require.Empty(t, m.sent)
	require.True(t, repo.notifications[n.ID].Delivered)
}

func TestDispatcherFallsBackToRawAddress(t *testing.T) {
	repo, _, m, d := dispatcherFixture()
	n := &models.Notification{Email: "external@example.com", Message: "hi"}
	require.NoError(t, repo.Create(context.Background(), n))

	require.NoError(t, d.Handle(context.Background(), jobs.Job{Payload: n.ID}))
	require.Len(t, m.sent, 1)
	require.Equal(t, "external@example.com", m.sent[0].To)
}

func TestDispatcherSendFailurePropagatesForRetry(t *testing.T) {
	repo, _, m, d := dispatcherFixture()
	m.err = errors.New("smtp unavailable")
	n := &models.Notification{Email: "external@example.com", Message: "hi"}
	require.NoError(t, repo.Create(context.Background(), n))

	err := d.Handle(context.Background(), jobs.Job{Payload: n.ID})
	require.Error(t, err)
	require.False(t, repo.notifications[n.ID].Delivered)
}

func TestDispatcherIgnoresDeliveredAndMissing(t *testing.T) {
	repo, _, m, d := dispatcherFixture()
	n := &models.Notification{Email: "external@example.com", Message: "hi", Delivered: true}
	require.NoError(t, repo.Create(context.Background(), n))
	repo.notifications[n.ID].Delivered = true

	require.NoError(t, d.Handle(context.Background(), jobs.Job{Payload: n.ID}))
	require.NoError(t, d.Handle(context.Background(), jobs.Job{Payload: "gone"}))
	require.Empty(t, m.sent)
}
