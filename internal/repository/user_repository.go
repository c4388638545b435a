package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/deskinspect/deskinspect-api/internal/models"
)

const userColumns = `id, email, password_hash, full_name, role, student_id, department,
       contact_number, profile_image_url, email_notifications, active, created_at, updated_at`

// UserRepository persists application users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	const query = `INSERT INTO users
	(id, email, password_hash, full_name, role, student_id, department, contact_number, profile_image_url, email_notifications, active, created_at, updated_at)
	VALUES (:id, :email, :password_hash, :full_name, :role, :student_id, :department, :contact_number, :profile_image_url, :email_notifications, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByID fetches a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail fetches a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindSupervisor resolves a faculty user by id, falling back to a
// case-insensitive email or full-name lookup. Returns sql.ErrNoRows when no
// faculty user matches.
func (r *UserRepository) FindSupervisor(ctx context.Context, ref string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users
	WHERE role = $1 AND (id = $2 OR LOWER(email) = LOWER($2) OR LOWER(full_name) = LOWER($2))
	LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, models.RoleFaculty, ref); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByStudentID resolves a user by their student identifier or email.
func (r *UserRepository) FindByStudentID(ctx context.Context, studentID string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users
	WHERE student_id = $1 OR LOWER(email) = LOWER($1) LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, studentID); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListSupervisors returns all faculty users sorted by name.
func (r *UserRepository) ListSupervisors(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE role = $1 AND active ORDER BY full_name ASC`, userColumns)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, models.RoleFaculty); err != nil {
		return nil, fmt.Errorf("list supervisors: %w", err)
	}
	return users, nil
}

// ListByRoles returns active users holding any of the provided roles.
func (r *UserRepository) ListByRoles(ctx context.Context, roles ...models.UserRole) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE active AND role = ANY($1) ORDER BY full_name ASC`, userColumns)
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, pq.Array(names)); err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return users, nil
}

// UpdateProfile persists the mutable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET
	full_name = :full_name, department = :department, contact_number = :contact_number,
	profile_image_url = :profile_image_url, email_notifications = :email_notifications, updated_at = :updated_at
	WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}
