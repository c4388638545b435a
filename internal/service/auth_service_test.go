package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/deskinspect/deskinspect-api/internal/dto"
	"github.com/deskinspect/deskinspect-api/internal/models"
	appErrors "github.com/deskinspect/deskinspect-api/pkg/errors"
)

type authRepoStub struct {
	users  map[string]*models.User
	nextID int
}

func newAuthRepoStub() *authRepoStub {
	return &authRepoStub{users: make(map[string]*models.User)}
}

func (s *authRepoStub) Create(ctx context.Context, user *models.User) error {
	s.nextID++
	user.ID = fmt.Sprintf("u-%d", s.nextID)
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *authRepoStub) UpdateProfile(ctx context.Context, user *models.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func authFixture() (*authRepoStub, *AuthService) {
	repo := newAuthRepoStub()
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "deskinspect-test",
		Audience:          []string{"deskinspect"},
	})
	return repo, svc
}

func seedUser(t *testing.T, repo *authRepoStub, email, password string, role models.UserRole, active bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Email:              email,
		PasswordHash:       string(hash),
		FullName:           "Test User",
		Role:               role,
		EmailNotifications: true,
		Active:             active,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestLoginIssuesValidToken(t *testing.T) {
	repo, svc := authFixture()
	user := seedUser(t, repo, "alice@univ.edu", "s3cretpass", models.RoleStudent, true)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@univ.edu",
		Password: "s3cretpass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, user.ID, resp.User.ID)
	require.EqualValues(t, 3600, resp.ExpiresIn)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, models.RoleStudent, claims.Role)
	require.Equal(t, "deskinspect-test", claims.Issuer)
}

func TestLoginWrongPassword(t *testing.T) {
	repo, svc := authFixture()
	seedUser(t, repo, "alice@univ.edu", "s3cretpass", models.RoleStudent, true)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@univ.edu",
		Password: "wrong",
	})
	requireErrCode(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	_, svc := authFixture()

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ghost@univ.edu",
		Password: "whatever",
	})
	requireErrCode(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	repo, svc := authFixture()
	seedUser(t, repo, "alice@univ.edu", "s3cretpass", models.RoleStudent, false)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@univ.edu",
		Password: "s3cretpass",
	})
	requireErrCode(t, err, appErrors.ErrInactiveAccount)
}

func TestRegisterNormalisesRole(t *testing.T) {
	repo, svc := authFixture()

	user, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    "Reyes@Univ.edu",
		Password: "longenough",
		FullName: "Dr. Reyes",
		Role:     "supervisor",
	})
	require.NoError(t, err)
	require.Equal(t, models.RoleFaculty, user.Role)
	require.Equal(t, "reyes@univ.edu", user.Email)
	require.True(t, user.Active)
	require.True(t, user.EmailNotifications)
	require.NotEqual(t, "longenough", repo.users[user.ID].PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo, svc := authFixture()
	seedUser(t, repo, "alice@univ.edu", "s3cretpass", models.RoleStudent, true)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    "alice@univ.edu",
		Password: "longenough",
		FullName: "Alice Again",
		Role:     "student",
	})
	requireErrCode(t, err, appErrors.ErrConflict)
}

func TestRegisterUnknownRole(t *testing.T) {
	_, svc := authFixture()

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    "alice@univ.edu",
		Password: "longenough",
		FullName: "Alice Tan",
		Role:     "janitor",
	})
	requireErrCode(t, err, appErrors.ErrValidation)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	repo, svc := authFixture()
	seedUser(t, repo, "alice@univ.edu", "s3cretpass", models.RoleStudent, true)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "alice@univ.edu",
		Password: "s3cretpass",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	requireErrCode(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken("not-a-token")
	requireErrCode(t, err, appErrors.ErrUnauthorized)
}

func TestUpdateProfileAppliesPointerFields(t *testing.T) {
	repo, svc := authFixture()
	user := seedUser(t, repo, "alice@univ.edu", "s3cretpass", models.RoleStudent, true)

	contact := "+63 912 555 0101"
	optOut := false
	updated, err := svc.UpdateProfile(context.Background(), user.ID, dto.UpdateProfileRequest{
		FullName:           "Alice B. Tan",
		ContactNumber:      &contact,
		EmailNotifications: &optOut,
	})
	require.NoError(t, err)
	require.Equal(t, "Alice B. Tan", updated.FullName)
	require.Equal(t, contact, *updated.ContactNumber)
	require.False(t, updated.EmailNotifications)
	require.False(t, repo.users[user.ID].EmailNotifications)
}
