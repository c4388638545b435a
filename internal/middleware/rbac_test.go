package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/deskinspect/deskinspect-api/internal/models"
)

func rbacRouter(allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(ContextUserKey, &models.JWTClaims{
				UserID: c.GetHeader("X-Test-User"),
				Role:   models.UserRole(role),
			})
		}
		c.Next()
	})
	router.GET("/guarded/:id", RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func rbacRequest(router *gin.Engine, role, userID, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	router := rbacRouter("ADMIN", "FACULTY")

	rec := rbacRequest(router, string(models.RoleFaculty), "u-1", "/guarded/x")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRBACNormalisesLegacyAliases(t *testing.T) {
	// Route declarations may still carry legacy role spellings.
	router := rbacRouter("supervisor", "superadmin")

	rec := rbacRequest(router, string(models.RoleFaculty), "u-1", "/guarded/x")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = rbacRequest(router, string(models.RoleAdmin), "u-1", "/guarded/x")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRBACRejectsOtherRoles(t *testing.T) {
	router := rbacRouter("ADMIN")

	rec := rbacRequest(router, string(models.RoleStudent), "u-1", "/guarded/x")
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACRejectsMissingClaims(t *testing.T) {
	router := rbacRouter("ADMIN")

	rec := rbacRequest(router, "", "", "/guarded/x")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRBACSelfAccess(t *testing.T) {
	router := rbacRouter("ADMIN", "SELF")

	rec := rbacRequest(router, string(models.RoleStudent), "u-7", "/guarded/u-7")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = rbacRequest(router, string(models.RoleStudent), "u-7", "/guarded/u-8")
	require.Equal(t, http.StatusForbidden, rec.Code)
}
