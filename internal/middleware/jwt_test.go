package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/deskinspect/deskinspect-api/internal/models"
	"github.com/deskinspect/deskinspect-api/internal/service"
)

const jwtTestSecret = "test-secret"

func jwtTestService() *service.AuthService {
	return service.NewAuthService(nil, nil, nil, service.AuthConfig{
		AccessTokenSecret: jwtTestSecret,
		AccessTokenExpiry: time.Hour,
		Issuer:            "deskinspect-test",
	})
}

func signTestToken(t *testing.T, secret string, expiresAt time.Time) string {
	t.Helper()
	claims := models.JWTClaims{
		UserID: "u-1",
		Role:   models.RoleStudent,
		Email:  "alice@univ.edu",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			Issuer:    "deskinspect-test",
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func jwtRouter(authService *service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", JWT(authService), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	return router
}

func performAuthed(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTAcceptsValidBearerToken(t *testing.T) {
	router := jwtRouter(jwtTestService())
	token := signTestToken(t, jwtTestSecret, time.Now().UTC().Add(time.Hour))

	rec := performAuthed(router, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"user_id":"u-1"`)
}

func TestJWTRejectsMissingHeader(t *testing.T) {
	router := jwtRouter(jwtTestService())

	rec := performAuthed(router, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	router := jwtRouter(jwtTestService())
	token := signTestToken(t, jwtTestSecret, time.Now().UTC().Add(time.Hour))

	rec := performAuthed(router, token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	router := jwtRouter(jwtTestService())
	token := signTestToken(t, "other-secret", time.Now().UTC().Add(time.Hour))

	rec := performAuthed(router, "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTRejectsExpiredToken(t *testing.T) {
	router := jwtRouter(jwtTestService())
	token := signTestToken(t, jwtTestSecret, time.Now().UTC().Add(-time.Minute))

	rec := performAuthed(router, "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWTAttachesClaimsWhenPresent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/maybe", OptionalJWT(jwtTestService()), func(c *gin.Context) {
		if claims, ok := c.Get(ContextUserKey); ok {
			c.JSON(http.StatusOK, gin.H{"user_id": claims.(*models.JWTClaims).UserID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": ""})
	})

	token := signTestToken(t, jwtTestSecret, time.Now().UTC().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"user_id":"u-1"`)

	req = httptest.NewRequest(http.MethodGet, "/maybe", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"user_id":""`)
}
