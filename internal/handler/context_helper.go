package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/deskinspect/deskinspect-api/internal/middleware"
	"github.com/deskinspect/deskinspect-api/internal/models"
)

// claimsFromContext returns the authenticated claims, or nil on routes
// that ran without the JWT middleware.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, ok := c.Get(middleware.ContextUserKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
