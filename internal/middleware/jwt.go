package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/internal/service"
	appErrors "github.com/radpulse/radpulse-api/pkg/errors"
	"github.com/radpulse/radpulse-api/pkg/response"
)

// Context keys populated by the JWT middleware.
const (
	CtxUserID   = "auth_user_id"
	CtxEmail    = "auth_email"
	CtxRole     = "auth_role"
	CtxLabID    = "auth_lab_id"
	CtxDoctorID = "auth_doctor_id"
	CtxClaims   = "auth_claims"
	CtxName     = "auth_name"
)

// JWT validates the bearer token and stores the identity on the
// request context.
func JWT(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxName, claims.Name)
		c.Set(CtxClaims, claims)
		if claims.LabID != nil {
			c.Set(CtxLabID, *claims.LabID)
		}
		if claims.DoctorID != nil {
			c.Set(CtxDoctorID, *claims.DoctorID)
		}

		c.Next()
	}
}

// ClaimsFrom returns the validated claims stored by JWT.
func ClaimsFrom(c *gin.Context) (*models.JWTClaims, bool) {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*models.JWTClaims)
	return claims, ok
}
