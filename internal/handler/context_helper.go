package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/radpulse/radpulse-api/internal/middleware"
	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/internal/service"
)

// actorFrom builds the acting identity from the validated claims.
func actorFrom(c *gin.Context) service.Actor {
	actor := service.Actor{}
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return actor
	}
	actor.UserID = claims.UserID
	actor.Name = claims.Name
	actor.Role = claims.Role
	actor.LabID = claims.LabID
	actor.DoctorID = claims.DoctorID
	return actor
}

// scopeFrom derives the row-level query scope from the claims.
func scopeFrom(c *gin.Context) models.AccessScope {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return models.AccessScope{}
	}
	scope := models.AccessScope{Role: claims.Role, UserID: claims.UserID}
	switch claims.Role {
	case models.RoleLabStaff:
		scope.LabID = claims.LabID
	case models.RoleDoctor:
		scope.DoctorID = claims.DoctorID
	}
	return scope
}
