package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"deplodash/internal/dto"
	"deplodash/internal/models"
	"deplodash/internal/repositories"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ===========================================================================
// Shared Handler Helpers
// ===========================================================================

// timeNow is swappable in tests
var timeNow = time.Now

// handleDBError classifies a database error and writes the response.
// Users get a readable message, the log gets the details.
func handleDBError(c *gin.Context, logger *zap.Logger, requestID string, err error, entity string) {
	logger.Error("database error",
		zap.String("request_id", requestID),
		zap.String("entity", entity),
		zap.Error(err),
	)

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, dto.Error(
			"NOT_FOUND",
			"The requested "+entity+" was not found",
		))
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, dto.Error(
			"DUPLICATE",
			"This "+entity+" already exists",
		))
	default:
		c.JSON(http.StatusInternalServerError, dto.Error(
			"DB_ERROR",
			"A database error occurred. Please try again later.",
		))
	}
}

// authorizeDomain loads a domain and verifies the profile owns it.
// Returns gorm.ErrRecordNotFound when the domain does not exist and
// errNotOwner when it belongs to someone else.
var errNotOwner = errors.New("domain not owned by profile")

func authorizeDomain(ctx context.Context, domainRepo repositories.DomainRepository, profileID, domainID uuid.UUID) (*models.Domain, error) {
	domain, err := domainRepo.FindByID(ctx, domainID)
	if err != nil {
		return nil, err
	}
	if domain.ProfileID != profileID {
		return nil, errNotOwner
	}
	return domain, nil
}

// writeAuthzError maps authorizeDomain failures to responses
func writeAuthzError(c *gin.Context, logger *zap.Logger, requestID string, err error) {
	if errors.Is(err, errNotOwner) {
		c.JSON(http.StatusForbidden, dto.Error("FORBIDDEN", "You do not have access to this domain"))
		return
	}
	handleDBError(c, logger, requestID, err, "domain")
}
