package handlers

import (
	"net/http"

	"deplodash/internal/dto"
	"deplodash/internal/middleware"
	"deplodash/internal/models"
	"deplodash/internal/repositories"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ===========================================================================
// Tag Handler
// Manage a domain's tag vocabulary. Deleting a tag also removes it from
// every conversation carrying it.
// ===========================================================================

// TagHandler handles tag endpoints
type TagHandler struct {
	tagRepo    repositories.TagRepository
	domainRepo repositories.DomainRepository
	logger     *zap.Logger
}

// NewTagHandler creates a new tag handler
func NewTagHandler(
	tagRepo repositories.TagRepository,
	domainRepo repositories.DomainRepository,
	logger *zap.Logger,
) *TagHandler {
	return &TagHandler{
		tagRepo:    tagRepo,
		domainRepo: domainRepo,
		logger:     logger,
	}
}

// CreateTagBody body for creating a tag
type CreateTagBody struct {
	DomainID uuid.UUID `json:"domain_id" binding:"required"`
	Name     string    `json:"name" binding:"required,min=1,max=50"`
	Color    string    `json:"color" binding:"omitempty,hexcolor"`
}

// List lists a domain's tags
// GET /api/v1/tags?domain_id=xxx
func (h *TagHandler) List(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	domainID, err := uuid.Parse(c.Query("domain_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid domain_id"))
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, domainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	tags, err := h.tagRepo.FindByDomain(ctx, domainID)
	if err != nil {
		handleDBError(c, h.logger, requestID, err, "tags")
		return
	}

	c.JSON(http.StatusOK, dto.Success(tags))
}

// Create creates a tag
// POST /api/v1/tags
func (h *TagHandler) Create(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	var body CreateTagBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, body.DomainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	tag := &models.Tag{
		DomainID: body.DomainID,
		Name:     body.Name,
		Color:    body.Color,
	}

	if err := h.tagRepo.Create(ctx, tag); err != nil {
		handleDBError(c, h.logger, requestID, err, "tag")
		return
	}

	c.JSON(http.StatusCreated, dto.Success(tag))
}

// Delete removes a tag everywhere
// DELETE /api/v1/tags/:id
func (h *TagHandler) Delete(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	tagID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid tag ID"))
		return
	}

	tag, err := h.tagRepo.FindByID(ctx, tagID)
	if err != nil {
		handleDBError(c, h.logger, requestID, err, "tag")
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, tag.DomainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	if err := h.tagRepo.Delete(ctx, tagID); err != nil {
		handleDBError(c, h.logger, requestID, err, "tag")
		return
	}

	h.logger.Info("tag deleted",
		zap.String("request_id", requestID),
		zap.String("tag_id", tagID.String()),
	)

	c.JSON(http.StatusOK, dto.Success(gin.H{"deleted": true}))
}

// ===========================================================================
// Route Registration
// ===========================================================================

// RegisterRoutes registers tag routes (all behind auth)
func (h *TagHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tags := rg.Group("/tags")
	{
		tags.GET("", h.List)
		tags.POST("", h.Create)
		tags.DELETE("/:id", h.Delete)
	}
}
