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
// Domain Handler
// Manage domains, chatbot settings and the knowledge base (FAQs and
// training data). Everything is scoped to the authenticated profile.
// ===========================================================================

// DomainHandler handles domain endpoints
type DomainHandler struct {
	domainRepo       repositories.DomainRepository
	settingsRepo     repositories.DomainSettingsRepository
	faqRepo          repositories.FAQRepository
	trainingDataRepo repositories.TrainingDataRepository
	logger           *zap.Logger
}

// NewDomainHandler creates a new domain handler
func NewDomainHandler(
	domainRepo repositories.DomainRepository,
	settingsRepo repositories.DomainSettingsRepository,
	faqRepo repositories.FAQRepository,
	trainingDataRepo repositories.TrainingDataRepository,
	logger *zap.Logger,
) *DomainHandler {
	return &DomainHandler{
		domainRepo:       domainRepo,
		settingsRepo:     settingsRepo,
		faqRepo:          faqRepo,
		trainingDataRepo: trainingDataRepo,
		logger:           logger,
	}
}

// ===========================================================================
// Request DTOs
// ===========================================================================

// CreateDomainBody body for creating a domain
type CreateDomainBody struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

// UpsertSettingsBody body for chatbot settings
type UpsertSettingsBody struct {
	ChatbotName     *string `json:"chatbot_name" binding:"omitempty,max=100"`
	GreetingMessage *string `json:"greeting_message" binding:"omitempty,max=1000"`
	PrimaryColor    *string `json:"primary_color" binding:"omitempty,hexcolor"`
	HeaderTextColor *string `json:"header_text_color" binding:"omitempty,hexcolor"`
}

// FAQBody body for creating/updating an FAQ
type FAQBody struct {
	Question string `json:"question" binding:"required,min=1,max=1000"`
	Answer   string `json:"answer" binding:"required,min=1,max=5000"`
}

// TrainingDataBody body for creating/updating a training snippet
type TrainingDataBody struct {
	Content string `json:"content" binding:"required,min=1,max=10000"`
}

// ===========================================================================
// Domain Handlers
// ===========================================================================

// List lists the profile's domains
// GET /api/v1/domains
func (h *DomainHandler) List(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	domains, err := h.domainRepo.FindByProfile(ctx, profileID)
	if err != nil {
		handleDBError(c, h.logger, requestID, err, "domains")
		return
	}

	c.JSON(http.StatusOK, dto.Success(domains))
}

// Create creates a new domain
// POST /api/v1/domains
func (h *DomainHandler) Create(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	var body CreateDomainBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	domain := &models.Domain{
		ProfileID: profileID,
		Name:      body.Name,
	}

	if err := h.domainRepo.Create(ctx, domain); err != nil {
		handleDBError(c, h.logger, requestID, err, "domain")
		return
	}

	// Seed default chatbot settings so the widget renders immediately
	settings := &models.DomainSettings{DomainID: domain.ID}
	if err := h.settingsRepo.Upsert(ctx, settings); err != nil {
		h.logger.Warn("seed domain settings failed",
			zap.String("request_id", requestID),
			zap.String("domain_id", domain.ID.String()),
			zap.Error(err),
		)
	}

	h.logger.Info("domain created",
		zap.String("request_id", requestID),
		zap.String("domain_id", domain.ID.String()),
		zap.String("name", domain.Name),
	)

	c.JSON(http.StatusCreated, dto.Success(domain))
}

// Get returns one domain with its settings
// GET /api/v1/domains/:id
func (h *DomainHandler) Get(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid domain ID"))
		return
	}

	domain, err := authorizeDomain(ctx, h.domainRepo, profileID, domainID)
	if err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	c.JSON(http.StatusOK, dto.Success(domain))
}

// Delete soft-deletes a domain
// DELETE /api/v1/domains/:id
func (h *DomainHandler) Delete(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid domain ID"))
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, domainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	if err := h.domainRepo.Delete(ctx, domainID); err != nil {
		handleDBError(c, h.logger, requestID, err, "domain")
		return
	}

	h.logger.Info("domain deleted",
		zap.String("request_id", requestID),
		zap.String("domain_id", domainID.String()),
	)

	c.JSON(http.StatusOK, dto.Success(gin.H{"deleted": true}))
}

// ===========================================================================
// Settings Handlers
// ===========================================================================

// GetSettings returns the chatbot settings for a domain
// GET /api/v1/domains/:id/settings
func (h *DomainHandler) GetSettings(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid domain ID"))
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, domainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	settings, err := h.settingsRepo.FindByDomain(ctx, domainID)
	if err != nil {
		handleDBError(c, h.logger, requestID, err, "settings")
		return
	}

	c.JSON(http.StatusOK, dto.Success(settings))
}

// UpdateSettings upserts the chatbot settings for a domain
// PUT /api/v1/domains/:id/settings
func (h *DomainHandler) UpdateSettings(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid domain ID"))
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, domainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	var body UpsertSettingsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	// Start from current values so a partial body doesn't blank fields
	settings, err := h.settingsRepo.FindByDomain(ctx, domainID)
	if err != nil {
		settings = &models.DomainSettings{DomainID: domainID}
	}

	if body.ChatbotName != nil {
		settings.ChatbotName = *body.ChatbotName
	}
	if body.GreetingMessage != nil {
		settings.GreetingMessage = *body.GreetingMessage
	}
	if body.PrimaryColor != nil {
		settings.PrimaryColor = *body.PrimaryColor
	}
	if body.HeaderTextColor != nil {
		settings.HeaderTextColor = *body.HeaderTextColor
	}

	if err := h.settingsRepo.Upsert(ctx, settings); err != nil {
		handleDBError(c, h.logger, requestID, err, "settings")
		return
	}

	h.logger.Info("domain settings updated",
		zap.String("request_id", requestID),
		zap.String("domain_id", domainID.String()),
	)

	c.JSON(http.StatusOK, dto.Success(settings))
}

// ===========================================================================
// FAQ Handlers
// ===========================================================================

// ListFAQs lists a domain's FAQs
// GET /api/v1/domains/:id/faqs
func (h *DomainHandler) ListFAQs(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid domain ID"))
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, domainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	faqs, err := h.faqRepo.FindByDomain(ctx, domainID)
	if err != nil {
		handleDBError(c, h.logger, requestID, err, "faqs")
		return
	}

	c.JSON(http.StatusOK, dto.Success(faqs))
}

// CreateFAQ adds an FAQ to a domain
// POST /api/v1/domains/:id/faqs
func (h *DomainHandler) CreateFAQ(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid domain ID"))
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, domainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	var body FAQBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	faq := &models.FAQ{
		DomainID: domainID,
		Question: body.Question,
		Answer:   body.Answer,
	}

	if err := h.faqRepo.Create(ctx, faq); err != nil {
		handleDBError(c, h.logger, requestID, err, "faq")
		return
	}

	c.JSON(http.StatusCreated, dto.Success(faq))
}

// UpdateFAQ edits an FAQ
// PUT /api/v1/domains/:id/faqs/:faqId
func (h *DomainHandler) UpdateFAQ(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid domain ID"))
		return
	}
	faqID, err := uuid.Parse(c.Param("faqId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid FAQ ID"))
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, domainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	faq, err := h.faqRepo.FindByID(ctx, faqID)
	if err != nil || faq.DomainID != domainID {
		c.JSON(http.StatusNotFound, dto.Error("NOT_FOUND", "The requested faq was not found"))
		return
	}

	var body FAQBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	faq.Question = body.Question
	faq.Answer = body.Answer

	if err := h.faqRepo.Update(ctx, faq); err != nil {
		handleDBError(c, h.logger, requestID, err, "faq")
		return
	}

	c.JSON(http.StatusOK, dto.Success(faq))
}

// DeleteFAQ removes an FAQ
// DELETE /api/v1/domains/:id/faqs/:faqId
func (h *DomainHandler) DeleteFAQ(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid domain ID"))
		return
	}
	faqID, err := uuid.Parse(c.Param("faqId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid FAQ ID"))
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, domainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	faq, err := h.faqRepo.FindByID(ctx, faqID)
	if err != nil || faq.DomainID != domainID {
		c.JSON(http.StatusNotFound, dto.Error("NOT_FOUND", "The requested faq was not found"))
		return
	}

	if err := h.faqRepo.Delete(ctx, faqID); err != nil {
		handleDBError(c, h.logger, requestID, err, "faq")
		return
	}

	c.JSON(http.StatusOK, dto.Success(gin.H{"deleted": true}))
}

// ===========================================================================
// Training Data Handlers
// ===========================================================================

// ListTrainingData lists a domain's training snippets
// GET /api/v1/domains/:id/training-data
func (h *DomainHandler) ListTrainingData(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid domain ID"))
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, domainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	data, err := h.trainingDataRepo.FindByDomain(ctx, domainID)
	if err != nil {
		handleDBError(c, h.logger, requestID, err, "training data")
		return
	}

	c.JSON(http.StatusOK, dto.Success(data))
}

// CreateTrainingData adds a training snippet
// POST /api/v1/domains/:id/training-data
func (h *DomainHandler) CreateTrainingData(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid domain ID"))
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, domainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	var body TrainingDataBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", err.Error()))
		return
	}

	data := &models.TrainingData{
		DomainID: domainID,
		Content:  body.Content,
	}

	if err := h.trainingDataRepo.Create(ctx, data); err != nil {
		handleDBError(c, h.logger, requestID, err, "training data")
		return
	}

	c.JSON(http.StatusCreated, dto.Success(data))
}

// DeleteTrainingData removes a training snippet
// DELETE /api/v1/domains/:id/training-data/:dataId
func (h *DomainHandler) DeleteTrainingData(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	ctx := c.Request.Context()

	profileID, _ := middleware.GetUserID(c)

	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid domain ID"))
		return
	}
	dataID, err := uuid.Parse(c.Param("dataId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.Error("INVALID_REQUEST", "Invalid training data ID"))
		return
	}

	if _, err := authorizeDomain(ctx, h.domainRepo, profileID, domainID); err != nil {
		writeAuthzError(c, h.logger, requestID, err)
		return
	}

	if err := h.trainingDataRepo.Delete(ctx, dataID); err != nil {
		handleDBError(c, h.logger, requestID, err, "training data")
		return
	}

	c.JSON(http.StatusOK, dto.Success(gin.H{"deleted": true}))
}

// ===========================================================================
// Route Registration
// ===========================================================================

// RegisterRoutes registers domain routes (all behind auth)
func (h *DomainHandler) RegisterRoutes(rg *gin.RouterGroup) {
	domains := rg.Group("/domains")
	{
		domains.GET("", h.List)
		domains.POST("", h.Create)
		domains.GET("/:id", h.Get)
		domains.DELETE("/:id", h.Delete)

		domains.GET("/:id/settings", h.GetSettings)
		domains.PUT("/:id/settings", h.UpdateSettings)

		domains.GET("/:id/faqs", h.ListFAQs)
		domains.POST("/:id/faqs", h.CreateFAQ)
		domains.PUT("/:id/faqs/:faqId", h.UpdateFAQ)
		domains.DELETE("/:id/faqs/:faqId", h.DeleteFAQ)

		domains.GET("/:id/training-data", h.ListTrainingData)
		domains.POST("/:id/training-data", h.CreateTrainingData)
		domains.DELETE("/:id/training-data/:dataId", h.DeleteTrainingData)
	}
}
