package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"deplodash/internal/auth"
	"deplodash/internal/config"
	apperrors "deplodash/internal/errors"
	"deplodash/internal/middleware"
	"deplodash/internal/models"
	"deplodash/internal/repositories"
	"deplodash/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ===========================================================================
// Fakes
// ===========================================================================

// fakeWidgetService scripted WidgetService for handler tests
type fakeWidgetService struct {
	sendErr error
	archive func(sessionID string, now time.Time) ([]uuid.UUID, error)
}

func (f *fakeWidgetService) CreateConversation(ctx context.Context, domainID uuid.UUID, sessionID, title string) (*models.Conversation, error) {
	if title == "" {
		title = "New Conversation"
	}
	now := time.Now()
	return &models.Conversation{
		BaseModel:     models.BaseModel{ID: uuid.New(), CreatedAt: now},
		DomainID:      domainID,
		SessionID:     &sessionID,
		Title:         title,
		Status:        models.StatusActive,
		LastMessageAt: &now,
	}, nil
}

func (f *fakeWidgetService) SendMessage(ctx context.Context, input services.SendMessageInput) (*services.SendMessageResult, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &services.SendMessageResult{
		Message: &models.Message{
			BaseModel:      models.BaseModel{ID: uuid.New(), CreatedAt: time.Now()},
			ConversationID: input.ConversationID,
			Content:        input.Content,
			SenderType:     input.SenderType,
		},
	}, nil
}

func (f *fakeWidgetService) ArchiveExpired(ctx context.Context, sessionID string, now time.Time) ([]uuid.UUID, error) {
	if f.archive != nil {
		return f.archive(sessionID, now)
	}
	return nil, nil
}

// stubConversationRepo serves a single canned conversation
type stubConversationRepo struct {
	conv *models.Conversation
}

func (s *stubConversationRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	if s.conv != nil && s.conv.ID == id {
		return s.conv, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubConversationRepo) FindByDomain(ctx context.Context, domainID uuid.UUID, opts repositories.ListConversationsOptions) ([]models.Conversation, error) {
	return nil, nil
}

func (s *stubConversationRepo) FindBySession(ctx context.Context, sessionID string) ([]models.Conversation, error) {
	if s.conv != nil && s.conv.SessionID != nil && *s.conv.SessionID == sessionID {
		return []models.Conversation{*s.conv}, nil
	}
	return []models.Conversation{}, nil
}

func (s *stubConversationRepo) FindActiveBySession(ctx context.Context, sessionID string) (*models.Conversation, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubConversationRepo) Create(ctx context.Context, conv *models.Conversation) error { return nil }
func (s *stubConversationRepo) Update(ctx context.Context, conv *models.Conversation) error { return nil }
func (s *stubConversationRepo) TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

// stubMessageRepo serves canned message rows
type stubMessageRepo struct {
	messages []models.Message
}

func (s *stubMessageRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubMessageRepo) FindByConversation(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	return s.messages, nil
}

func (s *stubMessageRepo) Create(ctx context.Context, msg *models.Message) error { return nil }

// stubSettingsRepo returns not-found so the handler falls back to defaults
type stubSettingsRepo struct {
	settings *models.DomainSettings
}

func (s *stubSettingsRepo) FindByDomain(ctx context.Context, domainID uuid.UUID) (*models.DomainSettings, error) {
	if s.settings != nil {
		return s.settings, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSettingsRepo) Upsert(ctx context.Context, settings *models.DomainSettings) error {
	return nil
}

// ===========================================================================
// Harness
// ===========================================================================

type widgetTestEnv struct {
	router *gin.Engine
	token  string
	svc    *fakeWidgetService
	conv   *stubConversationRepo
}

func newWidgetTestEnv(t *testing.T) *widgetTestEnv {
	t.Helper()

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:            "test-secret",
		AccessDuration:    15 * time.Minute,
		RefreshDuration:   168 * time.Hour,
		AnonymousDuration: time.Hour,
	})
	token, _, err := jwtService.GenerateAnonymousToken("sess-1")
	require.NoError(t, err)

	svc := &fakeWidgetService{}
	convRepo := &stubConversationRepo{}
	handler := NewWidgetHandler(svc, convRepo, &stubMessageRepo{}, &stubSettingsRepo{}, zap.NewNop())

	router := gin.New()
	router.HandleMethodNotAllowed = true
	api := router.Group("/api")
	handler.RegisterRoutes(api, middleware.AnonymousAuthMiddleware(jwtService))

	return &widgetTestEnv{router: router, token: token, svc: svc, conv: convRepo}
}

func (e *widgetTestEnv) request(method, path string, body interface{}, withToken bool) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if withToken {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// ===========================================================================
// Tests
// ===========================================================================

func TestWidgetEndpointsRejectMissingToken(t *testing.T) {
	env := newWidgetTestEnv(t)

	for _, path := range []string{"/api/conversations", "/api/messages"} {
		rec := env.request(http.MethodPost, path, gin.H{}, false)
		require.Equal(t, http.StatusUnauthorized, rec.Code, path)

		// Bare error object, no response envelope
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, map[string]interface{}{"error": "Unauthorized"}, body)
	}
}

func TestWidgetEndpointsRejectWrongMethod(t *testing.T) {
	env := newWidgetTestEnv(t)

	rec := env.request(http.MethodGet, "/api/conversations", nil, true)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = env.request(http.MethodPut, "/api/messages", gin.H{}, true)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWidgetCreateConversationReturnsRawRow(t *testing.T) {
	env := newWidgetTestEnv(t)

	rec := env.request(http.MethodPost, "/api/conversations", gin.H{
		"domain_id": uuid.New().String(),
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	// Raw conversation row, not wrapped in {success, data}
	require.NotContains(t, body, "success")
	require.NotContains(t, body, "data")
	require.Equal(t, "active", body["status"])
	require.Equal(t, "New Conversation", body["title"])
	require.Equal(t, "sess-1", body["session_id"])
}

func TestWidgetCreateConversationAcceptsLegacySessionBody(t *testing.T) {
	env := newWidgetTestEnv(t)

	// Older embed scripts send session_id in the body; it is accepted as
	// long as it agrees with the token claim
	rec := env.request(http.MethodPost, "/api/conversations", gin.H{
		"domain_id":  uuid.New().String(),
		"session_id": "sess-1",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "sess-1", body["session_id"])
}

func TestWidgetCreateConversationRejectsForeignSessionBody(t *testing.T) {
	env := newWidgetTestEnv(t)

	rec := env.request(http.MethodPost, "/api/conversations", gin.H{
		"domain_id":  uuid.New().String(),
		"session_id": "someone-else",
	}, true)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body, "error")
}

func TestWidgetCreateConversationRejectsBadBody(t *testing.T) {
	env := newWidgetTestEnv(t)

	rec := env.request(http.MethodPost, "/api/conversations", gin.H{}, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body, "error")
}

func TestWidgetCreateMessageReturnsRawRow(t *testing.T) {
	env := newWidgetTestEnv(t)

	conversationID := uuid.New()
	rec := env.request(http.MethodPost, "/api/messages", gin.H{
		"conversation_id": conversationID.String(),
		"content":         "hello",
		"sender_type":     "user",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, conversationID.String(), body["conversation_id"])
	require.Equal(t, "hello", body["content"])
	require.Equal(t, "user", body["sender_type"])
}

func TestWidgetCreateMessageErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{apperrors.ErrNotFound, http.StatusNotFound},
		{apperrors.ErrForbidden, http.StatusForbidden},
		{apperrors.ErrConflict, http.StatusConflict},
		{apperrors.ErrInvalidInput, http.StatusBadRequest},
	}

	for _, tt := range tests {
		env := newWidgetTestEnv(t)
		env.svc.sendErr = tt.err

		rec := env.request(http.MethodPost, "/api/messages", gin.H{
			"conversation_id": uuid.New().String(),
			"content":         "hello",
			"sender_type":     "user",
		}, true)
		require.Equal(t, tt.status, rec.Code, tt.err.Error())

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Contains(t, body, "error")
	}
}

func TestWidgetGetSettingsFallsBackToDefaults(t *testing.T) {
	env := newWidgetTestEnv(t)

	// Settings are public, no token needed
	rec := env.request(http.MethodGet, "/api/widget/settings?domain_id="+uuid.New().String(), nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Chatbot", body["chatbot_name"])
	require.Equal(t, "#4f46e5", body["primary_color"])
}

func TestWidgetListConversationsArchivesStaleThreads(t *testing.T) {
	env := newWidgetTestEnv(t)

	session := "sess-1"
	stale := time.Now().Add(-181 * 24 * time.Hour)
	conv := &models.Conversation{
		BaseModel:     models.BaseModel{ID: uuid.New()},
		SessionID:     &session,
		Status:        models.StatusActive,
		LastMessageAt: &stale,
	}
	env.conv.conv = conv

	// The expiry sweep runs against the session before the listing is
	// built, so the stale thread comes back already archived
	env.svc.archive = func(sessionID string, now time.Time) ([]uuid.UUID, error) {
		require.Equal(t, "sess-1", sessionID)
		if conv.ExpiredAt(now, 180*24*time.Hour) {
			conv.Archive()
			return []uuid.UUID{conv.ID}, nil
		}
		return nil, nil
	}

	rec := env.request(http.MethodGet, "/api/widget/conversations", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	require.Equal(t, "archived", rows[0]["status"])
}

func TestWidgetListMessagesScopedToSession(t *testing.T) {
	env := newWidgetTestEnv(t)

	otherSession := "someone-else"
	conv := &models.Conversation{
		BaseModel: models.BaseModel{ID: uuid.New()},
		SessionID: &otherSession,
		Status:    models.StatusActive,
	}
	env.conv.conv = conv

	rec := env.request(http.MethodGet, "/api/widget/conversations/"+conv.ID.String()+"/messages", nil, true)
	require.Equal(t, http.StatusForbidden, rec.Code)
}
