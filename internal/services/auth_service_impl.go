package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"deplodash/internal/auth"
	apperrors "deplodash/internal/errors"
	"deplodash/internal/models"
	"deplodash/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ===========================================================================
// Auth Service Implementation
// ===========================================================================

// authServiceImpl implements AuthService
type authServiceImpl struct {
	profileRepo repositories.ProfileRepository
	jwtService  *auth.JWTService
	logger      *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	profileRepo repositories.ProfileRepository,
	jwtService *auth.JWTService,
	logger *zap.Logger,
) AuthService {
	return &authServiceImpl{
		profileRepo: profileRepo,
		jwtService:  jwtService,
		logger:      logger,
	}
}

// hashToken creates a SHA256 hash of a token for storage
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Signup registers a new profile
func (s *authServiceImpl) Signup(ctx context.Context, username, email, password, fullName string) (*LoginResult, error) {
	// Reject duplicate emails up front for a friendlier error than the
	// unique constraint gives
	if _, err := s.profileRepo.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.ErrDuplicateEntry
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find profile by email: %w", err)
	}

	profile := &models.Profile{
		Username: username,
		Email:    email,
		FullName: fullName,
	}
	if err := profile.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		s.logger.Error("create profile failed",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("profile registered",
		zap.String("profile_id", profile.ID.String()),
		zap.String("email", email),
	)

	return s.issueTokens(ctx, profile)
}

// Login authenticates with email and password
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	profile, err := s.profileRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		s.logger.Error("find profile by email failed",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("find profile by email: %w", err)
	}

	if !profile.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	profile.UpdateLastSeen()

	result, err := s.issueTokens(ctx, profile)
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile logged in",
		zap.String("profile_id", profile.ID.String()),
		zap.String("email", profile.Email),
	)

	return result, nil
}

// issueTokens generates a pair and persists the refresh token hash
func (s *authServiceImpl) issueTokens(ctx context.Context, profile *models.Profile) (*LoginResult, error) {
	tokens, err := s.jwtService.GenerateTokenPair(profile)
	if err != nil {
		s.logger.Error("generate token failed",
			zap.Error(err),
			zap.String("profile_id", profile.ID.String()),
		)
		return nil, fmt.Errorf("generate token: %w", err)
	}

	tokenHash := hashToken(tokens.RefreshToken)
	profile.RefreshTokenHash = &tokenHash

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		s.logger.Error("save refresh token hash failed",
			zap.Error(err),
			zap.String("profile_id", profile.ID.String()),
		)
		// Login still succeeds; the refresh token just won't survive a
		// server-side check
	}

	return &LoginResult{
		Profile: profile,
		Tokens: &TokenPair{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			ExpiresIn:    900, // 15 minutes
		},
	}, nil
}

// RefreshTokens rotates the token pair using a refresh token
func (s *authServiceImpl) RefreshTokens(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		if err == auth.ErrExpiredToken {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}

	profile, err := s.profileRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	// Compare against the stored hash so revoked tokens stop working
	tokenHash := hashToken(refreshToken)
	if profile.RefreshTokenHash == nil || *profile.RefreshTokenHash != tokenHash {
		s.logger.Warn("refresh token hash mismatch - token possibly revoked",
			zap.String("profile_id", profile.ID.String()),
		)
		return nil, apperrors.ErrInvalidToken
	}

	return s.issueTokens(ctx, profile)
}

// GetProfileByID loads a profile by ID
func (s *authServiceImpl) GetProfileByID(ctx context.Context, profileID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find profile by id: %w", err)
	}
	return profile, nil
}

// RevokeRefreshToken invalidates the stored refresh token (logout)
func (s *authServiceImpl) RevokeRefreshToken(ctx context.Context, profileID uuid.UUID) error {
	profile, err := s.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		return apperrors.ErrNotFound
	}

	profile.RefreshTokenHash = nil
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	s.logger.Info("refresh token revoked",
		zap.String("profile_id", profileID.String()),
	)

	return nil
}

// IssueAnonymousToken mints a widget session token
func (s *authServiceImpl) IssueAnonymousToken(ctx context.Context, sessionID string) (*AnonymousTokenResult, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	token, expiresAt, err := s.jwtService.GenerateAnonymousToken(sessionID)
	if err != nil {
		s.logger.Error("generate anonymous token failed",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		return nil, fmt.Errorf("generate anonymous token: %w", err)
	}

	return &AnonymousTokenResult{
		Token:     token,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
	}, nil
}
