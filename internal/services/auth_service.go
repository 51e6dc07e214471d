package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

type userRepository interface {
	CreateUser(email, passwordHash, role string, companyID *int64) (*models.User, error)
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	UpdatePassword(id uuid.UUID, passwordHash string) error
	TouchLastLogin(id uuid.UUID) error
}

type refreshTokenStore interface {
	Store(userID uuid.UUID, token string, expiresAt time.Time) error
	Validate(userID uuid.UUID, token string) (*models.RefreshToken, error)
	Revoke(userID uuid.UUID, token string) error
	RevokeAll(userID uuid.UUID) error
}

type sessionRecorder interface {
	Create(session *models.UserSession) error
	CloseOpen(userID uuid.UUID) error
}

type driverProfileGetter interface {
	GetByUserID(userID string) (*models.Driver, error)
}

// AuthService handles registration, login and token refresh
type AuthService struct {
	users         userRepository
	refreshTokens refreshTokenStore
	sessions      sessionRecorder
	drivers       driverProfileGetter
	jwtService    *jwt.Service
	logger        *logrus.Logger
	refreshExpiry time.Duration
	accessExpiry  time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	users userRepository,
	refreshTokens refreshTokenStore,
	sessions sessionRecorder,
	drivers driverProfileGetter,
	jwtService *jwt.Service,
	logger *logrus.Logger,
	accessExpiry, refreshExpiry time.Duration,
) *AuthService {
	return &AuthService{
		users:         users,
		refreshTokens: refreshTokens,
		sessions:      sessions,
		drivers:       drivers,
		jwtService:    jwtService,
		logger:        logger,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// LoginResponse carries issued tokens and the authenticated user
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *models.User `json:"user"`
	DriverID     *int64       `json:"driver_id,omitempty"`
}

// ClientInfo carries request metadata recorded against the login session
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

var validRoles = map[string]bool{
	models.RoleDriver:     true,
	models.RoleDispatcher: true,
	models.RoleAdmin:      true,
}

// Register creates a new user account with a bcrypt-hashed password
func (s *AuthService) Register(email, password, role string, companyID *int64) (*models.User, error) {
	if email == "" {
		return nil, NewValidationError("email", "email is required")
	}
	if len(password) < 8 {
		return nil, NewValidationError("password", "password must be at least 8 characters")
	}
	if !validRoles[role] {
		return nil, NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(email, string(hash), role, companyID)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, NewValidationError("email", "email is already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered")

	return user, nil
}

// Login verifies credentials and issues an access/refresh token pair. The
// login is recorded as a session with device info parsed from the User-Agent.
func (s *AuthService) Login(email, password string, client ClientInfo) (*LoginResponse, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		// Same error for unknown email and bad password
		return nil, ErrInvalidCredentials
	}

	if user.Status != "active" {
		return nil, fmt.Errorf("account is %s: %w", user.Status, ErrForbidden)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	var driverID *int64
	if user.Role == models.RoleDriver {
		driver, err := s.drivers.GetByUserID(user.ID.String())
		if err == nil {
			driverID = &driver.ID
		} else if !errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("failed to load driver profile: %w", err)
		}
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Role, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := s.refreshTokens.Store(user.ID, refreshToken, time.Now().Add(s.refreshExpiry)); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	s.recordSession(user.ID, client)

	if err := s.users.TouchLastLogin(user.ID); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
		User:         user,
		DriverID:     driverID,
	}, nil
}

// Refresh rotates the refresh token and issues a fresh access token
func (s *AuthService) Refresh(refreshToken string) (*LoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", ErrInvalidCredentials)
	}

	if _, err := s.refreshTokens.Validate(claims.UserID, refreshToken); err != nil {
		return nil, fmt.Errorf("refresh token revoked or expired: %w", ErrInvalidCredentials)
	}

	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", ErrInvalidCredentials)
	}
	if user.Status != "active" {
		return nil, fmt.Errorf("account is %s: %w", user.Status, ErrForbidden)
	}

	var driverID *int64
	if user.Role == models.RoleDriver {
		if driver, err := s.drivers.GetByUserID(user.ID.String()); err == nil {
			driverID = &driver.ID
		}
	}

	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Role, driverID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	newRefreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	// Rotate: revoke the presented token, store the replacement
	if err := s.refreshTokens.Revoke(claims.UserID, refreshToken); err != nil {
		s.logger.WithError(err).WithField("user_id", claims.UserID).Warn("Failed to revoke rotated refresh token")
	}
	if err := s.refreshTokens.Store(user.ID, newRefreshToken, time.Now().Add(s.refreshExpiry)); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
		User:         user,
		DriverID:     driverID,
	}, nil
}

// Logout revokes all refresh tokens and closes open sessions for the user
func (s *AuthService) Logout(userID uuid.UUID) error {
	if err := s.refreshTokens.RevokeAll(userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	if err := s.sessions.CloseOpen(userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to close sessions")
	}
	return nil
}

// ChangePassword verifies the current password and replaces it, revoking all
// outstanding refresh tokens so stolen tokens die with the old password.
func (s *AuthService) ChangePassword(userID uuid.UUID, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return NewValidationError("new_password", "password must be at least 8 characters")
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return s.refreshTokens.RevokeAll(userID)
}

func (s *AuthService) recordSession(userID uuid.UUID, client ClientInfo) {
	session := &models.UserSession{UserID: userID}
	if client.IPAddress != "" {
		session.IPAddress = models.NewNullString(client.IPAddress)
	}
	if client.UserAgent != "" {
		session.UserAgent = models.NewNullString(client.UserAgent)
		ua := user_agent.New(client.UserAgent)
		session.IsMobile = ua.Mobile()
		if os := ua.OS(); os != "" {
			session.DeviceOS = models.NewNullString(os)
		}
		if name, version := ua.Browser(); name != "" {
			session.Browser = models.NewNullString(name + " " + version)
		}
	}

	if err := s.sessions.Create(session); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("Failed to record login session")
	}
}
