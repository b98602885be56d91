package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"property-service/internal/events"
	"property-service/internal/metrics"
	"property-service/internal/models"
	"property-service/internal/policy"
	"property-service/internal/repository"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateUserRequest provisions an account directly, bypassing approval.
type CreateUserRequest struct {
	Email       string      `json:"email" binding:"required,email"`
	FullName    string      `json:"full_name" binding:"required"`
	Password    string      `json:"password" binding:"required"`
	Role        models.Role `json:"role" binding:"required"`
	FranchiseID *uuid.UUID  `json:"franchise_id"`
}

type TokenResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	User        models.UserPublic `json:"user"`
}

type AuthService struct {
	users      UserStore
	franchises FranchiseStore
	passwords  *PasswordService
	tokens     *JWTService
	events     events.Publisher
	logger     *logrus.Entry
}

func NewAuthService(users UserStore, franchises FranchiseStore, passwords *PasswordService, tokens *JWTService, publisher events.Publisher, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:      users,
		franchises: franchises,
		passwords:  passwords,
		tokens:     tokens,
		events:     publisher,
		logger:     logger.WithField("component", "auth"),
	}
}

// Register creates an unverified account with the user role.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.UserPublic, error) {
	user, err := s.newUser(ctx, req.Email, req.FullName, req.Password, models.RoleUser, nil)
	if err != nil {
		return nil, err
	}

	if err := s.insert(ctx, user); err != nil {
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User registered")
	publish(ctx, s.events, s.logger, &events.Event{
		EventType: events.EventUserRegistered,
		EntityID:  user.ID.String(),
		Data:      map[string]interface{}{"email": user.Email, "role": user.Role},
	})

	public := user.Public()
	return &public, nil
}

// Login checks credentials and approval, then issues a token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordLogin(metrics.LoginInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.passwords.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		metrics.RecordLogin(metrics.LoginInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	if err := authorize(user, policy.ActionLogin, policy.Resource{}); err != nil {
		metrics.RecordLogin(metrics.LoginPendingApproval)
		return nil, err
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	metrics.RecordLogin(metrics.LoginSuccess)
	return &TokenResponse{AccessToken: token, TokenType: "bearer", User: user.Public()}, nil
}

// Authenticate resolves the account behind an access token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errors.New("token subject no longer exists")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *AuthService) ListPendingUsers(ctx context.Context, actor *models.User) ([]models.UserPublic, error) {
	if err := authorize(actor, policy.ActionManagePendingUsers, policy.Resource{}); err != nil {
		return nil, err
	}

	users, err := s.users.ListUnverified(ctx)
	if err != nil {
		return nil, err
	}
	return models.PublicUsers(users), nil
}

// VerifyUser approves a pending account.
func (s *AuthService) VerifyUser(ctx context.Context, actor *models.User, userID uuid.UUID) (*models.UserPublic, error) {
	if err := authorize(actor, policy.ActionManagePendingUsers, policy.Resource{}); err != nil {
		return nil, err
	}

	if err := s.users.MarkVerified(ctx, userID); err != nil {
		return nil, notFound(err, "user", userID)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user", userID)
	}

	s.logger.WithFields(logrus.Fields{"user_id": userID, "verified_by": actor.ID}).Info("User verified")
	publish(ctx, s.events, s.logger, &events.Event{
		EventType: events.EventUserVerified,
		EntityID:  userID.String(),
		ActorID:   actor.ID.String(),
	})

	public := user.Public()
	return &public, nil
}

// CreateUser provisions an already verified account with any role.
func (s *AuthService) CreateUser(ctx context.Context, actor *models.User, req CreateUserRequest) (*models.UserPublic, error) {
	if err := authorize(actor, policy.ActionCreateUser, policy.Resource{}); err != nil {
		return nil, err
	}

	if !req.Role.Valid() {
		return nil, NewValidationError("role", fmt.Sprintf("unknown role %q", req.Role))
	}
	if req.FranchiseID != nil {
		if _, err := s.franchises.GetByID(ctx, *req.FranchiseID); err != nil {
			return nil, notFound(err, "franchise", *req.FranchiseID)
		}
	}

	user, err := s.newUser(ctx, req.Email, req.FullName, req.Password, req.Role, req.FranchiseID)
	if err != nil {
		return nil, err
	}
	user.IsVerified = true

	if err := s.insert(ctx, user); err != nil {
		return nil, err
	}

	publish(ctx, s.events, s.logger, &events.Event{
		EventType: events.EventUserCreated,
		EntityID:  user.ID.String(),
		ActorID:   actor.ID.String(),
		Data:      map[string]interface{}{"role": user.Role},
	})

	public := user.Public()
	return &public, nil
}

func (s *AuthService) newUser(ctx context.Context, email, fullName, password string, role models.Role, franchiseID *uuid.UUID) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, NewValidationError("email", "is required")
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, NewValidationError("full_name", "is required")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, NewConflictError("user", "email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.passwords.HashPassword(password)
	if err != nil {
		return nil, err
	}

	return &models.User{
		Email:        email,
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
		FranchiseID:  franchiseID,
		PasswordHash: hash,
	}, nil
}

// insert maps the unique-index race onto the same conflict as the pre-check.
func (s *AuthService) insert(ctx context.Context, user *models.User) error {
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return NewConflictError("user", "email already registered")
		}
		return err
	}
	return nil
}
