package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "User"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidEmail       = errors.New("a valid email is required")
	ErrInvalidName        = errors.New("name is required")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDeactivated    = errors.New("user account is deactivated")
)

// User represents a user account
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Service handles user domain operations
type Service struct {
	eventStore store.EventStoreInterface
}

// NewService creates a new user service
func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Register creates a new customer account
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, error) {
	return s.RegisterWithRole(ctx, email, password, name, RoleCustomer)
}

// RegisterAdmin creates a new admin account
func (s *Service) RegisterAdmin(ctx context.Context, email, password, name string) (*User, error) {
	return s.RegisterWithRole(ctx, email, password, name, RoleAdmin)
}

// RegisterWithRole creates a new account with an explicit role
func (s *Service) RegisterWithRole(ctx context.Context, email, password, name, role string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if name == "" {
		return nil, ErrInvalidName
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	userID := uuid.New().String()
	now := time.Now()

	event := UserRegistered{
		UserID:       userID,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
	}

	_, err = s.eventStore.Append(ctx, userID, AggregateType, EventUserRegistered, event)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:        userID,
		Email:     email,
		Name:      name,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
	}, nil
}

// RecordLogin records a login event
func (s *Service) RecordLogin(ctx context.Context, userID, sessionID, ipAddress, userAgent string) error {
	event := UserLoggedIn{
		UserID:    userID,
		SessionID: sessionID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		LoggedAt:  time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserLoggedIn, event)
	return err
}

// RecordLogout records a logout event
func (s *Service) RecordLogout(ctx context.Context, userID, sessionID string) error {
	event := UserLoggedOut{
		UserID:    userID,
		SessionID: sessionID,
		LoggedAt:  time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserLoggedOut, event)
	return err
}

// UpdateProfile updates profile fields
func (s *Service) UpdateProfile(ctx context.Context, userID, name, phone string) error {
	if name == "" {
		return ErrInvalidName
	}
	if err := s.ensureExists(userID); err != nil {
		return err
	}

	event := UserProfileUpdated{
		UserID:    userID,
		Name:      name,
		Phone:     phone,
		UpdatedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserProfileUpdated, event)
	return err
}

// ChangePassword rotates the stored password hash
func (s *Service) ChangePassword(ctx context.Context, userID, newPassword string) error {
	if err := s.ensureExists(userID); err != nil {
		return err
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	event := UserPasswordChanged{
		UserID:       userID,
		PasswordHash: passwordHash,
		ChangedAt:    time.Now(),
	}

	_, err = s.eventStore.Append(ctx, userID, AggregateType, EventUserPasswordChanged, event)
	return err
}

// Deactivate disables an account
func (s *Service) Deactivate(ctx context.Context, userID string) error {
	if err := s.ensureExists(userID); err != nil {
		return err
	}

	event := UserDeactivated{
		UserID:        userID,
		DeactivatedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserDeactivated, event)
	return err
}

// Activate re-enables an account
func (s *Service) Activate(ctx context.Context, userID string) error {
	if err := s.ensureExists(userID); err != nil {
		return err
	}

	event := UserActivated{
		UserID:      userID,
		ActivatedAt: time.Now(),
	}

	_, err := s.eventStore.Append(ctx, userID, AggregateType, EventUserActivated, event)
	return err
}

func (s *Service) ensureExists(userID string) error {
	if len(s.eventStore.GetEvents(userID)) == 0 {
		return ErrUserNotFound
	}
	return nil
}
