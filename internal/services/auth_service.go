package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/totargaming/stockinfo/internal/constants"
	"github.com/totargaming/stockinfo/internal/models"
	"github.com/totargaming/stockinfo/internal/repository"
	"github.com/totargaming/stockinfo/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken        = errors.New("Username already taken")
	ErrEmailTaken           = errors.New("Email already registered")
	ErrIncorrectUsername    = errors.New("incorrect username")
	ErrIncorrectPassword    = errors.New("incorrect password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles registration, credential verification and Google
// OAuth identity resolution.
type AuthService struct {
	userRepo repository.UserRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
	}
}

// RegisterInput represents the required information to create a new account.
type RegisterInput struct {
	Username string
	Password string
	Email    string
	FullName string
}

// Register creates a new local-credentials account with the user role.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	hash := string(hashedPassword)
	user := &models.User{
		Username:     username,
		PasswordHash: &hash,
		Email:        input.Email,
		FullName:     input.FullName,
		Role:         models.RoleUser,
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user. An account
// without a stored hash (OAuth-only) never matches a password.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncorrectUsername
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.PasswordHash == nil {
		return nil, ErrIncorrectPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}

	if err := s.userRepo.TouchLastLogin(user.ID, time.Now()); err != nil {
		slog.Warn("failed to update last login", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateProfileInput holds the optional fields of a profile update. Omitted
// fields leave the stored value unchanged.
type UpdateProfileInput struct {
	Email    *string
	FullName *string
	Avatar   *string
	Address  *string
	DarkMode *bool
}

// UpdateProfile applies a partial update to the user's own profile. Role is
// deliberately not part of the input; only admins change roles.
func (s *AuthService) UpdateProfile(id uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.Update(id, repository.UserPatch{
		Email:    input.Email,
		FullName: input.FullName,
		Avatar:   input.Avatar,
		Address:  input.Address,
		DarkMode: input.DarkMode,
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(id uint64, currentPassword, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.GetUser(id)
	if err != nil {
		return err
	}
	if user.PasswordHash == nil {
		return ErrIncorrectPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrIncorrectPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}
	return s.userRepo.UpdatePassword(id, string(hashed))
}

// GoogleProfile is the identity returned by the OAuth provider.
type GoogleProfile struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// LoginWithGoogle resolves an OAuth identity to a local account: match by
// provider id first, then by email, else create a fresh account.
//
// The email-matching path links the provider id to a pre-existing local
// account without re-verifying ownership of that email through the local
// password. That is a known account-takeover vector kept for compatibility
// with existing accounts; the link is logged loudly.
func (s *AuthService) LoginWithGoogle(profile GoogleProfile) (*models.User, error) {
	user, err := s.userRepo.FindByGoogleID(profile.ID)
	if err == nil {
		if err := s.userRepo.TouchLastLogin(user.ID, time.Now()); err != nil {
			slog.Warn("failed to update last login", "user_id", user.ID, "error", err)
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up google id: %w", err)
	}

	user, err = s.userRepo.FindByEmail(profile.Email)
	if err == nil {
		slog.Warn("linking google identity to existing account by email match",
			"user_id", user.ID, "email", profile.Email)
		if err := s.userRepo.LinkGoogleID(user.ID, profile.ID); err != nil {
			return nil, fmt.Errorf("failed to link google id: %w", err)
		}
		if err := s.userRepo.TouchLastLogin(user.ID, time.Now()); err != nil {
			slog.Warn("failed to update last login", "user_id", user.ID, "error", err)
		}
		return s.GetUser(user.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	googleID := profile.ID
	now := time.Now()
	user = &models.User{
		Username:  utils.UsernameFromProfile(profile.Name, profile.ID),
		Email:     profile.Email,
		FullName:  profile.Name,
		Avatar:    profile.Picture,
		Role:      models.RoleUser,
		GoogleID:  &googleID,
		LastLogin: &now,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}
	return user, nil
}
