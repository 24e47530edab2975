package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dom/blog-backend/internal/auth"
	"github.com/dom/blog-backend/internal/domain"
	"github.com/dom/blog-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrRegistrationFieldsRequired = domain.NewError(domain.ErrValidation, "Username, email and password are required")
	ErrUserExists                 = domain.NewError(domain.ErrValidation, "User with this username or email already exists")
	ErrPasswordTooLong            = domain.NewError(domain.ErrValidation, "Password must be at most 72 bytes")
	ErrInvalidCredentials         = domain.NewError(domain.ErrUnauthorized, "Invalid credentials")
	ErrUnauthenticated            = domain.NewError(domain.ErrUnauthorized, "Not authenticated")
	ErrUserNotFound               = domain.NewError(domain.ErrNotFound, "User not found")
)

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenService
	log      logrus.FieldLogger
}

func NewAuthService(userRepo repository.UserRepository, tokens *auth.TokenService, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		log:      log,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResult struct {
	User  *domain.User
	Token string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)
	if username == "" || email == "" || input.Password == "" {
		return nil, ErrRegistrationFieldsRequired
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration for the same name.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"userId": user.ID, "username": user.Username}).Info("user registered")

	return s.issue(user)
}

// Login never reveals whether the email or the password was wrong.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *AuthService) GetCurrentUser(ctx context.Context, identity auth.Identity) (*domain.User, error) {
	if identity.IsZero() {
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.GetByID(ctx, identity.UserID())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		User:  user,
		Token: token,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
