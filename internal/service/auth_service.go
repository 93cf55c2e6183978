package service

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/pkg/logger"
	"fitplanhub/backend/internal/pkg/validator"
	"fitplanhub/backend/internal/repository"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "fitplanhub"

// ErrInvalidToken is returned by ParseToken for any unusable token.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload issued on login.
type Claims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles accounts, credentials and tokens.
type AuthService interface {
	Register(ctx context.Context, input domain.RegisterInput) (*domain.AuthResult, error)
	Login(ctx context.Context, input domain.LoginInput) (*domain.AuthResult, error)
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error)
	UpdateProfile(ctx context.Context, actorID primitive.ObjectID, actorRole domain.Role, targetID primitive.ObjectID, update domain.ProfileUpdate) (*domain.User, error)
	ChangePassword(ctx context.Context, userID primitive.ObjectID, change domain.PasswordChange) error
	ParseToken(token string) (*Claims, error)
}

// authService implements the AuthService interface.
type authService struct {
	users         repository.UserRepository
	jwtSecret     []byte
	jwtExpiration time.Duration
	validate      *validator.Validator
	log           *logger.Logger
}

// NewAuthService creates a new instance of authService.
func NewAuthService(users repository.UserRepository, jwtSecret string, jwtExpiration time.Duration, v *validator.Validator, log *logger.Logger) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 7 * 24 * time.Hour
	}
	return &authService{
		users:         users,
		jwtSecret:     []byte(jwtSecret),
		jwtExpiration: jwtExpiration,
		validate:      v,
		log:           log.With("component", "auth"),
	}
}

// Register creates an end-user or trainer account and signs it in.
func (s *authService) Register(ctx context.Context, input domain.RegisterInput) (*domain.AuthResult, error) {
	if err := s.validate.Check(input); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = domain.RoleUser
	}
	if input.Role != domain.RoleUser && input.Role != domain.RoleTrainer {
		return nil, ErrInvalidRole
	}

	// 1. Email must be free; the unique index catches a concurrent duplicate
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	// 2. Hash the password
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		PasswordHash: string(hashed),
		Role:         input.Role,
		IsActive:     true,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, ErrTokenGeneration.WithInternal(err)
	}
	s.log.WithFields(map[string]interface{}{"userId": user.ID.Hex(), "role": user.Role}).Info("account registered")
	return &domain.AuthResult{Token: token, User: user}, nil
}

// Login checks credentials and issues a JWT.
func (s *authService) Login(ctx context.Context, input domain.LoginInput) (*domain.AuthResult, error) {
	if err := s.validate.Check(input); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthenticationFailed // Unknown email maps to auth failure
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrAuthenticationFailed
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, ErrTokenGeneration.WithInternal(err)
	}
	return &domain.AuthResult{Token: token, User: user}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// UpdateProfile edits the allowed profile fields of targetID. Only the owner
// or an admin may do so.
func (s *authService) UpdateProfile(ctx context.Context, actorID primitive.ObjectID, actorRole domain.Role, targetID primitive.ObjectID, update domain.ProfileUpdate) (*domain.User, error) {
	if actorID != targetID && actorRole != domain.RoleAdmin {
		return nil, ErrNotProfileOwner
	}
	if err := s.validate.Check(update); err != nil {
		return nil, err
	}
	user, err := s.users.UpdateProfile(ctx, targetID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *authService) ChangePassword(ctx context.Context, userID primitive.ObjectID, change domain.PasswordChange) error {
	if err := s.validate.Check(change); err != nil {
		return err
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(change.CurrentPassword)); err != nil {
		return ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(change.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.log.With("userId", userID.Hex()).Info("password changed")
	return nil
}

// --- JWT Helpers ---

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

// ParseToken verifies an HS256 token and returns its claims.
func (s *authService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := primitive.ObjectIDFromHex(claims.UserID); err != nil || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
