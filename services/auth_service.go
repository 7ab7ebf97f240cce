package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"minisocial-api/models"
	"minisocial-api/repositories"
	"minisocial-api/utils"
)

const tokenTTL = time.Hour * 24 * 7

type AuthService struct {
	accounts     *repositories.AccountRepository
	jwtSecret    []byte
	emailService *EmailService
}

func NewAuthService(accounts *repositories.AccountRepository, jwtSecret string, emailService *EmailService) *AuthService {
	return &AuthService{
		accounts:     accounts,
		jwtSecret:    []byte(jwtSecret),
		emailService: emailService,
	}
}

// AuthResult is returned by a successful sign-in or sign-up.
type AuthResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// SignUp creates an account and opens a session for it.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if !utils.IsValidEmail(email) {
		logAuthError("sign-up", ErrInvalidEmail, email)
		return nil, ErrInvalidEmail
	}
	if !utils.IsValidPassword(password) {
		logAuthError("sign-up", ErrWeakPassword, email)
		return nil, ErrWeakPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logAuthError("sign-up", err, email)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := models.Account{
		ID:       uuid.New().String(),
		Email:    email,
		Password: string(hashedPassword),
	}
	if err := s.accounts.Create(ctx, &account); err != nil {
		logAuthError("sign-up", err, email)
		if errors.Is(err, repositories.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	go func() {
		if err := s.emailService.SendWelcomeEmail(account.Email); err != nil {
			log.Printf("Failed to send welcome email: %v", err)
		}
	}()

	log.Printf("User signed up: %s", account.ID)
	return s.issue(account)
}

// SignIn checks credentials and opens a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		logAuthError("sign-in", err, email)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)); err != nil {
		logAuthError("sign-in", err, email)
		return nil, ErrInvalidCredentials
	}

	log.Printf("User logged in: %s", account.ID)
	return s.issue(*account)
}

// ParseToken resolves a bearer token into the session it was issued for.
func (s *AuthService) ParseToken(tokenString string) (models.Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return models.Session{}, ErrNoSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Session{}, ErrNoSession
	}
	userID, _ := claims["user_id"].(string)
	email, _ := claims["email"].(string)
	session := models.Session{UserID: userID, Email: email}
	if !session.Valid() {
		return models.Session{}, ErrNoSession
	}
	return session, nil
}

func (s *AuthService) issue(account models.Account) (*AuthResult, error) {
	claims := jwt.MapClaims{
		"user_id": account.ID,
		"email":   account.Email,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{Token: token, UserID: account.ID}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// logAuthError records code, message and metadata of a failed auth call.
func logAuthError(op string, err error, email string) {
	log.Printf("Auth error: op=%s code=%q message=%q email=%s", op, authErrorCode(err), err.Error(), email)
}

func authErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidEmail):
		return "invalid-email"
	case errors.Is(err, ErrWeakPassword):
		return "weak-password"
	case errors.Is(err, repositories.ErrEmailExists):
		return "email-already-in-use"
	case errors.Is(err, repositories.ErrNotFound):
		return "user-not-found"
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return "wrong-password"
	default:
		return "internal-error"
	}
}
