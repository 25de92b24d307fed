// Package users signs customers up, logs them in and issues their tokens.
package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/01moynul/storefront-api/internal/apperrors"
	"github.com/01moynul/storefront-api/internal/auth"
	"github.com/01moynul/storefront-api/internal/models"
	"github.com/01moynul/storefront-api/internal/store"
	"go.uber.org/zap"
)

const minPasswordLength = 8

var (
	errBadCredentials = apperrors.Unauthorized("Invalid email or password")
	errBadMobile      = apperrors.Unauthorized("Invalid mobile number")
)

type Service struct {
	store   *store.Store
	tokens  *auth.Issuer
	timeout time.Duration
	log     *zap.Logger
}

func NewService(st *store.Store, tokens *auth.Issuer, timeout time.Duration, log *zap.Logger) *Service {
	return &Service{store: st, tokens: tokens, timeout: timeout, log: log}
}

type SignupInput struct {
	Email        string  `json:"email"`
	MobileNumber *string `json:"mobileNumber"`
	Password     string  `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is a user with a freshly issued access token.
type Session struct {
	User        *models.User `json:"user"`
	AccessToken string       `json:"accessToken"`
}

func (s *Service) session(u *models.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(u.ID, u.Role)
	if err != nil {
		return nil, apperrors.Internal("Failed to issue token", err)
	}
	return &Session{User: u, AccessToken: token}, nil
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, apperrors.InvalidOperation("A valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.InvalidOperation("Password must be at least %d characters", minPasswordLength)
	}

	// Hash the password with the model helper.
	var password models.Password
	if err := password.Set(in.Password); err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}
	mobile, err := normalizeMobile(in.MobileNumber)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Email:        email,
		MobileNumber: mobile,
		PasswordHash: password.Hash,
		Role:         models.RoleUser,
	}

	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperrors.Conflict("User with this email or mobile number already exists")
		}
		return nil, store.AsAppError(err, nil)
	}
	s.log.Info("User signed up", zap.String("user_id", u.ID))
	return s.session(u)
}

// Login returns the same Unauthorized error for an unknown email and a wrong password.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()

	u, err := s.store.FindUserByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return nil, store.AsAppError(err, errBadCredentials)
	}
	ok, err := (&models.Password{Hash: u.PasswordHash}).Matches(in.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to verify password", err)
	}
	if !ok {
		return nil, errBadCredentials
	}
	return s.session(u)
}

// LoginByMobile signs a customer in by their registered mobile number.
// Admin accounts must use email and password.
func (s *Service) LoginByMobile(ctx context.Context, mobileNumber string) (*Session, error) {
	mobile, err := normalizeMobile(&mobileNumber)
	if err != nil {
		return nil, err
	}
	if mobile == nil {
		return nil, apperrors.InvalidOperation("mobileNumber is required")
	}

	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	u, err := s.store.FindUserByMobile(ctx, *mobile)
	if err != nil {
		return nil, store.AsAppError(err, errBadMobile)
	}
	if u.Role != models.RoleUser {
		return nil, errBadMobile
	}
	return s.session(u)
}

// normalizeMobile drops spaces, dashes and parentheses. A blank number becomes nil.
func normalizeMobile(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	mobile := mobileSeparators.Replace(strings.TrimSpace(*raw))
	if mobile == "" {
		return nil, nil
	}
	for i, r := range mobile {
		if (r < '0' || r > '9') && !(i == 0 && r == '+') {
			return nil, apperrors.InvalidOperation("Mobile number %q must contain only digits and an optional leading +", *raw)
		}
	}
	if len(mobile) < 7 || len(mobile) > 16 {
		return nil, apperrors.InvalidOperation("Mobile number %q has an invalid length", *raw)
	}
	return &mobile, nil
}

var mobileSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// Role reads the user's current role from the store.
func (s *Service) Role(ctx context.Context, userID string) (string, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	role, err := s.store.FindUserRole(ctx, userID)
	if err != nil {
		return "", store.AsAppError(err, apperrors.Unauthorized("Invalid user"))
	}
	return role, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := store.TimeoutContext(ctx, s.timeout)
	defer cancel()
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, store.AsAppError(err, nil)
	}
	return users, nil
}
