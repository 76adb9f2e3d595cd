package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"moneypool-backend/internal/domain"
	"moneypool-backend/internal/logger"
	"moneypool-backend/internal/repository"
	"moneypool-backend/internal/security"
)

const minPasswordLength = 8

var ErrInvalidCredentials = domain.Errorf(domain.ErrUnauthorized, "invalid email or password")

type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	NationalID  string
	Address     string
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type authService struct {
	memberRepo repository.MemberRepository
	tokens     security.TokenManager
}

func NewAuthService(memberRepo repository.MemberRepository, tokens security.TokenManager) AuthService {
	return &authService{
		memberRepo: memberRepo,
		tokens:     tokens,
	}
}

// Register creates a PENDING membership request. The member can log in but
// cannot deposit until an admin approves them.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*domain.Member, error) {
	email := normalizeEmail(input.Email)
	logger.EnterMethod("authService.Register", "email", email)

	if err := validateRegistration(email, input); err != nil {
		logger.ExitMethodWithError("authService.Register", err, "email", email)
		return nil, err
	}

	_, err := s.memberRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		err = domain.Errorf(domain.ErrConflict, "an account with this email already exists")
		logger.ExitMethodWithError("authService.Register", err, "email", email)
		return nil, err
	case !errors.Is(err, domain.ErrNotFound):
		logger.ExitMethodWithError("authService.Register", err, "email", email)
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.ExitMethodWithError("authService.Register", err, "email", email)
		return nil, err
	}

	m := &domain.Member{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(input.Name),
		PhoneNumber:  strings.TrimSpace(input.PhoneNumber),
		NationalID:   strings.TrimSpace(input.NationalID),
		Address:      strings.TrimSpace(input.Address),
		Role:         domain.MemberRoleMember,
		Status:       domain.MemberStatusPending,
	}
	if err := s.memberRepo.Create(ctx, m); err != nil {
		logger.ExitMethodWithError("authService.Register", err, "email", email)
		return nil, err
	}

	logger.ExitMethod("authService.Register", "memberID", m.ID)
	return m, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthTokens, *domain.Member, error) {
	email = normalizeEmail(email)
	logger.EnterMethod("authService.Login", "email", email)

	m, err := s.memberRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		logger.ExitMethodWithError("authService.Login", err, "email", email)
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		logger.ExitMethodWithError("authService.Login", ErrInvalidCredentials, "email", email)
		return nil, nil, ErrInvalidCredentials
	}
	if err := checkCanSignIn(m); err != nil {
		logger.ExitMethodWithError("authService.Login", err, "memberID", m.ID)
		return nil, nil, err
	}

	tokens, err := s.issue(m)
	if err != nil {
		logger.ExitMethodWithError("authService.Login", err, "memberID", m.ID)
		return nil, nil, err
	}

	logger.ExitMethod("authService.Login", "memberID", m.ID, "role", m.Role)
	return tokens, m, nil
}

func (s *authService) RefreshToken(ctx context.Context, refresh string) (*AuthTokens, error) {
	claims, err := s.tokens.ValidateToken(refresh)
	if err != nil {
		return nil, domain.Errorf(domain.ErrUnauthorized, "%v", err)
	}
	if claims.Type != security.TokenTypeRefresh {
		return nil, domain.Errorf(domain.ErrUnauthorized, "%v", security.ErrWrongTokenType)
	}

	// Reload so role and status changes since the last login take effect.
	m, err := s.memberRepo.GetByID(ctx, claims.MemberID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Errorf(domain.ErrUnauthorized, "account no longer exists")
		}
		return nil, err
	}
	if err := checkCanSignIn(m); err != nil {
		return nil, err
	}
	return s.issue(m)
}

func (s *authService) issue(m *domain.Member) (*AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(m.ID, m.Email, string(m.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(m.ID, m.Email)
	if err != nil {
		return nil, err
	}
	return &AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}

// checkCanSignIn lets pending members in so they can follow their request;
// rejected and blocked accounts are refused.
func checkCanSignIn(m *domain.Member) error {
	switch m.Status {
	case domain.MemberStatusRejected:
		return domain.Errorf(domain.ErrForbidden, "membership request was rejected")
	case domain.MemberStatusBlocked:
		return domain.Errorf(domain.ErrForbidden, "account is blocked")
	}
	return nil
}

func validateRegistration(email string, input RegisterInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return domain.Errorf(domain.ErrValidation, "name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return domain.Errorf(domain.ErrValidation, "a valid email address is required")
	}
	if len(input.Password) < minPasswordLength {
		return domain.Errorf(domain.ErrValidation, "password must be at least %d characters", minPasswordLength)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
