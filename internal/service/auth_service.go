package service

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"strings"

	"gyma/internal/models"
	"gyma/internal/repository"
	"gyma/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// VerificationCodeLength is the length of the mailed verification code.
const VerificationCodeLength = 64

const codeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Mailer sends account mail.
type Mailer interface {
	SendVerification(ctx context.Context, to, code string) error
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// LoginInput is the login form.
type LoginInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	TrustDevice bool   `json:"trustDevice"`
}

// LoginResult carries the session token and, once a profile exists, the
// caller's own profile.
type LoginResult struct {
	SessionToken  string            `json:"session_token"`
	MyProfile     *models.MyProfile `json:"myProfileDTO"`
	DeviceTrusted bool              `json:"device_trusted"`
}

// AuthService handles accounts, email verification and sessions.
type AuthService struct {
	users    repository.UserRepository
	sessions SessionStore
	profiles *ProfileService
	mailer   Mailer
	cost     int
}

// NewAuthService returns a new AuthService.
func NewAuthService(users repository.UserRepository, sessions SessionStore, profiles *ProfileService, mailer Mailer) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		profiles: profiles,
		mailer:   mailer,
		cost:     bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account and mails its verification code.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := normalizeEmail(input.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if input.Password != input.Password2 {
		return nil, models.NewValidationError("Passwords do not match")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	code, err := generateVerificationCode()
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:       email,
		Password:    string(hashed),
		AccountType: models.AccountTypeUser,
	}
	if err := s.users.CreateWithVerification(ctx, user, code); err != nil {
		return nil, err
	}

	if err := s.mailer.SendVerification(ctx, email, code); err != nil {
		slog.ErrorContext(ctx, "failed to send verification mail", "user_id", user.ID, "err", err)
		return nil, models.NewInternalError(err)
	}
	return user, nil
}

// Verify consumes a verification code.
func (s *AuthService) Verify(ctx context.Context, code string) (*models.User, error) {
	if len(code) != VerificationCodeLength {
		return nil, models.NewNotFoundError("Verification code", code)
	}
	return s.users.Verify(ctx, code)
}

// ResendVerification issues a fresh code for an unverified account.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return models.NewValidationError("Email is required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return models.NewConflictError("User already verified").WithReason(models.ReasonAlreadyVerified)
	}

	code, err := generateVerificationCode()
	if err != nil {
		return models.NewInternalError(err)
	}
	if err := s.users.ReplaceVerificationCode(ctx, user.ID, code); err != nil {
		return err
	}
	if err := s.mailer.SendVerification(ctx, email, code); err != nil {
		slog.ErrorContext(ctx, "failed to resend verification mail", "user_id", user.ID, "err", err)
		return models.NewInternalError(err)
	}
	return nil
}

// Login checks credentials and opens a session.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	invalid := models.NewUnauthorizedError("Incorrect email or password")

	user, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, invalid
	}
	if !user.EmailVerified {
		return nil, models.NewForbiddenError("Email not verified").WithReason(models.ReasonEmailUnverified)
	}

	token, err := s.sessions.Create(ctx, user.ID, input.TrustDevice)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{SessionToken: token, DeviceTrusted: input.TrustDevice}
	me, err := s.profiles.Me(ctx, user.ID)
	switch {
	case err == nil:
		result.MyProfile = me
	case !models.IsCode(err, models.CodeNotFound):
		return nil, err
	}
	return result, nil
}

// Logout ends the session behind token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func generateVerificationCode() (string, error) {
	size := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, VerificationCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
