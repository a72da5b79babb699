package service

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-dashboard/config"
	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"
	"finance-dashboard/internal/repository"
	"finance-dashboard/pkg/logger"
	"finance-dashboard/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenBytes = 32

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*model.User, error)
	VerifyEmail(ctx context.Context, token string) (bool, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenResponse, error)
	Resume(ctx context.Context, rememberToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, userID uint) error
	Guard(ctx context.Context, bearer string) dto.AuthResult
	GetUser(ctx context.Context, userID uint) (*model.User, error)
	LinkTelegram(ctx context.Context, userID uint, chatID int64) error
	GetUserByTelegram(ctx context.Context, chatID int64) (*model.User, error)
}

// ConversionTracker records funnel events such as signups.
type ConversionTracker interface {
	TrackConversion(ctx context.Context, param dto.TrackConversionParam) error
}

type authClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type authService struct {
	cfg                 *config.Config
	log                 *logger.Logger
	userRepo            repository.UserRepository
	notificationService NotificationService
	conversions         ConversionTracker
	hashCost            int
}

// HS256 accepts any key length, including an empty one.
const minJWTSecretLength = 32

func NewAuthService(
	cfg *config.Config,
	log *logger.Logger,
	userRepo repository.UserRepository,
	notificationService NotificationService,
	conversions ConversionTracker,
) (AuthService, error) {
	if len(cfg.Auth.JWTSecret) < minJWTSecretLength {
		return nil, fmt.Errorf("auth.jwt_secret must be at least %d bytes", minJWTSecretLength)
	}
	return &authService{
		cfg:                 cfg,
		log:                 log,
		userRepo:            userRepo,
		notificationService: notificationService,
		conversions:         conversions,
		hashCost:            bcrypt.DefaultCost,
	}, nil
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || len(req.Password) < 8 {
		return nil, dto.ErrInvalidInput
	}

	existing, err := s.userRepo.Get(ctx, model.GetUserParam{Email: &email})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get user", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if existing != nil {
		return nil, dto.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	verification, err := utils.RandomToken(tokenBytes)
	if err != nil {
		return nil, err
	}

	role := model.RoleUser
	if s.cfg.IsAdminEmail(email) {
		role = model.RoleAdmin
	}
	user := &model.User{
		Email:             email,
		PasswordHash:      string(hash),
		Name:              strings.TrimSpace(req.Name),
		Role:              role,
		VerificationToken: sql.NullString{String: verification, Valid: true},
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, dto.ErrEmailTaken
		}
		s.log.ErrorContext(ctx, "Failed to create user", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	link := fmt.Sprintf("%s?token=%s", s.cfg.Auth.VerificationBaseURL, verification)
	body := fmt.Sprintf("Hola %s,\n\nConfirma tu correo electrónico en el siguiente enlace:\n%s\n", cmp.Or(user.Name, user.Email), link)
	if err := s.notificationService.SendEmail(ctx, user.Email, "Verifica tu correo electrónico", body); err != nil {
		s.log.WarnContext(ctx, "Verification email not sent", logger.ErrorField(err), logger.IntField("user_id", int(user.ID)))
	}

	if s.conversions != nil {
		_ = s.conversions.TrackConversion(ctx, dto.TrackConversionParam{
			UserID: &user.ID,
			Event:  dto.ConversionSignup,
			Source: "api",
		})
	}

	s.log.InfoContext(ctx, "User registered", logger.IntField("user_id", int(user.ID)))
	return user, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	user, err := s.userRepo.Get(ctx, model.GetUserParam{VerificationToken: &token})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get user by verification token", logger.ErrorField(err))
		return false, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return false, nil
	}

	err = s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{
		"email_verified":     true,
		"verification_token": nil,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to verify email", logger.ErrorField(err), logger.IntField("user_id", int(user.ID)))
		return false, fmt.Errorf("failed to verify email: %w", err)
	}
	return true, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.userRepo.Get(ctx, model.GetUserParam{Email: &email})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get user", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, dto.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, dto.ErrInvalidCredentials
	}

	now := utils.TimeNow()
	fields := map[string]interface{}{"last_login": now}

	resp, err := s.issueToken(user, now)
	if err != nil {
		return nil, err
	}
	if req.Remember {
		remember, err := utils.RandomToken(tokenBytes)
		if err != nil {
			return nil, err
		}
		fields["remember_token"] = remember
		fields["token_expires_at"] = now.Add(s.cfg.Auth.RememberTTL)
		resp.RememberToken = remember
	}

	if err := s.userRepo.UpdateFields(ctx, user.ID, fields); err != nil {
		s.log.ErrorContext(ctx, "Failed to update login state", logger.ErrorField(err), logger.IntField("user_id", int(user.ID)))
		return nil, fmt.Errorf("failed to update login state: %w", err)
	}
	return resp, nil
}

// Resume exchanges an unexpired remember token for a fresh access token.
func (s *authService) Resume(ctx context.Context, rememberToken string) (*dto.TokenResponse, error) {
	rememberToken = strings.TrimSpace(rememberToken)
	if rememberToken == "" {
		return nil, dto.ErrUnauthorized
	}
	user, err := s.userRepo.Get(ctx, model.GetUserParam{RememberToken: &rememberToken})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get user by remember token", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	now := utils.TimeNow()
	if user == nil || !user.TokenExpiresAt.Valid || !user.TokenExpiresAt.Time.After(now) {
		return nil, dto.ErrUnauthorized
	}

	resp, err := s.issueToken(user, now)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateFields(ctx, user.ID, map[string]interface{}{"last_login": now}); err != nil {
		s.log.WarnContext(ctx, "Failed to update last login", logger.ErrorField(err), logger.IntField("user_id", int(user.ID)))
	}
	return resp, nil
}

func (s *authService) Logout(ctx context.Context, userID uint) error {
	err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		"remember_token":   nil,
		"token_expires_at": nil,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to logout", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

func (s *authService) issueToken(user *model.User, now time.Time) (*dto.TokenResponse, error) {
	expiresAt := now.Add(s.cfg.Auth.TokenTTL)
	claims := authClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &dto.TokenResponse{AccessToken: signed, ExpiresAt: expiresAt}, nil
}

// Guard authenticates one request from its Authorization header value. The user is
// reloaded so role and admin status reflect the current record.
func (s *authService) Guard(ctx context.Context, bearer string) dto.AuthResult {
	raw := strings.TrimSpace(bearer)
	if raw == "" {
		return dto.AuthResult{Reason: "missing token"}
	}
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}

	var claims authClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Auth.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return dto.AuthResult{Reason: "invalid token"}
	}

	user, err := s.userRepo.Get(ctx, model.GetUserParam{ID: &claims.UserID})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to load user for guard", logger.ErrorField(err))
		return dto.AuthResult{Reason: "user lookup failed"}
	}
	if user == nil {
		return dto.AuthResult{Reason: "user not found"}
	}

	return dto.AuthResult{
		Authenticated: true,
		UserID:        user.ID,
		Email:         user.Email,
		Role:          user.Role,
		IsAdmin:       user.Role == model.RoleAdmin || s.cfg.IsAdminEmail(user.Email),
	}
}

func (s *authService) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, model.GetUserParam{ID: &userID})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get user", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, dto.ErrNotFound
	}
	return user, nil
}

func (s *authService) LinkTelegram(ctx context.Context, userID uint, chatID int64) error {
	if chatID == 0 {
		return dto.ErrInvalidInput
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"telegram_chat_id": chatID}); err != nil {
		s.log.ErrorContext(ctx, "Failed to link telegram", logger.ErrorField(err), logger.IntField("user_id", int(userID)))
		return fmt.Errorf("failed to link telegram: %w", err)
	}
	return nil
}

// GetUserByTelegram returns the user linked to chatID, or nil when none is.
func (s *authService) GetUserByTelegram(ctx context.Context, chatID int64) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, model.GetUserParam{TelegramChatID: &chatID})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get user by telegram chat", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
