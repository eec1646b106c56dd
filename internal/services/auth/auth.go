// Package auth реализует регистрацию, вход и обновление токенов.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/moodlog/moodlog-backend/internal/lib/jwt"
	"github.com/moodlog/moodlog-backend/internal/lib/password"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
	"github.com/moodlog/moodlog-backend/internal/oauth"
)

var (
	// ErrUserExists возвращается при регистрации на занятую почту.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials возвращается при неверной паре почта/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken возвращается, когда refresh-токен не прошёл проверку.
	ErrInvalidToken = errors.New("invalid token")
)

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	LinkGoogleID(ctx context.Context, userUID, googleID string) error
}

// Keyring выдаёт ключи шифрования новым пользователям.
type Keyring interface {
	CreateKey(ctx context.Context, userUID string) (string, error)
}

// TokenMaker выпускает и проверяет JWT-токены.
type TokenMaker interface {
	GenerateAccessToken(userUID string, isAdmin bool) (string, error)
	GenerateRefreshToken(userUID string) (string, error)
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
	AccessTTL() time.Duration
}

// AuthService реализует бизнес-логику аутентификации.
type AuthService struct {
	repo    UserRepository
	keyring Keyring
	maker   TokenMaker
	log     *slog.Logger
}

// New создает новый экземпляр AuthService.
func New(repo UserRepository, keyring Keyring, maker TokenMaker, log *slog.Logger) *AuthService {
	return &AuthService{
		repo:    repo,
		keyring: keyring,
		maker:   maker,
		log:     log,
	}
}

// Register создаёт пользователя на бесплатном плане вместе с его ключом
// шифрования и сразу выдаёт пару токенов.
func (s *AuthService) Register(ctx context.Context, req models.DummyRegister) (*models.TokenPair, error) {
	const op = "auth.Register"

	existing, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	userUID, err := s.repo.RegisterUser(ctx, models.User{
		Email:              req.Email,
		PasswordHash:       hash,
		Plan:               models.PlanFree,
		SubscriptionStatus: models.SubscriptionStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.keyring.CreateKey(ctx, userUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("registered new user", slog.String("user_uid", userUID))
	return s.issueTokens(userUID, false)
}

// Login проверяет пару почта/пароль и выдаёт токены.
func (s *AuthService) Login(ctx context.Context, req models.DummyLogin) (*models.TokenPair, error) {
	const op = "auth.Login"

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := password.CompareHash(user.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user.UUID, user.IsAdmin)
}

// Refresh меняет действующий refresh-токен на новую пару токенов.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "auth.Refresh"

	claims, err := s.maker.ParseToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByUID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.issueTokens(user.UUID, user.IsAdmin)
}

// LoginWithGoogle входит или регистрирует пользователя по профилю Google.
// Если пользователь с такой почтой уже есть, аккаунт Google привязывается к нему.
func (s *AuthService) LoginWithGoogle(ctx context.Context, profile *oauth.GoogleUser) (*models.TokenPair, error) {
	const op = "auth.LoginWithGoogle"

	user, err := s.repo.GetUserByGoogleID(ctx, profile.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user != nil {
		return s.issueTokens(user.UUID, user.IsAdmin)
	}

	user, err = s.repo.GetUserByEmail(ctx, profile.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user != nil {
		if err := s.repo.LinkGoogleID(ctx, user.UUID, profile.ID); err != nil {
			s.log.Error("failed to link google account", sl.Err(err))
		}
		return s.issueTokens(user.UUID, user.IsAdmin)
	}

	userUID, err := s.repo.RegisterUser(ctx, models.User{
		Email:              profile.Email,
		GoogleID:           profile.ID,
		Plan:               models.PlanFree,
		SubscriptionStatus: models.SubscriptionStatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.keyring.CreateKey(ctx, userUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("registered new user via google", slog.String("user_uid", userUID))
	return s.issueTokens(userUID, false)
}

// Me возвращает профиль текущего пользователя.
func (s *AuthService) Me(ctx context.Context, userUID string) (*models.User, error) {
	const op = "auth.Me"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(userUID string, isAdmin bool) (*models.TokenPair, error) {
	const op = "auth.issueTokens"

	access, err := s.maker.GenerateAccessToken(userUID, isAdmin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	refresh, err := s.maker.GenerateRefreshToken(userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.maker.AccessTTL().Seconds()),
	}, nil
}
