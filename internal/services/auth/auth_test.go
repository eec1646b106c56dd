package auth

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moodlog/moodlog-backend/internal/lib/jwt"
	"github.com/moodlog/moodlog-backend/internal/lib/password"
	"github.com/moodlog/moodlog-backend/internal/models"
	"github.com/moodlog/moodlog-backend/internal/oauth"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) RegisterUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}
func (m *RepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) GetUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *RepoMock) LinkGoogleID(ctx context.Context, userUID, googleID string) error {
	return m.Called(ctx, userUID, googleID).Error(0)
}

type KeyringMock struct{ mock.Mock }

func (m *KeyringMock) CreateKey(ctx context.Context, userUID string) (string, error) {
	args := m.Called(ctx, userUID)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestMaker() *jwt.MakerImpl {
	return jwt.NewMaker("test-secret", 15*time.Minute, 24*time.Hour)
}

func notFoundErr() error {
	return fmt.Errorf("storage.GetUserByEmail: %w", sql.ErrNoRows)
}

func TestAuthService_Register(t *testing.T) {
	repo := new(RepoMock)
	keyring := new(KeyringMock)
	svc := New(repo, keyring, newTestMaker(), newNoopLogger())

	repo.On("GetUserByEmail", mock.Anything, "user@example.com").Return(nil, notFoundErr())
	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "user@example.com" && u.Plan == models.PlanFree && u.PasswordHash != ""
	})).Return("uid-1", nil)
	keyring.On("CreateKey", mock.Anything, "uid-1").Return("datakey", nil)

	pair, err := svc.Register(context.Background(), models.DummyRegister{
		Email:    "user@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)

	repo.AssertExpectations(t)
	keyring.AssertExpectations(t)
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := new(RepoMock)
	keyring := new(KeyringMock)
	svc := New(repo, keyring, newTestMaker(), newNoopLogger())

	repo.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(&models.User{UUID: "uid-1", Email: "user@example.com"}, nil)

	_, err := svc.Register(context.Background(), models.DummyRegister{
		Email:    "user@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestAuthService_Login(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, new(KeyringMock), newTestMaker(), newNoopLogger())

	hash, err := password.GetHash("password123")
	require.NoError(t, err)

	repo.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(&models.User{UUID: "uid-1", Email: "user@example.com", PasswordHash: hash}, nil)

	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"верный пароль", "password123", nil},
		{"неверный пароль", "wrongpass", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pair, err := svc.Login(context.Background(), models.DummyLogin{
				Email:    "user@example.com",
				Password: tt.password,
			})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, pair.AccessToken)
		})
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, new(KeyringMock), newTestMaker(), newNoopLogger())

	repo.On("GetUserByEmail", mock.Anything, "ghost@example.com").Return(nil, notFoundErr())

	_, err := svc.Login(context.Background(), models.DummyLogin{
		Email:    "ghost@example.com",
		Password: "whatever1",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Refresh(t *testing.T) {
	repo := new(RepoMock)
	maker := newTestMaker()
	svc := New(repo, new(KeyringMock), maker, newNoopLogger())

	refresh, err := maker.GenerateRefreshToken("uid-1")
	require.NoError(t, err)

	repo.On("GetUserByUID", mock.Anything, "uid-1").
		Return(&models.User{UUID: "uid-1", Email: "user@example.com"}, nil)

	pair, err := svc.Refresh(context.Background(), refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestAuthService_Refresh_AccessTokenRejected(t *testing.T) {
	maker := newTestMaker()
	svc := New(new(RepoMock), new(KeyringMock), maker, newNoopLogger())

	access, err := maker.GenerateAccessToken("uid-1", false)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_LoginWithGoogle_NewUser(t *testing.T) {
	repo := new(RepoMock)
	keyring := new(KeyringMock)
	svc := New(repo, keyring, newTestMaker(), newNoopLogger())

	repo.On("GetUserByGoogleID", mock.Anything, "google-1").Return(nil, notFoundErr())
	repo.On("GetUserByEmail", mock.Anything, "user@example.com").Return(nil, notFoundErr())
	repo.On("RegisterUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
		return u.GoogleID == "google-1" && u.Email == "user@example.com"
	})).Return("uid-1", nil)
	keyring.On("CreateKey", mock.Anything, "uid-1").Return("datakey", nil)

	pair, err := svc.LoginWithGoogle(context.Background(), &oauth.GoogleUser{
		ID:    "google-1",
		Email: "user@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	repo.AssertExpectations(t)
}

func TestAuthService_LoginWithGoogle_LinksExistingAccount(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, new(KeyringMock), newTestMaker(), newNoopLogger())

	repo.On("GetUserByGoogleID", mock.Anything, "google-1").Return(nil, notFoundErr())
	repo.On("GetUserByEmail", mock.Anything, "user@example.com").
		Return(&models.User{UUID: "uid-1", Email: "user@example.com"}, nil)
	repo.On("LinkGoogleID", mock.Anything, "uid-1", "google-1").Return(nil)

	pair, err := svc.LoginWithGoogle(context.Background(), &oauth.GoogleUser{
		ID:    "google-1",
		Email: "user@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	repo.AssertExpectations(t)
}
