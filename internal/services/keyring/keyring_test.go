package keyring

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moodlog/moodlog-backend/internal/lib/cryptoxor"
	"github.com/moodlog/moodlog-backend/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateEncryptionKey(ctx context.Context, userUID, wrappedKey string) error {
	return m.Called(ctx, userUID, wrappedKey).Error(0)
}

func (m *RepoMock) GetEncryptionKey(ctx context.Context, userUID string) (*models.EncryptionKey, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EncryptionKey), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestKeyringService_CreateKey(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, "master-secret", newNoopLogger())

	var wrapped string
	repo.On("CreateEncryptionKey", mock.Anything, "user-1", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			wrapped = args.String(2)
		}).
		Return(nil)

	dataKey, err := svc.CreateKey(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, dataKey, 32)

	unwrapped, err := cryptoxor.Decrypt(wrapped, "master-secret")
	require.NoError(t, err)
	assert.Equal(t, dataKey, unwrapped)

	repo.AssertExpectations(t)
}

func TestKeyringService_CreateKey_Unique(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, "master-secret", newNoopLogger())

	repo.On("CreateEncryptionKey", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	first, err := svc.CreateKey(context.Background(), "user-1")
	require.NoError(t, err)
	second, err := svc.CreateKey(context.Background(), "user-2")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestKeyringService_DataKey(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, "master-secret", newNoopLogger())

	wrapped := cryptoxor.Encrypt("0123456789abcdef0123456789abcdef", "master-secret")
	repo.On("GetEncryptionKey", mock.Anything, "user-1").
		Return(&models.EncryptionKey{UserUID: "user-1", WrappedKey: wrapped}, nil)

	dataKey, err := svc.DataKey(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", dataKey)
}

func TestKeyringService_DataKey_NotFound(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, "master-secret", newNoopLogger())

	repo.On("GetEncryptionKey", mock.Anything, "user-1").Return(nil, nil)

	_, err := svc.DataKey(context.Background(), "user-1")
	assert.Error(t, err)
}

func TestKeyringService_DataKey_RepoError(t *testing.T) {
	repo := new(RepoMock)
	svc := New(repo, "master-secret", newNoopLogger())

	repo.On("GetEncryptionKey", mock.Anything, "user-1").Return(nil, errors.New("db down"))

	_, err := svc.DataKey(context.Background(), "user-1")
	assert.Error(t, err)
}
