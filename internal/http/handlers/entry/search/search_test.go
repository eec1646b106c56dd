package search

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/moodlog/moodlog-backend/internal/http/middlewarectx"
	"github.com/moodlog/moodlog-backend/internal/models"
)

// MockService реализует интерфейс search.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Search(ctx context.Context, userUID, query string) ([]*models.DecryptedEntry, error) {
	args := m.Called(ctx, userUID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DecryptedEntry), args.Error(1)
}

func TestSearchHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		url            string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "поиск по тексту",
			url:     "/entries/search?q=работа",
			userUID: "user-123",
			setupMock: func(m *MockService) {
				m.On("Search", mock.Anything, "user-123", "работа").
					Return([]*models.DecryptedEntry{
						{UUID: "entry-1", Content: "Тяжелый день на работе"},
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"id":"entry-1"`,
		},
		{
			name:    "поиск по тегу",
			url:     "/entries/search?q=%23работа",
			userUID: "user-123",
			setupMock: func(m *MockService) {
				m.On("Search", mock.Anything, "user-123", "#работа").
					Return([]*models.DecryptedEntry{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"OK"`,
		},
		{
			name:           "пустой запрос",
			url:            "/entries/search?q=",
			userUID:        "user-123",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"query is required"}`,
		},
		{
			name:           "отсутствует авторизация",
			url:            "/entries/search?q=работа",
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:    "ошибка сервиса",
			url:     "/entries/search?q=работа",
			userUID: "user-123",
			setupMock: func(m *MockService) {
				m.On("Search", mock.Anything, "user-123", "работа").
					Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not search entries"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)

			ctx := req.Context()
			if tt.userUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.userUID)
			}
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
		})
	}
}
