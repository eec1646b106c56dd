package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/moodlog/moodlog-backend/internal/http/middlewarectx"
	"github.com/moodlog/moodlog-backend/internal/models"
	"github.com/moodlog/moodlog-backend/internal/services/insight"
	"github.com/moodlog/moodlog-backend/internal/services/plan"
)

// MockService реализует интерфейс generate.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Generate(ctx context.Context, userUID, insightType string, refTime time.Time, language string) (*models.DecryptedInsight, error) {
	args := m.Called(ctx, userUID, insightType, refTime, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DecryptedInsight), args.Error(1)
}

// MockFeatures реализует интерфейс generate.FeatureChecker
type MockFeatures struct {
	mock.Mock
}

func (m *MockFeatures) HasFeature(ctx context.Context, userUID, feature string) (bool, error) {
	args := m.Called(ctx, userUID, feature)
	return args.Bool(0), args.Error(1)
}

func TestGenerateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		requestBody    interface{}
		userUID        string
		setupMock      func(*MockService, *MockFeatures)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешная генерация недельного отчета",
			requestBody: map[string]string{"type": "weekly", "language": "ru"},
			userUID:     "user-123",
			setupMock: func(s *MockService, f *MockFeatures) {
				f.On("HasFeature", mock.Anything, "user-123", plan.FeatureWeeklyInsights).
					Return(true, nil)
				s.On("Generate", mock.Anything, "user-123", "weekly", mock.AnythingOfType("time.Time"), "ru").
					Return(&models.DecryptedInsight{
						UUID:      "insight-1",
						Type:      "weekly",
						PeriodKey: "2025-W36",
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"period_key":"2025-W36"`,
		},
		{
			name:           "некорректный тип отчета",
			requestBody:    map[string]string{"type": "daily"},
			userUID:        "user-123",
			setupMock:      func(_ *MockService, _ *MockFeatures) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Type must be one of: weekly monthly`,
		},
		{
			name:        "генерация за прошлый период по дате",
			requestBody: map[string]string{"type": "monthly", "date": "2025-06-15"},
			userUID:     "user-123",
			setupMock: func(s *MockService, f *MockFeatures) {
				f.On("HasFeature", mock.Anything, "user-123", plan.FeatureMonthlyInsights).
					Return(true, nil)
				s.On("Generate", mock.Anything, "user-123", "monthly",
					time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), "").
					Return(&models.DecryptedInsight{
						UUID:      "insight-2",
						Type:      "monthly",
						PeriodKey: "2025-06",
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"period_key":"2025-06"`,
		},
		{
			name:           "некорректная дата",
			requestBody:    map[string]string{"type": "monthly", "date": "15.06.2025"},
			userUID:        "user-123",
			setupMock:      func(_ *MockService, _ *MockFeatures) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Date`,
		},
		{
			name:        "отчеты недоступны на тарифе",
			requestBody: map[string]string{"type": "monthly"},
			userUID:     "user-123",
			setupMock: func(_ *MockService, f *MockFeatures) {
				f.On("HasFeature", mock.Anything, "user-123", plan.FeatureMonthlyInsights).
					Return(false, nil)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"status":"Error","error":"insights are not available on your plan"}`,
		},
		{
			name:        "нет записей за период",
			requestBody: map[string]string{"type": "weekly"},
			userUID:     "user-123",
			setupMock: func(s *MockService, f *MockFeatures) {
				f.On("HasFeature", mock.Anything, "user-123", plan.FeatureWeeklyInsights).
					Return(true, nil)
				s.On("Generate", mock.Anything, "user-123", "weekly", mock.AnythingOfType("time.Time"), "").
					Return(nil, insight.ErrNoEntries)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"status":"Error","error":"no entries in period"}`,
		},
		{
			name:        "ошибка сервиса",
			requestBody: map[string]string{"type": "weekly"},
			userUID:     "user-123",
			setupMock: func(s *MockService, f *MockFeatures) {
				f.On("HasFeature", mock.Anything, "user-123", plan.FeatureWeeklyInsights).
					Return(true, nil)
				s.On("Generate", mock.Anything, "user-123", "weekly", mock.AnythingOfType("time.Time"), "").
					Return(nil, errors.New("llm error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not generate insight"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			mockFeatures := new(MockFeatures)
			tt.setupMock(mockService, mockFeatures)

			handler := New(logger, mockService, mockFeatures)

			body, err := json.Marshal(tt.requestBody)
			assert.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, "/insights/generate", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			ctx := context.WithValue(req.Context(), middlewarectx.UserUID, tt.userUID)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "req-id")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockService.AssertExpectations(t)
			mockFeatures.AssertExpectations(t)
		})
	}
}
