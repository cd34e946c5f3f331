package activate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/EugeneC/chklstly/internal/identity"
	"github.com/EugeneC/chklstly/internal/services/entitlement"
)

// MockResolver реализует интерфейс activate.Resolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, credential string) (*identity.Session, error) {
	args := m.Called(ctx, credential)
	sess, _ := args.Get(0).(*identity.Session)
	return sess, args.Error(1)
}

// MockService реализует интерфейс activate.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) ActivateTrial(ctx context.Context, sess *identity.Session, now time.Time) (int64, error) {
	args := m.Called(ctx, sess, now)
	return args.Get(0).(int64), args.Error(1)
}

func testSession() *identity.Session {
	return &identity.Session{
		User: identity.User{
			UID:       "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
			Email:     "user@example.com",
			CreatedAt: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
		},
		Metadata: map[string]any{},
	}
}

func TestActivateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		requestBody    string
		setupMocks     func(*MockResolver, *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешная активация",
			requestBody: `{"accessToken": "valid-token"}`,
			setupMocks: func(r *MockResolver, s *MockService) {
				r.On("Resolve", mock.Anything, "valid-token").Return(testSession(), nil)
				s.On("ActivateTrial", mock.Anything, mock.Anything, mock.Anything).
					Return(int64(1768651200000), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"trialExpireDate":1768651200000`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			setupMocks:     func(_ *MockResolver, _ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"invalid request body"}`,
		},
		{
			name:           "токен не передан",
			requestBody:    `{}`,
			setupMocks:     func(_ *MockResolver, _ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"No accessToken provided"}`,
		},
		{
			name:        "невалидный токен",
			requestBody: `{"accessToken": "bad-token"}`,
			setupMocks: func(r *MockResolver, _ *MockService) {
				r.On("Resolve", mock.Anything, "bad-token").
					Return(nil, fmt.Errorf("resolve: %w", identity.ErrInvalidCredential))
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"Invalid token"}`,
		},
		{
			name:        "пробный период уже установлен",
			requestBody: `{"accessToken": "valid-token"}`,
			setupMocks: func(r *MockResolver, s *MockService) {
				r.On("Resolve", mock.Anything, "valid-token").Return(testSession(), nil)
				s.On("ActivateTrial", mock.Anything, mock.Anything, mock.Anything).
					Return(int64(0), fmt.Errorf("trial: %w", entitlement.ErrAlreadySet))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Trial already set"}`,
		},
		{
			name:        "ошибка записи метаданных",
			requestBody: `{"accessToken": "valid-token"}`,
			setupMocks: func(r *MockResolver, s *MockService) {
				r.On("Resolve", mock.Anything, "valid-token").Return(testSession(), nil)
				s.On("ActivateTrial", mock.Anything, mock.Anything, mock.Anything).
					Return(int64(0), errors.New("provider down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Failed to update trial data"}`,
		},
		{
			name:        "ошибка провайдера учетных записей",
			requestBody: `{"accessToken": "valid-token"}`,
			setupMocks: func(r *MockResolver, _ *MockService) {
				r.On("Resolve", mock.Anything, "valid-token").
					Return(nil, errors.New("identity provider down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Failed to set trial"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockResolver := new(MockResolver)
			mockService := new(MockService)
			tt.setupMocks(mockResolver, mockService)

			handler := New(logger, mockResolver, mockService)

			req := httptest.NewRequest(http.MethodPost, "/trial", bytes.NewReader([]byte(tt.requestBody)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)

			mockResolver.AssertExpectations(t)
			mockService.AssertExpectations(t)
		})
	}
}
