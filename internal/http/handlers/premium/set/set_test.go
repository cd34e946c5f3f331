package set

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
	"github.com/EugeneC/chklstly/internal/subscription"
)

// MockResolver реализует интерфейс set.Resolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, credential string) (*identity.Session, error) {
	args := m.Called(ctx, credential)
	sess, _ := args.Get(0).(*identity.Session)
	return sess, args.Error(1)
}

// MockService реализует интерфейс set.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) SetPremium(ctx context.Context, sess *identity.Session, now time.Time) (bool, error) {
	args := m.Called(ctx, sess, now)
	return args.Bool(0), args.Error(1)
}

func testSession() *identity.Session {
	return &identity.Session{
		User: identity.User{
			UID:   "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
			Email: "user@example.com",
		},
		Metadata: map[string]any{},
	}
}

func TestSetHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		requestBody    string
		setupMocks     func(*MockResolver, *MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "премиум подтвержден",
			requestBody: `{"accessToken": "valid-token"}`,
			setupMocks: func(r *MockResolver, s *MockService) {
				r.On("Resolve", mock.Anything, "valid-token").Return(testSession(), nil)
				s.On("SetPremium", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"hasPremium":true`,
		},
		{
			name:        "премиум не подтвержден",
			requestBody: `{"accessToken": "valid-token"}`,
			setupMocks: func(r *MockResolver, s *MockService) {
				r.On("Resolve", mock.Anything, "valid-token").Return(testSession(), nil)
				s.On("SetPremium", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"hasPremium":false`,
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
			name:        "премиум уже установлен",
			requestBody: `{"accessToken": "valid-token"}`,
			setupMocks: func(r *MockResolver, s *MockService) {
				r.On("Resolve", mock.Anything, "valid-token").Return(testSession(), nil)
				s.On("SetPremium", mock.Anything, mock.Anything, mock.Anything).
					Return(false, fmt.Errorf("premium: %w", entitlement.ErrAlreadySet))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Premium already set"}`,
		},
		{
			name:        "биллинг недоступен",
			requestBody: `{"accessToken": "valid-token"}`,
			setupMocks: func(r *MockResolver, s *MockService) {
				r.On("Resolve", mock.Anything, "valid-token").Return(testSession(), nil)
				s.On("SetPremium", mock.Anything, mock.Anything, mock.Anything).
					Return(false, fmt.Errorf("verify: %w", subscription.ErrUnavailable))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Failed to fetch subscription from Adapty"}`,
		},
		{
			name:        "ошибка записи метаданных",
			requestBody: `{"accessToken": "valid-token"}`,
			setupMocks: func(r *MockResolver, s *MockService) {
				r.On("Resolve", mock.Anything, "valid-token").Return(testSession(), nil)
				s.On("SetPremium", mock.Anything, mock.Anything, mock.Anything).
					Return(false, errors.New("provider down"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Failed to update premium status"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockResolver := new(MockResolver)
			mockService := new(MockService)
			tt.setupMocks(mockResolver, mockService)

			handler := New(logger, mockResolver, mockService)

			req := httptest.NewRequest(http.MethodPost, "/premium", bytes.NewReader([]byte(tt.requestBody)))
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
