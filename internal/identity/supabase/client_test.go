package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EugeneC/chklstly/internal/identity"
)

func TestClient_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantErr    error
		wantUID    string
		wantEmail  string
		wantTrial  *int64
		anyFailure bool
	}{
		{
			name:   "успешное разрешение токена",
			status: http.StatusOK,
			body: `{"id":"uid-1","email":"user@example.com","created_at":"2024-01-01T00:00:00Z",
				"app_metadata":{"provider":"email","trialExpireDate":1700000000000,"hasPremium":false}}`,
			wantUID:   "uid-1",
			wantEmail: "user@example.com",
			wantTrial: func() *int64 { v := int64(1700000000000); return &v }(),
		},
		{
			name:    "невалидный токен",
			status:  http.StatusUnauthorized,
			body:    `{"message":"invalid JWT"}`,
			wantErr: identity.ErrInvalidCredential,
		},
		{
			name:       "ошибка провайдера",
			status:     http.StatusInternalServerError,
			body:       `{}`,
			anyFailure: true,
		},
		{
			name:   "metadata отсутствует",
			status: http.StatusOK,
			body:   `{"id":"uid-2","email":"","created_at":"2024-01-01T00:00:00Z"}`,
			wantUID: "uid-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/auth/v1/user", r.URL.Path)
				assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "service-role-key", 5*time.Second)
			sess, err := client.Resolve(context.Background(), "token-1")

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyFailure:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantUID, sess.User.UID)
				assert.Equal(t, tt.wantEmail, sess.User.Email)
				assert.Equal(t, tt.wantTrial, sess.Entitlement.TrialExpireDate)
				assert.NotNil(t, sess.Metadata)
			}
		})
	}
}

func TestClient_UpdateMetadata(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/auth/v1/admin/users/uid-1", r.URL.Path)
		assert.Equal(t, "Bearer service-role-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "service-role-key", 5*time.Second)
	err := client.UpdateMetadata(context.Background(), "uid-1", map[string]any{
		"provider":   "email",
		"hasPremium": true,
	})
	require.NoError(t, err)

	meta, ok := gotBody["app_metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, meta["hasPremium"])
	assert.Equal(t, "email", meta["provider"])
}

func TestClient_UpdateMetadataFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "service-role-key", 5*time.Second)
	err := client.UpdateMetadata(context.Background(), "uid-1", map[string]any{})
	assert.Error(t, err)
}
