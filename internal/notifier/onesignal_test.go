package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/notifications", r.URL.Path)
		assert.Equal(t, "push", r.URL.Query().Get("c"))
		assert.Equal(t, "Basic os-api-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"id":"notification-1","recipients":2}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "os-api-key", "app-1", "channel-1", "com.example.chklstly", 5*time.Second)

	checklistID := "list-42"
	raw, err := client.Send(context.Background(), Notification{
		UserUIDs:    []string{"uid-1", "uid-2"},
		Titles:      map[string]string{"en": "List updated"},
		Messages:    map[string]string{"en": "Bread was checked off"},
		ChecklistID: &checklistID,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"notification-1","recipients":2}`, string(raw))

	assert.Equal(t, "app-1", gotPayload["app_id"])
	assert.Equal(t, []any{"uid-1", "uid-2"}, gotPayload["include_external_user_ids"])
	assert.Equal(t, "com.example.chklstly.checklist_updates", gotPayload["thread_id"])
	assert.Equal(t, "com.example.chklstly.checklist_updates", gotPayload["android_group"])

	data, ok := gotPayload["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "list-42", data["checklistId"])
	assert.Equal(t, "list-42", data["collapse_id"])
}

func TestClient_SendWithoutChecklistID(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_, _ = w.Write([]byte(`{"id":"notification-1"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "os-api-key", "app-1", "channel-1", "com.example.chklstly", 5*time.Second)
	_, err := client.Send(context.Background(), Notification{
		UserUIDs: []string{"uid-1"},
		Titles:   map[string]string{"en": "t"},
		Messages: map[string]string{"en": "m"},
	})
	require.NoError(t, err)

	_, hasData := gotPayload["data"]
	assert.False(t, hasData)
}

func TestClient_SendProviderErrorBodyPassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":["invalid app_id"]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "os-api-key", "app-1", "channel-1", "com.example.chklstly", 5*time.Second)
	raw, err := client.Send(context.Background(), Notification{UserUIDs: []string{"uid-1"}})
	require.NoError(t, err, "тело ответа провайдера отдается как есть даже при ошибке")
	assert.JSONEq(t, `{"errors":["invalid app_id"]}`, string(raw))
}

func TestClient_SendTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, "os-api-key", "app-1", "channel-1", "com.example.chklstly", time.Second)
	_, err := client.Send(context.Background(), Notification{UserUIDs: []string{"uid-1"}})
	assert.Error(t, err)
}
