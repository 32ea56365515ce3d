package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paperdesk/paperdesk/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_RequiresTokenAndChat(t *testing.T) {
	// Fresh instance per case: Init keeps whatever was already set, so a
	// reused receiver would leak params between cases.
	err := New("", "").Init(notifier.Config{Params: map[string]any{"chat_id": "42"}})
	assert.Error(t, err)

	err = New("", "").Init(notifier.Config{Params: map[string]any{"bot_token": "tok"}})
	assert.Error(t, err)

	err = New("", "").Init(notifier.Config{Params: map[string]any{"bot_token": "tok", "chat_id": "42"}})
	assert.NoError(t, err)
}

func TestSend_PostsToBotEndpoint(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tg := New("tok", "42")
	tg.baseURL = srv.URL

	err := tg.Send(context.Background(), "desk report")

	require.NoError(t, err)
	assert.Equal(t, "/bottok/sendMessage", gotPath)
	assert.Equal(t, "42", gotPayload["chat_id"])
	assert.Equal(t, "desk report", gotPayload["text"])
}

func TestSend_SurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{"description": "bot blocked"})
	}))
	defer srv.Close()

	tg := New("tok", "42")
	tg.baseURL = srv.URL

	err := tg.Send(context.Background(), "desk report")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
