package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ReportSlowMode(t *testing.T) {
	var gotPath string
	var gotBody map[string]float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")
	require.NoError(t, client.ReportSlowMode(context.Background(), "c1", 1.5))
	assert.Equal(t, "/api/cooldowns/c1", gotPath)
	assert.Equal(t, 1.5, gotBody["seconds"])
}

func TestClient_UpdateSettings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var patch domain.SettingsPatch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))
		require.NotNil(t, patch.ReplyFrequency)
		assert.Nil(t, patch.Enabled)

		s := domain.DefaultSettings()
		s.ReplyFrequency = *patch.ReplyFrequency
		json.NewEncoder(w).Encode(s)
	}))
	defer server.Close()

	freq := 80
	s, err := NewClient(server.URL).UpdateSettings(context.Background(), domain.SettingsPatch{ReplyFrequency: &freq})
	require.NoError(t, err)
	assert.Equal(t, 80, s.ReplyFrequency)
}

func TestClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid channel id", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GetQueue(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
	assert.Contains(t, err.Error(), "invalid channel id")
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url).GetCooldowns(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP GET failed")
}
