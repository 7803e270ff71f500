package data

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chatops-lab/discord-autoreply/internal/biz/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepo_LoadEmpty(t *testing.T) {
	r, err := NewSettingsRepo(filepath.Join(t.TempDir(), "nested", "settings.db"))
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSettingsRepo_SaveAndLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "settings.db")
	ctx := context.Background()

	r, err := NewSettingsRepo(dbPath)
	require.NoError(t, err)

	s := domain.DefaultSettings()
	s.Enabled = true
	s.APIKey = "sk"
	s.ChannelIDs = []string{"c1", "c2"}
	require.NoError(t, r.Save(ctx, s))

	s.ReplyFrequency = 55
	require.NoError(t, r.Save(ctx, s))
	require.NoError(t, r.Close())

	// reopen to make sure it hit disk
	r, err = NewSettingsRepo(dbPath)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Enabled)
	assert.Equal(t, "sk", got.APIKey)
	assert.Equal(t, 55, got.ReplyFrequency)
	assert.Equal(t, []string{"c1", "c2"}, got.ChannelIDs)
	assert.Equal(t, domain.DefaultMaxQueueLength, got.MaxQueueLength)
}
