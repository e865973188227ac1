package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_DATA_DIR", dir)
	t.Setenv("APP_ENV", EnvTest)
	t.Setenv("TIMEZONE", "")
	t.Setenv("ARCHIVE_BUCKET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.Equal(t, DefaultLeaderboardSchedule, cfg.LeaderboardSchedule)
	assert.True(t, cfg.IsTest())
	assert.False(t, cfg.Archive.Enabled())
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())
}

func TestLoad_CommunityBoards(t *testing.T) {
	t.Setenv("TRADER_DATA_DIR", t.TempDir())
	t.Setenv("APP_ENV", EnvTest)
	t.Setenv("DCINSIDE_APP_ID", "app-123")
	t.Setenv("DCINSIDE_BASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "app-123", cfg.DCInsideAppID)
	assert.Equal(t, "https://app.dcinside.com", cfg.DCInsideBaseURL)
}

func TestLoad_RequiresDiscordTokenOutsideTests(t *testing.T) {
	t.Setenv("TRADER_DATA_DIR", t.TempDir())
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("DISCORD_BOT_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_BOT_TOKEN")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:          EnvDevelopment,
			Timezone:     "Asia/Seoul",
			DiscordToken: "token",
			Archive:      &ArchiveConfig{},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown env", mutate: func(c *Config) { c.Env = "staging" }, wantErr: "APP_ENV"},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: "TIMEZONE"},
		{
			name:    "archive without credentials",
			mutate:  func(c *Config) { c.Archive.Bucket = "history" },
			wantErr: "ARCHIVE_ACCESS_KEY",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
