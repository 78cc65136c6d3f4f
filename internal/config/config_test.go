package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyasset/eam-backend/internal/domain"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "eam.db"))
	t.Setenv("API_TOKENS", "alice:tok-a, bob:tok-b")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, 8080, cfg.GRPCPort)
	assert.Equal(t, 5*time.Minute, cfg.PriceCacheTTL)
	assert.Equal(t, "$.data.choices[0].message.content", cfg.LLMContentPath)
	assert.Equal(t, map[string]string{"tok-a": "alice", "tok-b": "bob"}, cfg.APITokens)
	assert.Equal(t, []string{"alice", "bob"}, cfg.Owners())
	assert.True(t, cfg.Targets[domain.TierStable].Equal(decimal.NewFromInt(40)))
}

func TestLoad_PostgresConnStrFromParts(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_CONN_STR", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "portfolio")
	t.Setenv("API_TOKENS", "alice:tok-a")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.DSN(), "host=db")
	assert.Contains(t, cfg.DSN(), "dbname=portfolio")
	assert.Contains(t, cfg.DSN(), "sslmode=disable")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "Unknown driver", key: "DB_DRIVER", val: "mysql"},
		{name: "Port out of range", key: "HTTP_PORT", val: "70000"},
		{name: "Malformed token", key: "API_TOKENS", val: "alice"},
		{name: "Unknown provider", key: "LLM_PROVIDER", val: "llama"},
		{name: "Zero concurrency", key: "AI_CONCURRENCY", val: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_TargetsFile(t *testing.T) {
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "targets.yaml")
	content := `
targets:
  stable: 50
  medium: 30
  gamble: 20
owners:
  bob:
    stable: 70
    medium: 20
    gamble: 10
llm:
  system_prompt: "Be brief."
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("EAM_TARGETS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.TargetsFor("alice")[domain.TierStable].Equal(decimal.NewFromInt(50)))
	assert.True(t, cfg.TargetsFor("bob")[domain.TierStable].Equal(decimal.NewFromInt(70)))
	assert.Equal(t, "Be brief.", cfg.Prompt.SystemPrompt)
	assert.Equal(t, 1024, cfg.Prompt.MaxTokens)
}

func TestLoad_TargetsFileRejectsBadSplit(t *testing.T) {
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "targets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("targets: {stable: 50, medium: 30, crypto: 20}\n"), 0o600))
	t.Setenv("EAM_TARGETS_FILE", path)

	_, err := Load()
	assert.ErrorIs(t, err, domain.ErrInvalidTier)
}
