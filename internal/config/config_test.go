package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 86400, cfg.Relation.CacheTTLSeconds)
	assert.Equal(t, 24*time.Hour, cfg.Relation.CacheTTL())
	assert.True(t, cfg.Relation.EventsEnabled)
	assert.Equal(t, "users", cfg.Relation.IdentityTable)
	assert.Equal(t, 60*time.Second, cfg.Reconciler.Interval)
	assert.Equal(t, "redis", cfg.PubSub.Driver)
	assert.Equal(t, 5*time.Second, cfg.PubSub.PublishTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RELATION_CACHE_TTL_SECONDS", "60")
	t.Setenv("RELATION_EVENTS_ENABLED", "false")
	t.Setenv("RELATION_IDENTITY_TABLE", "accounts")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.Relation.CacheTTL())
	assert.False(t, cfg.Relation.EventsEnabled)
	assert.Equal(t, "accounts", cfg.Relation.IdentityTable)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 9000, cfg.Server.Port)
}
