package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins(""))
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, parseOrigins(" http://a.test, ,http://b.test "))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AMQP_URL", "")
	t.Setenv("VIEW_CACHE_TTL_SECONDS", "")
	t.Setenv("INTENT_STALE_AFTER_SECONDS", "90")
	t.Setenv("MAX_DB_CONNS", "not-a-number")

	cfg := Load()
	assert.Empty(t, cfg.AMQPURL)
	assert.Equal(t, 30*time.Second, cfg.ViewCacheTTL)
	assert.Equal(t, 90*time.Second, cfg.IntentStaleAfter)
	assert.Equal(t, int32(16), cfg.MaxDBConns)
}
