package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "https://api.mercadopago.com", cfg.MercadoPagoBaseURL)
	assert.Equal(t, "PhaseGarden <orders@rnfaudio.space>", cfg.EmailFrom)
	assert.Equal(t, 10*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 5*time.Minute, cfg.SweepStaleAfter)
	assert.False(t, cfg.StripeEnabled())
	assert.False(t, cfg.AdminEnabled())
	assert.Equal(t, "none", cfg.TraceExporter)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PHASEGARDEN_ADDR", ":9090")
	t.Setenv("SITE_URL", "https://phasegarden.rnfaudio.space")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,k1:9092")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_123")
	t.Setenv("EMAIL_TIMEOUT", "3s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.StripeEnabled())
	assert.Equal(t, 3*time.Second, cfg.EmailTimeout)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis().URL)
	assert.Equal(t, 10, cfg.Redis().PoolSize)
}

func TestValidate(t *testing.T) {
	cases := map[string]map[string]string{
		"relative site url":             {"SITE_URL": "/shop"},
		"unknown log format":            {"LOG_FORMAT": "xml"},
		"stripe without webhook secret": {"STRIPE_SECRET_KEY": "sk_test_123"},
		"zero rate":                     {"ENTITLEMENT_RPS": "0"},
		"unknown trace exporter":        {"TRACE_EXPORTER": "zipkin"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
