package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	setDefaults()

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 6*time.Second, cfg.Paystack.PollInterval)
	require.Equal(t, 10, cfg.Paystack.PollAttempts)
	require.Equal(t, "https://api.paystack.co", cfg.Paystack.BaseURL)
	require.Equal(t, 3, cfg.App.OrderRetries)
	require.ElementsMatch(t, []string{"paystack.secretkey", "zeptomail.token"}, cfg.MissingSecrets())
}

func TestLoadEnvironmentOverride(t *testing.T) {
	viper.Reset()
	t.Setenv("LUNA_PAYSTACK_SECRETKEY", "sk_test_123")
	t.Setenv("LUNA_APP_PUBLICBASEURL", "https://shop.example.com/")
	require.NoError(t, InitConfig(""))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sk_test_123", cfg.Paystack.SecretKey)
	require.Equal(t, "https://shop.example.com", cfg.App.PublicBaseURL)
	require.Equal(t, []string{"zeptomail.token"}, cfg.MissingSecrets())
}

func TestLoadRejectsNonPositivePollAttempts(t *testing.T) {
	viper.Reset()
	setDefaults()
	viper.Set("paystack.pollattempts", 0)

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsNonPositiveReportInterval(t *testing.T) {
	for _, interval := range []string{"0s", "-1h"} {
		viper.Reset()
		setDefaults()
		viper.Set("reports.interval", interval)

		_, err := Load()
		require.ErrorContains(t, err, "reports.interval")
	}

	// a disabled report job does not need an interval
	viper.Reset()
	setDefaults()
	viper.Set("reports.enabled", false)
	viper.Set("reports.interval", "0s")
	_, err := Load()
	require.NoError(t, err)
}

func TestRequire(t *testing.T) {
	require.NoError(t, Require("paystack.secretkey", "sk"))

	err := Require("zeptomail.token", "")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingSetting))

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, "zeptomail.token", cfgErr.Setting)
}
