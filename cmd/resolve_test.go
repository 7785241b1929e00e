package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/placeresolve/internal/config"
)

func TestResolveCommand_Registered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"resolve"})
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, "resolve", cmd.Name())

	for flag, def := range map[string]string{
		"input":               "",
		"output":              "",
		"base-port":           "4444",
		"sessions":            "4",
		"retries":             "2",
		"only-changed-places": "false",
		"noheadless":          "false",
	} {
		f := cmd.Flags().Lookup(flag)
		require.NotNil(t, f, "missing flag %s", flag)
		assert.Equal(t, def, f.DefValue, "default for %s", flag)
	}
}

func TestOverrideConfig(t *testing.T) {
	cfg = &config.Config{
		WebDriver: config.WebDriverConfig{BasePort: 4444, Sessions: 4, Headless: true},
		Resolve:   config.ResolveConfig{Retries: 2},
	}

	require.NoError(t, resolveCmd.Flags().Set("base-port", "9515"))
	require.NoError(t, resolveCmd.Flags().Set("sessions", "2"))
	require.NoError(t, resolveCmd.Flags().Set("retries", "0"))
	require.NoError(t, resolveCmd.Flags().Set("noheadless", "true"))
	t.Cleanup(func() {
		_ = resolveCmd.Flags().Set("noheadless", "false")
		resolveNoHeadless = false
	})

	overrideConfig(resolveCmd)

	assert.Equal(t, 9515, cfg.WebDriver.BasePort)
	assert.Equal(t, 2, cfg.WebDriver.Sessions)
	assert.Equal(t, 0, cfg.Resolve.Retries)
	assert.False(t, cfg.WebDriver.Headless)
}
