package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	t.Run("set default option", func(t *testing.T) {
		c := NewConfig()

		require.Equal(t, "http://localhost:8080", c.BackendURL, "default backend URL not set")
		require.Equal(t, "http://localhost:8545", c.RelayerURL, "default relayer URL not set")
		require.Equal(t, "info", c.LogLevel, "default log level not set")
		require.NotEmpty(t, c.CacheDir, "default cache dir not set")
		require.Equal(t, "", c.AccessToken, "access token should be empty by default")
	})

	t.Run("load env", func(t *testing.T) {
		c := NewConfig()
		getenv := func(key string) string {
			switch key {
			case "BACKEND_ADDRESS":
				return "http://backend:9000"
			case "RELAYER_ADDRESS":
				return "http://relayer:9001"
			case "LOG_LEVEL":
				return "debug"
			case "ACCESS_TOKEN":
				return "token"
			case "WALLET_PHONE":
				return "+91 9876543210"
			default:
				return ""
			}
		}

		c.LoadEnv(getenv)

		require.Equal(t, "http://backend:9000", c.BackendURL)
		require.Equal(t, "http://relayer:9001", c.RelayerURL)
		require.Equal(t, "debug", c.LogLevel)
		require.Equal(t, "token", c.AccessToken)
		require.Equal(t, "+91 9876543210", c.Phone)
	})

	t.Run("parse flags", func(t *testing.T) {
		t.Run("valid flags", func(t *testing.T) {
			c := NewConfig()

			err := c.ParseFlags([]string{
				"--backend", "http://backend:9000",
				"--send",
				"--amount", "12.50",
				"--to", "+91 9876543210",
			})

			require.NoError(t, err)
			require.Equal(t, "http://backend:9000", c.BackendURL)
			require.True(t, c.Send)
			require.Equal(t, "12.50", c.Amount)
			require.Equal(t, "+91 9876543210", c.To)
		})

		t.Run("invalid flags", func(t *testing.T) {
			c := NewConfig()

			err := c.ParseFlags([]string{
				"--invalid-flag", "value",
			})

			require.Error(t, err, "invalid flag should return an error")
		})
	})
}
