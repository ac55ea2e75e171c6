package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/cashtide/wallet/internal/logger"
)

const (
	defaultBackendURL   = "http://localhost:8080"
	defaultRelayerURL   = "http://localhost:8545"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
)

type Config struct {
	// Default logging level
	LogLevel string

	// Wallet backend base URL
	BackendURL string

	// Relayer service base URL
	RelayerURL string

	// Directory for the local cache (session, transaction list)
	CacheDir string

	// Access token issued by the identity provider
	AccessToken string

	// Phone identifier of the account to act as, e.g. "+91 9876543210"
	Phone string

	// Environment
	Environment string

	// Flow selection and inputs
	Send       bool
	Request    bool
	FromAnyone bool
	Watch      bool
	Amount     string
	To         string
	RequestID  string
	Message    string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		BackendURL:  defaultBackendURL,
		RelayerURL:  defaultRelayerURL,
		CacheDir:    defaultCacheDir(),
		Environment: defaultEnvironment,
	}
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ".cashtide"
	}
	return filepath.Join(base, "cashtide")
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"BACKEND_ADDRESS": setString(&c.BackendURL),
		"RELAYER_ADDRESS": setString(&c.RelayerURL),
		"CACHE_DIR":       setString(&c.CacheDir),
		"ACCESS_TOKEN":    setString(&c.AccessToken),
		"WALLET_PHONE":    setString(&c.Phone),
		"LOG_LEVEL":       setString(&c.LogLevel),
		"ENVIRONMENT":     setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("wallet", pflag.ContinueOnError)

	fs.StringVarP(&c.BackendURL, "backend", "b", c.BackendURL, "Wallet backend base URL")
	fs.StringVarP(&c.RelayerURL, "relayer", "r", c.RelayerURL, "Relayer service base URL")
	fs.StringVar(&c.CacheDir, "cache-dir", c.CacheDir, "Local cache directory")
	fs.StringVar(&c.AccessToken, "access-token", c.AccessToken, "Identity provider access token")
	fs.StringVarP(&c.Phone, "phone", "p", c.Phone, "Own phone identifier")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	fs.BoolVar(&c.Send, "send", c.Send, "Send money")
	fs.BoolVar(&c.Request, "request", c.Request, "Request money")
	fs.BoolVar(&c.FromAnyone, "from-anyone", c.FromAnyone, "Request from anyone via a share link")
	fs.BoolVarP(&c.Watch, "watch", "w", c.Watch, "Keep printing the balance until interrupted")
	fs.StringVarP(&c.Amount, "amount", "a", c.Amount, "Amount, e.g. 12.50")
	fs.StringVarP(&c.To, "to", "t", c.To, "Counterparty phone identifier")
	fs.StringVar(&c.RequestID, "request-id", c.RequestID, "Money request to fulfill")
	fs.StringVarP(&c.Message, "message", "m", c.Message, "Optional request message")

	return fs.Parse(args)
}
