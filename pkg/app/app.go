package app

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/code-payments/account-resolution/pkg/accounts"
	"github.com/code-payments/account-resolution/pkg/metrics"
	"github.com/code-payments/account-resolution/pkg/solana"
	"github.com/code-payments/account-resolution/pkg/validationstore"
	"github.com/code-payments/account-resolution/pkg/validationstore/bolt"
)

const defaultShutdownTimeout = 5 * time.Second

// Env is the set of dependencies commands run against.
type Env struct {
	Config   BaseConfig
	Store    validationstore.Store
	Client   solana.Client
	Provider *accounts.Provider

	metricsProvider *newrelic.Application
	closeStore      func() error
}

// LoadConfig loads the configuration at configPath, if it exists, applying
// environment overrides on top of the defaults.
func LoadConfig(configPath string) (BaseConfig, error) {
	v := viper.New()
	bindEnv(v)

	// viper.ReadInConfig only returns ConfigFileNotFoundError if it has to search
	// for a default config file because one hasn't been explicitly set. That is,
	// if we explicitly set a config file, and it does not exist, viper will not
	// return a ConfigFileNotFoundError, so we do it ourselves.
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
	} else if !os.IsNotExist(err) {
		return BaseConfig{}, errors.Wrap(err, "failed to check if config exists")
	}

	err := v.ReadInConfig()
	_, isConfigNotFound := err.(viper.ConfigFileNotFoundError)
	if err != nil && !isConfigNotFound {
		return BaseConfig{}, errors.Wrap(err, "failed to load config")
	}

	config := defaultConfig
	if err := v.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "failed to unmarshal config")
	}

	if len(config.AppName) == 0 {
		return BaseConfig{}, errors.New("must specify an application name")
	}
	if len(config.StorePath) == 0 {
		return BaseConfig{}, errors.New("must specify a store path")
	}

	return config, nil
}

// Setup configures logging and metrics, and opens the dependencies described
// by config. The returned context carries the metrics provider, if any.
func Setup(ctx context.Context, config BaseConfig) (context.Context, *Env, error) {
	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		nr, err := newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			return nil, nil, errors.Wrap(err, "error connecting to new relic")
		}

		metricsProvider = nr
		ctx = metrics.NewContext(ctx, nr)
	}

	configureLogger(config, metricsProvider)

	commitment, err := solana.CommitmentFromString(strings.ToLower(config.Commitment))
	if err != nil {
		return nil, nil, err
	}

	store, closeStore, err := bolt.New(config.StorePath)
	if err != nil {
		return nil, nil, err
	}

	var client solana.Client
	if len(config.RPCEndpoint) > 0 {
		client = solana.New(solana.EndpointFor(config.RPCEndpoint))
	}

	env := &Env{
		Config:   config,
		Store:    store,
		Client:   client,
		Provider: accounts.NewProvider(store, client, commitment),

		metricsProvider: metricsProvider,
		closeStore:      closeStore,
	}
	return ctx, env, nil
}

// Close releases the resources held by the env.
func (e *Env) Close() error {
	if e.metricsProvider != nil {
		e.metricsProvider.Shutdown(defaultShutdownTimeout)
	}
	return e.closeStore()
}

func configureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics.NewLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stderr)
}
