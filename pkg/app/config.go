package app

import (
	"github.com/spf13/viper"
)

// BaseConfig contains the configuration for the application.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	// StorePath is the path of the bolt database holding validation accounts.
	StorePath string `mapstructure:"store_path"`

	// RPCEndpoint is an optional Solana RPC endpoint, or cluster moniker, used
	// to load validation accounts and account infos missing from the store.
	RPCEndpoint string `mapstructure:"rpc_endpoint"`
	Commitment  string `mapstructure:"commitment"`

	// Metrics configuration across many providers
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	AppName: "extra-accounts",

	StorePath: "data/validation.db",

	Commitment: "confirmed",
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	_ = v.BindEnv("app_name", "APP_NAME")

	_ = v.BindEnv("store_path", "STORE_PATH")

	_ = v.BindEnv("rpc_endpoint", "RPC_ENDPOINT")
	_ = v.BindEnv("commitment", "COMMITMENT")

	_ = v.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")
}
