// Package config loads binary configuration with Viper.
//
// LoadConfig reads config.yml (searched under cmd/<service>, config/ and the
// working directory), then a .env file via godotenv, then the process
// environment. Environment keys are the upper-cased service name followed
// by the dotted key path with dots replaced by underscores:
//
//	provider.base_url  ->  CHATD_PROVIDER_BASE_URL
//
// # Usage
//
//	var cfg Config
//	err := config.LoadConfig("chatd", &cfg)
package config
