package config

import (
	"github.com/spf13/pflag"
)

// ParseFlags reads the --config and --env-file command-line flags into
// loader options. Unset flags leave file discovery to LoadConfig.
func ParseFlags(serviceName string, args []string) ([]LoaderOption, error) {
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	configFile := fs.StringP("config", "c", "", "path to the YAML config file")
	envFile := fs.String("env-file", "", "path to a .env file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return []LoaderOption{WithConfigFile(*configFile), WithEnvFile(*envFile)}, nil
}
