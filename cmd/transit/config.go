package main

// cliConfig is read from the environment (and an optional .env file).
// Flags take precedence over it.
type cliConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	Definitions string `env:"TRANSIT_DEFINITIONS" envDefault:"machines.yaml"`
	LogLevel    string `env:"TRANSIT_LOG_LEVEL"`
	LogFormat   string `env:"TRANSIT_LOG_FORMAT"`
	Strict      bool   `env:"TRANSIT_STRICT" envDefault:"false"`
}
