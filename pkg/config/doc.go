// Package config loads configuration structs from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for struct parsing and
// github.com/joho/godotenv for .env files. Load reads the default .env file
// once, parses the struct from `env` tags, and caches the result per type so
// repeated calls are cheap. LoadEnv reads additional .env files; variables
// already present in the environment are never overwritten.
//
//	var cfg struct {
//	    LogLevel string `env:"TRANSIT_LOG_LEVEL" envDefault:"info"`
//	}
//	config.MustLoad(&cfg)
//
// Errors are sentinels usable with errors.Is: ErrParsingConfig,
// ErrLoadingEnvFile and ErrNilPointer. Call Reset between tests that load the
// same type under different environments.
package config
