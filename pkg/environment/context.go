package environment

import (
	"context"
	"strings"
)

// Environment represents application environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Parse normalizes an environment name. Short aliases ("dev", "stage",
// "prod") map to their full names; empty input means Development. Unknown
// names are kept as-is.
func Parse(name string) Environment {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dev", string(Development):
		return Development
	case "stage", string(Staging):
		return Staging
	case "prod", string(Production):
		return Production
	default:
		return Environment(name)
	}
}

type contextKey struct{}

// WithContext stores the normalized environment in ctx.
func WithContext(ctx context.Context, env string) context.Context {
	return context.WithValue(ctx, contextKey{}, string(Parse(env)))
}

// FromContext returns the environment stored in ctx, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	env, _ := ctx.Value(contextKey{}).(string)
	return env
}

func IsProduction(ctx context.Context) bool {
	return FromContext(ctx) == string(Production)
}

func IsDevelopment(ctx context.Context) bool {
	return FromContext(ctx) == string(Development)
}

func IsStaging(ctx context.Context) bool {
	return FromContext(ctx) == string(Staging)
}
