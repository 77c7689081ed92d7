// Package environment names the deployment environment and carries it
// through context.Context so loggers can tag records with it.
package environment
