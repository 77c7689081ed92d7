// Package logger builds slog loggers for transit binaries.
//
// New returns a *slog.Logger configured by Option values: output format
// (json or text), level, static attributes, and ContextExtractor callbacks
// that add attributes from context.Context on every record. WithEnvironment
// picks sensible defaults per deployment environment.
//
// Attribute helpers keep key names consistent across call sites:
//
//	log.InfoContext(ctx, "transition checked",
//	    logger.Machine(m.Name()),
//	    logger.Transition(res.From, res.To),
//	    logger.Accepted(res.Accepted()),
//	    logger.Reason(res.Reason()),
//	)
//
// Error, Errors and Reason return an empty attribute for nil input, so they
// can be passed unconditionally.
package logger
