package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/transit/pkg/config"
	"github.com/dmitrymomot/transit/pkg/definition"
	"github.com/dmitrymomot/transit/pkg/environment"
	"github.com/dmitrymomot/transit/pkg/logger"
	"github.com/dmitrymomot/transit/pkg/statemachine"
)

// errRejected makes the process exit non-zero after a rejection has
// already been printed.
var errRejected = errors.New("transition rejected")

type app struct {
	cfg     cliConfig
	log     *slog.Logger
	file    string
	envFile string
	strict  bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "transit",
		Short:         "Check state machine definitions and transitions",
		Long:          `transit loads machine definitions from YAML and answers whether an entity may move from one state to another.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.file, "file", "f", "", "machine definition file (default $TRANSIT_DEFINITIONS or machines.yaml)")
	flags.StringVar(&a.envFile, "env-file", "", "additional .env file to load")
	flags.BoolVar(&a.strict, "strict", false, "reject definitions that fail validation")

	root.AddCommand(
		newCheckCmd(a),
		newCandidatesCmd(a),
		newValidateCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.envFile != "" {
		if err := config.LoadEnv(a.envFile); err != nil {
			return err
		}
	}
	if err := config.Load(&a.cfg); err != nil {
		return err
	}
	if a.file == "" {
		a.file = a.cfg.Definitions
	}
	if !cmd.Flags().Changed("strict") {
		a.strict = a.cfg.Strict
	}

	a.log = logger.New(
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithEnvironment(a.cfg.Env, "transit"),
		logger.WithLevelName(a.cfg.LogLevel),
		logger.WithFormat(logger.Format(a.cfg.LogFormat)),
		logger.WithContextExtractors(environment.LoggerExtractor()),
		logger.WithAttr(logger.Component(cmd.Name())),
	)
	cmd.SetContext(environment.WithContext(cmd.Context(), a.cfg.Env))
	return nil
}

// load reads the definition file. Guards referenced by name cannot run from
// the command line, so each one is replaced by a guard that allows and logs.
func (a *app) load(ctx context.Context) (*definition.Set, error) {
	opts := []definition.Option{
		definition.WithFallbackGuard(func(name string) statemachine.Guard {
			return func(ctx context.Context, entity any, from, to statemachine.State) statemachine.Verdict {
				a.log.WarnContext(ctx, "guard skipped",
					slog.String("guard", name),
					logger.Transition(from, to),
				)
				return statemachine.Allow()
			}
		}),
	}
	if a.strict {
		opts = append(opts, definition.WithStrict())
	}

	set, err := definition.Load(a.file, opts...)
	if err != nil {
		a.log.ErrorContext(ctx, "failed to load definitions", slog.String("file", a.file), logger.Error(err))
		return nil, err
	}
	a.log.DebugContext(ctx, "definitions loaded", slog.String("file", a.file), slog.Any("machines", set.Names()))
	return set, nil
}
