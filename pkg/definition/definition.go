package definition

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/transit/pkg/statemachine"
)

// Option configures how definitions are turned into machines.
type Option func(*options)

type options struct {
	guards   map[string]statemachine.Guard
	fallback func(name string) statemachine.Guard
	strict   bool
}

// WithGuards registers guards that machines can reference by name.
func WithGuards(guards map[string]statemachine.Guard) Option {
	return func(o *options) {
		for name, g := range guards {
			if g != nil {
				o.guards[name] = g
			}
		}
	}
}

// WithFallbackGuard supplies guards for names not registered with
// WithGuards. Tools that only inspect definitions use it to stand in for
// guards they cannot run.
func WithFallbackGuard(fn func(name string) statemachine.Guard) Option {
	return func(o *options) { o.fallback = fn }
}

// WithStrict validates every machine eagerly; see statemachine.WithStrictValidation.
func WithStrict() Option {
	return func(o *options) { o.strict = true }
}

type document struct {
	Machines map[string]machineSpec `mapstructure:"machines"`
}

type machineSpec struct {
	Field       string              `mapstructure:"field"`
	States      []string            `mapstructure:"states"`
	Initial     string              `mapstructure:"initial"`
	Guard       string              `mapstructure:"guard"`
	Transitions map[string][]string `mapstructure:"transitions"`
}

// Set is a named collection of machines loaded from one document.
type Set struct {
	machines map[string]*statemachine.Machine
}

// Load reads and parses a YAML definition file.
func Load(path string, opts ...Option) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrReadFile, err)
	}
	return Parse(data, opts...)
}

// Parse builds machines from a YAML document of the form:
//
//	machines:
//	  order:
//	    field: status
//	    states: [pending, paid, shipped]
//	    initial: pending
//	    guard: not_fraud
//	    transitions:
//	      pending: paid
//	      "*": [shipped]
//
// A destination may be a single state or a list.
func Parse(data []byte, opts ...Option) (*Set, error) {
	o := &options{guards: make(map[string]statemachine.Guard)}
	for _, opt := range opts {
		opt(o)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Join(ErrParseYAML, err)
	}

	var doc document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &doc,
	})
	if err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	if len(doc.Machines) == 0 {
		return nil, ErrNoMachines
	}

	set := &Set{machines: make(map[string]*statemachine.Machine, len(doc.Machines))}
	for name, spec := range doc.Machines {
		m, err := build(name, spec, o)
		if err != nil {
			return nil, err
		}
		set.machines[name] = m
	}
	return set, nil
}

func build(name string, spec machineSpec, o *options) (*statemachine.Machine, error) {
	states := make([]statemachine.State, len(spec.States))
	for i, s := range spec.States {
		states[i] = statemachine.State(s)
	}

	opts := []statemachine.Option{statemachine.WithName(name)}
	if spec.Field != "" {
		opts = append(opts, statemachine.WithField(spec.Field))
	}
	if spec.Initial != "" {
		opts = append(opts, statemachine.WithInitial(statemachine.State(spec.Initial)))
	}
	if spec.Guard != "" {
		g, ok := o.guards[spec.Guard]
		if !ok && o.fallback != nil {
			g = o.fallback(spec.Guard)
			ok = g != nil
		}
		if !ok {
			return nil, fmt.Errorf("%w %q in machine %q", ErrUnknownGuard, spec.Guard, name)
		}
		opts = append(opts, statemachine.WithGuard(g))
	}
	for from, to := range spec.Transitions {
		dest := make([]statemachine.State, len(to))
		for i, s := range to {
			dest[i] = statemachine.State(s)
		}
		opts = append(opts, statemachine.WithTransition(statemachine.State(from), dest...))
	}
	if o.strict {
		opts = append(opts, statemachine.WithStrictValidation())
	}

	m, err := statemachine.New(states, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrBuildMachine, name, err)
	}
	return m, nil
}

// Get returns the machine declared under name.
func (s *Set) Get(name string) (*statemachine.Machine, error) {
	m, ok := s.machines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMachineMissing, name)
	}
	return m, nil
}

// Names lists the declared machines in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.machines))
	for name := range s.machines {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
