package definition

import "errors"

var (
	ErrReadFile       = errors.New("failed to read definition file")
	ErrParseYAML      = errors.New("failed to parse definition yaml")
	ErrDecode         = errors.New("failed to decode machine definition")
	ErrNoMachines     = errors.New("definition declares no machines")
	ErrUnknownGuard   = errors.New("unknown guard")
	ErrBuildMachine   = errors.New("failed to build machine")
	ErrMachineMissing = errors.New("machine not found")
)
