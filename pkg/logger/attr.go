package logger

import (
	"fmt"
	"log/slog"
	"strconv"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Machine records the machine name under the key "machine".
func Machine(name string) slog.Attr {
	return slog.String("machine", name)
}

// Transition groups the source and target states under the key "transition".
func Transition(from, to fmt.Stringer) slog.Attr {
	return Group("transition",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

// Reason records a rejection reason under the key "reason".
// If reason is nil, it returns an empty Attr.
func Reason(reason any) slog.Attr {
	if reason == nil {
		return slog.Attr{}
	}
	return slog.Any("reason", reason)
}

// Accepted records a transition decision under the key "accepted".
func Accepted(ok bool) slog.Attr {
	return slog.Bool("accepted", ok)
}
