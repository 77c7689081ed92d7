package changeset

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/mitchellh/mapstructure"

	"github.com/dmitrymomot/transit/pkg/statemachine"
	"github.com/dmitrymomot/transit/pkg/validator"
)

var (
	ErrNilChangeset    = errors.New("changeset is nil")
	ErrUnsupportedData = errors.New("unsupported changeset data: expected struct, pointer to struct, string-keyed map, or nil")
	ErrApplyFailed     = errors.New("failed to apply pending changes")
	ErrUnknownField    = errors.New("no field matches pending change")
)

// Changeset tracks pending field changes over a data value together with
// field-scoped errors. It is immutable: Put and AddError return a new value.
type Changeset struct {
	data    any
	changes map[string]any
	errors  validator.ValidationErrors
}

// Cast wraps data in an empty changeset.
func Cast(data any) *Changeset {
	return &Changeset{data: data, changes: map[string]any{}}
}

// Data returns the original value the changeset was cast from.
func (c *Changeset) Data() any {
	return c.data
}

// Put returns a copy of the changeset with field set to value.
func (c *Changeset) Put(field string, value any) *Changeset {
	next := c.clone()
	next.changes[field] = value
	return next
}

// AddError returns a copy of the changeset with a validation error on field.
func (c *Changeset) AddError(field, message string) *Changeset {
	next := c.clone()
	next.errors.Add(validator.ValidationError{
		Field:          field,
		Message:        message,
		TranslationKey: "validation.transition",
		TranslationValues: map[string]any{
			"field": field,
		},
	})
	return next
}

// Get returns the pending value for field.
func (c *Changeset) Get(field string) (any, bool) {
	v, ok := c.changes[field]
	return v, ok
}

// Changes returns a copy of all pending changes.
func (c *Changeset) Changes() map[string]any {
	return maps.Clone(c.changes)
}

func (c *Changeset) Valid() bool {
	return c.errors.IsEmpty()
}

// Errors returns a copy of the accumulated field errors.
func (c *Changeset) Errors() validator.ValidationErrors {
	return append(validator.ValidationErrors(nil), c.errors...)
}

// Err returns the field errors as an error, or nil when the changeset is valid.
func (c *Changeset) Err() error {
	if c.Valid() {
		return nil
	}
	return c.Errors()
}

// Apply returns the prospective value: a copy of the data with every pending
// change applied. The original data is left untouched. Struct fields are
// resolved the way the state machine resolves its state field: the "fsm" tag,
// then the "json" tag, then a case-insensitive name. A pending key that
// matches no field is an error. Each change replaces the field value whole,
// so maps and slices in the result never share storage with the original.
func (c *Changeset) Apply() (any, error) {
	if c == nil {
		return nil, ErrNilChangeset
	}

	switch data := c.data.(type) {
	case nil:
		return maps.Clone(c.changes), nil
	case map[string]any:
		out := maps.Clone(data)
		if out == nil {
			out = make(map[string]any, len(c.changes))
		}
		maps.Copy(out, c.changes)
		return out, nil
	}

	rv := reflect.ValueOf(c.data)
	switch {
	case rv.Kind() == reflect.Struct:
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		if err := c.applyStruct(cp); err != nil {
			return nil, err
		}
		return cp.Interface(), nil
	case rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct:
		cp := reflect.New(rv.Elem().Type())
		cp.Elem().Set(rv.Elem())
		if err := c.applyStruct(cp.Elem()); err != nil {
			return nil, err
		}
		return cp.Interface(), nil
	case rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String:
		return c.applyMap(rv)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedData, c.data)
	}
}

func (c *Changeset) applyStruct(v reflect.Value) error {
	for _, key := range c.keys() {
		index, ok := statemachine.FieldIndex(v.Type(), key)
		if !ok {
			return errors.Join(ErrApplyFailed, fmt.Errorf("%w: %q on %s", ErrUnknownField, key, v.Type()))
		}
		if err := decodeInto(c.changes[key], v.FieldByIndex(index)); err != nil {
			return errors.Join(ErrApplyFailed, fmt.Errorf("%s: %w", key, err))
		}
	}
	return nil
}

func (c *Changeset) applyMap(rv reflect.Value) (any, error) {
	typ := rv.Type()
	out := reflect.MakeMapWithSize(typ, rv.Len()+len(c.changes))
	iter := rv.MapRange()
	for iter.Next() {
		out.SetMapIndex(iter.Key(), iter.Value())
	}
	for _, key := range c.keys() {
		val := reflect.New(typ.Elem()).Elem()
		if err := decodeInto(c.changes[key], val); err != nil {
			return nil, errors.Join(ErrApplyFailed, fmt.Errorf("%s: %w", key, err))
		}
		out.SetMapIndex(reflect.ValueOf(key).Convert(typ.Key()), val)
	}
	return out.Interface(), nil
}

func (c *Changeset) keys() []string {
	return slices.Sorted(maps.Keys(c.changes))
}

// decodeInto writes value into the addressable target, converting it to the
// target's type. Containers are rebuilt rather than merged.
func decodeInto(value any, target reflect.Value) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ZeroFields: true,
		Result:     target.Addr().Interface(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(value)
}

func (c *Changeset) clone() *Changeset {
	if c == nil {
		return Cast(nil)
	}
	changes := maps.Clone(c.changes)
	if changes == nil {
		changes = map[string]any{}
	}
	return &Changeset{
		data:    c.data,
		changes: changes,
		errors:  append(validator.ValidationErrors(nil), c.errors...),
	}
}
