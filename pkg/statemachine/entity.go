package statemachine

import (
	"fmt"
	"reflect"
	"strings"
)

// Current resolves the entity's current state: the value of the machine's
// state field when present and non-empty, otherwise the machine's initial state.
func Current(entity any, m *Machine) (State, error) {
	if m == nil {
		return "", ErrNilMachine
	}
	s, err := readState(entity, m.field)
	if err != nil {
		return "", err
	}
	if s == "" {
		return m.initial, nil
	}
	return s, nil
}

// readState returns the raw state value. Missing map keys and nil values
// read as the empty state.
func readState(entity any, field string) (State, error) {
	rv := reflect.ValueOf(entity)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return "", ErrUnsupportedEntity
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		index, ok := lookupField(rv.Type(), field)
		if !ok {
			return "", fmt.Errorf("%w: %q on %s", ErrFieldNotFound, field, rv.Type())
		}
		return stateOf(rv.FieldByIndex(index), field)
	case reflect.Map:
		key, ok := mapKey(rv.Type(), field)
		if !ok {
			return "", ErrUnsupportedEntity
		}
		v := rv.MapIndex(key)
		if !v.IsValid() {
			return "", nil
		}
		return stateOf(v, field)
	default:
		return "", ErrUnsupportedEntity
	}
}

func stateOf(v reflect.Value, field string) (State, error) {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}
	if v.Kind() == reflect.String {
		return State(v.String()), nil
	}
	return "", fmt.Errorf("%w: %q is %s", ErrFieldNotString, field, v.Type())
}

// withState returns a copy of entity with its state field set. The input is
// never modified: structs are copied, pointers get a fresh allocation, and
// maps are cloned.
func withState[T any](entity T, field string, s State) (T, error) {
	var zero T
	rv := reflect.ValueOf(any(entity))

	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return zero, ErrUnsupportedEntity
		}
		cp := reflect.New(rv.Elem().Type())
		cp.Elem().Set(rv.Elem())
		if err := setStructField(cp.Elem(), field, s); err != nil {
			return zero, err
		}
		return cp.Interface().(T), nil
	case reflect.Struct:
		cp := reflect.New(rv.Type()).Elem()
		cp.Set(rv)
		if err := setStructField(cp, field, s); err != nil {
			return zero, err
		}
		return cp.Interface().(T), nil
	case reflect.Map:
		key, ok := mapKey(rv.Type(), field)
		if !ok {
			return zero, ErrUnsupportedEntity
		}
		val, err := stateValue(rv.Type().Elem(), field, s)
		if err != nil {
			return zero, err
		}
		cp := reflect.MakeMapWithSize(rv.Type(), rv.Len()+1)
		iter := rv.MapRange()
		for iter.Next() {
			cp.SetMapIndex(iter.Key(), iter.Value())
		}
		cp.SetMapIndex(key, val)
		return cp.Interface().(T), nil
	default:
		return zero, ErrUnsupportedEntity
	}
}

func setStructField(v reflect.Value, field string, s State) error {
	index, ok := lookupField(v.Type(), field)
	if !ok {
		return fmt.Errorf("%w: %q on %s", ErrFieldNotFound, field, v.Type())
	}
	f := v.FieldByIndex(index)
	val, err := stateValue(f.Type(), field, s)
	if err != nil {
		return err
	}
	f.Set(val)
	return nil
}

// stateValue converts s into a value assignable to typ.
func stateValue(typ reflect.Type, field string, s State) (reflect.Value, error) {
	switch {
	case typ.Kind() == reflect.String:
		return reflect.ValueOf(string(s)).Convert(typ), nil
	case typ.Kind() == reflect.Ptr && typ.Elem().Kind() == reflect.String:
		p := reflect.New(typ.Elem())
		p.Elem().SetString(string(s))
		return p, nil
	case typ.Kind() == reflect.Interface && reflect.TypeOf("").Implements(typ):
		return reflect.ValueOf(string(s)), nil
	default:
		return reflect.Value{}, fmt.Errorf("%w: %q is %s", ErrFieldNotString, field, typ)
	}
}

func mapKey(typ reflect.Type, field string) (reflect.Value, bool) {
	if typ.Key().Kind() != reflect.String {
		return reflect.Value{}, false
	}
	return reflect.ValueOf(field).Convert(typ.Key()), true
}

// FieldIndex returns the index of the struct field that name resolves to,
// using the same matching rules as the state field lookup. It is meant for
// collaborators that write pending changes into a copy of an entity.
func FieldIndex(typ reflect.Type, name string) ([]int, bool) {
	if typ.Kind() != reflect.Struct {
		return nil, false
	}
	return lookupField(typ, name)
}

// lookupField finds the struct field holding state. Matching order is the
// "fsm" tag, then the "json" tag name, then a case-insensitive field name.
// Fields reached through embedded pointers are skipped so that writing a
// copy never touches memory shared with the original.
func lookupField(typ reflect.Type, field string) ([]int, bool) {
	var fields []reflect.StructField
	for _, f := range reflect.VisibleFields(typ) {
		if f.Anonymous || !f.IsExported() || throughPointer(typ, f.Index) {
			continue
		}
		fields = append(fields, f)
	}

	for _, tag := range []string{"fsm", "json"} {
		for _, f := range fields {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == field {
				return f.Index, true
			}
		}
	}
	for _, f := range fields {
		if strings.EqualFold(f.Name, field) {
			return f.Index, true
		}
	}
	return nil, false
}

func throughPointer(typ reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		typ = typ.Field(i).Type
		if typ.Kind() == reflect.Ptr {
			return true
		}
	}
	return false
}
