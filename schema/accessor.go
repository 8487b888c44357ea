package schema

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

var (
	scannerType = reflect.TypeFor[sql.Scanner]()
	timeType    = reflect.TypeFor[time.Time]()
)

// fieldGetter returns an accessor reading the struct field at index from a
// *T or T. Nil pointers, maps, slices and interfaces read as nil.
func fieldGetter(index []int) func(any) any {
	return func(entity any) any {
		rv := reflect.ValueOf(entity)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil
			}
			rv = rv.Elem()
		}
		f, err := rv.FieldByIndexErr(index)
		if err != nil {
			return nil
		}
		switch f.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
			if f.IsNil() {
				return nil
			}
		}
		return f.Interface()
	}
}

// fieldSetter returns an accessor assigning a raw driver value to the struct
// field at index of a *T.
func fieldSetter(alias string, index []int) func(any, any) error {
	return func(entity, v any) error {
		rv := reflect.ValueOf(entity)
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return fmt.Errorf("sqlmap: set %s: expect non-nil pointer, got %T", alias, entity)
		}
		f, err := rv.Elem().FieldByIndexErr(index)
		if err != nil {
			return fmt.Errorf("sqlmap: set %s: %w", alias, err)
		}
		if err := assign(f, v); err != nil {
			return fmt.Errorf("sqlmap: set %s: %w", alias, err)
		}
		return nil
	}
}

// assign stores v into dst, converting between the driver value types
// (int64, float64, bool, []byte, string, time.Time) and the field type.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if reflect.PointerTo(dst.Type()).Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(v)
	}
	src := reflect.ValueOf(v)
	dt := dst.Type()
	if src.Type().AssignableTo(dt) {
		dst.Set(src)
		return nil
	}
	if dt.Kind() == reflect.Pointer {
		p := reflect.New(dt.Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
	if b, ok := v.([]byte); ok && dt.Kind() == reflect.String {
		dst.SetString(string(b))
		return nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if isNumber(src.Kind()) {
		v = number(src)
	}
	switch {
	case dt == timeType:
		t, err := cast.ToTimeE(v)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t))
	case dt.Kind() == reflect.String:
		s, err := cast.ToStringE(v)
		if err != nil {
			return err
		}
		dst.SetString(s)
	case dt.Kind() == reflect.Bool:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case isInt(dt.Kind()):
		if err := fitsInt(v, -1<<63, 1<<63); err != nil {
			return fmt.Errorf("cannot assign %v to %s: %w", v, dt, err)
		}
		n, err := cast.ToInt64E(v)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("cannot assign %v to %s: out of range", v, dt)
		}
		dst.SetInt(n)
	case isUint(dt.Kind()):
		if err := fitsInt(v, 0, 1<<64); err != nil {
			return fmt.Errorf("cannot assign %v to %s: %w", v, dt, err)
		}
		n, err := cast.ToUint64E(v)
		if err != nil {
			return err
		}
		if dst.OverflowUint(n) {
			return fmt.Errorf("cannot assign %v to %s: out of range", v, dt)
		}
		dst.SetUint(n)
	case dt.Kind() == reflect.Float32 || dt.Kind() == reflect.Float64:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return err
		}
		if dst.OverflowFloat(n) {
			return fmt.Errorf("cannot assign %v to %s: out of range", v, dt)
		}
		dst.SetFloat(n)
	default:
		return fmt.Errorf("cannot assign %T to %s", v, dt)
	}
	return nil
}

// number widens a numeric value of any kind, named types included, to
// int64, uint64 or float64.
func number(v reflect.Value) any {
	switch {
	case isInt(v.Kind()):
		return v.Int()
	case isUint(v.Kind()):
		return v.Uint()
	default:
		return v.Float()
	}
}

// fitsInt reports whether v, once widened, is an integer in [lo, hi).
func fitsInt(v any, lo, hi float64) error {
	switch n := v.(type) {
	case int64:
		if float64(n) < lo {
			return errors.New("out of range")
		}
	case uint64:
		if hi <= 1<<63 && n > math.MaxInt64 {
			return errors.New("out of range")
		}
	case float64:
		if n != math.Trunc(n) {
			return errors.New("fractional value")
		}
		if n < lo || n >= hi {
			return errors.New("out of range")
		}
	}
	return nil
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isNumber(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || k == reflect.Float32 || k == reflect.Float64
}
