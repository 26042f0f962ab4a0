package flow

import "reflect"

// DataValue returns the cell's value as *T, or nil when the cell is empty or
// holds a different type. Readiness gating is the caller's job; Dependency
// accessors wrap this with their ready checks.
func DataValue[T any](d *Data) *T {
	if !d.hasValue {
		return nil
	}
	p, ok := d.value.(*T)
	if !ok {
		return nil
	}
	return p
}

// DeclareType pins the cell's value type before the first emit. Emitting any
// other type afterwards fails the producing vertex.
func DeclareType[T any](d *Data) {
	if d.declaredType == nil {
		d.declaredType = reflect.TypeFor[T]()
	}
}

// asBool coerces the cell's value to a boolean, the way a condition edge
// evaluates its gate. Missing values and non-coercible types read as false.
func (d *Data) asBool() bool {
	if !d.hasValue {
		return false
	}
	switch v := d.value.(type) {
	case *bool:
		return *v
	case *int64:
		return *v != 0
	case *int:
		return *v != 0
	case *float64:
		return *v != 0
	case *string:
		return *v != ""
	}
	return false
}

// asInt64 coerces the cell's value to an integer; zero when absent or
// non-numeric.
func (d *Data) asInt64() int64 {
	if !d.hasValue {
		return 0
	}
	switch v := d.value.(type) {
	case *int64:
		return *v
	case *int:
		return int64(*v)
	case *float64:
		return int64(*v)
	case *bool:
		if *v {
			return 1
		}
		return 0
	}
	return 0
}

// asFloat64 coerces the cell's value to a float; zero when absent or
// non-numeric.
func (d *Data) asFloat64() float64 {
	if !d.hasValue {
		return 0
	}
	switch v := d.value.(type) {
	case *float64:
		return *v
	case *int64:
		return float64(*v)
	case *int:
		return float64(*v)
	}
	return 0
}

// asString returns the cell's string value, or "" for absent or non-string
// values.
func (d *Data) asString() string {
	if !d.hasValue {
		return ""
	}
	if v, ok := d.value.(*string); ok {
		return *v
	}
	return ""
}
