package interp

import "github.com/starjs-engine/starjs/internal/value"

// The methods below re-export the engine's internal ToNumber/ToString/
// IsCallable/TypeOf conversions for callers outside this package — chiefly
// internal/jsrt's bootstrap natives, which receive a value.Value argument
// vector and need the same abstract operations the bytecode dispatch loop
// uses, without duplicating their string/number coercion rules.

// ToNumber implements the ECMAScript ToNumber abstract operation.
func (in *Interp) ToNumber(v value.Value) (float64, error) { return in.excOrNil(in.toNumber(v)) }

// ToInt32 implements ToInt32.
func (in *Interp) ToInt32(v value.Value) (int32, error) { return in.excOrNilI32(in.toInt32(v)) }

// ToUint32 implements ToUint32.
func (in *Interp) ToUint32(v value.Value) (uint32, error) { return in.excOrNilU32(in.toUint32(v)) }

// ToStringValue implements ToString, returning a Go string.
func (in *Interp) ToStringValue(v value.Value) (string, error) {
	return in.excOrNilStr(in.toStringValue(v))
}

// IsCallable reports whether v is a callable object.
func (in *Interp) IsCallable(v value.Value) bool { return in.isCallable(v) }

// Truthy implements ToBoolean, including empty-string falsiness a bare
// value.Value.ToBoolean cannot see.
func (in *Interp) Truthy(v value.Value) bool { return truthy(v) }

// TypeOf implements the typeof operator, including the "function" and
// "string" refinements typeOf layers on top of value.Value.TypeOf.
func (in *Interp) TypeOf(v value.Value) string { return in.typeOf(v) }

// StrictEquals implements the === operator.
func (in *Interp) StrictEquals(a, b value.Value) bool { return in.strictEquals(a, b) }

func (in *Interp) excOrNil(f float64, exc *Exception) (float64, error) {
	if exc != nil {
		return 0, exc
	}
	return f, nil
}

func (in *Interp) excOrNilI32(n int32, exc *Exception) (int32, error) {
	if exc != nil {
		return 0, exc
	}
	return n, nil
}

func (in *Interp) excOrNilU32(n uint32, exc *Exception) (uint32, error) {
	if exc != nil {
		return 0, exc
	}
	return n, nil
}

func (in *Interp) excOrNilStr(s string, exc *Exception) (string, error) {
	if exc != nil {
		return "", exc
	}
	return s, nil
}
