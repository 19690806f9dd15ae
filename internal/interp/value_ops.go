package interp

import (
	"math"
	"strconv"
	"strings"

	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/symbol"
	"github.com/starjs-engine/starjs/internal/value"
)

// asString reports whether v is a boxed JsString, the engine's sole string
// representation (TagStringObject is not how string primitives are
// stored).
func asString(v value.Value) (*JsString, bool) {
	if !v.IsObject() {
		return nil, false
	}
	s, ok := v.AsRef().(*JsString)
	return s, ok
}

func asObject(v value.Value) (*object.JsObject, bool) {
	if !v.IsObject() {
		return nil, false
	}
	o, ok := v.AsRef().(*object.JsObject)
	return o, ok
}

// truthy implements ToBoolean including the one case value.Value.ToBoolean
// cannot decide on its own: a boxed JsString is falsy exactly when empty.
func truthy(v value.Value) bool {
	if s, ok := asString(v); ok {
		return s.String() != ""
	}
	return v.ToBoolean()
}

func (in *Interp) isCallable(v value.Value) bool {
	o, ok := asObject(v)
	return ok && o.IsCallable()
}

// typeOf implements the typeof operator, layering "function" for callable
// objects on top of value.Value.TypeOf's static classification and
// "string" for the boxed-JsString case TypeOf can't see.
func (in *Interp) typeOf(v value.Value) string {
	if _, ok := asString(v); ok {
		return "string"
	}
	if o, ok := asObject(v); ok {
		if o.IsCallable() {
			return "function"
		}
		return "object"
	}
	return v.TypeOf()
}

// toNumber implements ToNumber for the subset of types this engine
// represents, calling ToPrimitive(hint "number") first for objects.
func (in *Interp) toNumber(v value.Value) (float64, *Exception) {
	if v.IsNumber() {
		return v.AsFloat64(), nil
	}
	switch v.Kind() {
	case value.KindUndefined:
		return math.NaN(), nil
	case value.KindNull:
		return 0, nil
	case value.KindBool:
		if v.AsBool() {
			return 1, nil
		}
		return 0, nil
	}
	if s, ok := asString(v); ok {
		return stringToNumber(s.String()), nil
	}
	if _, ok := asObject(v); ok {
		prim, exc := in.toPrimitive(v, "number")
		if exc != nil {
			return 0, exc
		}
		if prim.IsObject() {
			return math.NaN(), nil
		}
		return in.toNumber(prim)
	}
	return math.NaN(), nil
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if n, err := strconv.ParseInt(s[2:], 16, 64); err == nil {
			return float64(n)
		}
	}
	return math.NaN()
}

func (in *Interp) toInt32(v value.Value) (int32, *Exception) {
	f, exc := in.toNumber(v)
	if exc != nil {
		return 0, exc
	}
	return toInt32(f), nil
}

func (in *Interp) toUint32(v value.Value) (uint32, *Exception) {
	f, exc := in.toNumber(v)
	if exc != nil {
		return 0, exc
	}
	return uint32(toInt32(f)), nil
}

// toInt32 implements the ECMAScript ToInt32 numeric conversion: modulo
// 2^32 into an unsigned range, then reinterpreted as signed.
func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	m := math.Mod(f, 4294967296)
	if m < 0 {
		m += 4294967296
	}
	u := uint32(m)
	return int32(u)
}

// toStringValue implements ToString for a runtime value, returning a Go
// string (the caller boxes it into a *JsString only where one needs to be
// observable on the heap, e.g. a concatenation result).
func (in *Interp) toStringValue(v value.Value) (string, *Exception) {
	if s, ok := asString(v); ok {
		return s.String(), nil
	}
	switch v.Kind() {
	case value.KindUndefined:
		return "undefined", nil
	case value.KindNull:
		return "null", nil
	case value.KindBool:
		if v.AsBool() {
			return "true", nil
		}
		return "false", nil
	case value.KindInt32, value.KindNumber:
		return formatNumber(v.AsFloat64()), nil
	}
	if _, ok := asObject(v); ok {
		prim, exc := in.toPrimitive(v, "string")
		if exc != nil {
			return "", exc
		}
		if prim.IsObject() {
			return "[object Object]", nil
		}
		return in.toStringValue(prim)
	}
	return "", nil
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// toPrimitive implements the ECMAScript ToPrimitive abstract operation for
// objects by calling valueOf/toString (order per hint) through the normal
// call mechanism; non-objects are returned unchanged.
func (in *Interp) toPrimitive(v value.Value, hint string) (value.Value, *Exception) {
	o, ok := asObject(v)
	if !ok {
		return v, nil
	}
	methods := []string{"valueOf", "toString"}
	if hint == "string" {
		methods = []string{"toString", "valueOf"}
	}
	for _, name := range methods {
		slot, ok := o.Get(in, in.Intern(name))
		if !ok {
			continue
		}
		fn, ok := asObject(slot.Value)
		if !ok || !fn.IsCallable() {
			continue
		}
		res, exc := in.callFunction(fn, v, nil, false)
		if exc != nil {
			return value.Value{}, exc
		}
		if !res.IsObject() {
			return res, nil
		}
		if _, isStr := asString(res); isStr {
			return res, nil
		}
	}
	return value.Value{}, in.throwErr(&object.ThrowError{Value: in.NewError("TypeError", "cannot convert object to primitive value")})
}

// toPropertyKey implements ToPropertyKey: strings (and stringified
// primitives) intern to a symbol.Symbol, canonicalizing integer-looking
// strings to index symbols so "0" and 0 address the same slot.
func (in *Interp) toPropertyKey(v value.Value) (symbol.Symbol, *Exception) {
	if v.IsNumber() {
		f := v.AsFloat64()
		if f >= 0 && f == math.Trunc(f) && f < 4294967295 {
			return symbol.Index(uint32(f)), nil
		}
	}
	s, exc := in.toStringValue(v)
	if exc != nil {
		return symbol.Symbol{}, exc
	}
	if idx, ok := parseCanonicalIndex(s); ok {
		return symbol.Index(idx), nil
	}
	return in.Intern(s), nil
}

func parseCanonicalIndex(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	if s == "0" {
		return 0, true
	}
	if s[0] == '0' || s[0] < '0' || s[0] > '9' {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || strconv.FormatUint(n, 10) != s {
		return 0, false
	}
	return uint32(n), true
}

// strictEquals implements ===.
func (in *Interp) strictEquals(a, b value.Value) bool {
	as, aok := asString(a)
	bs, bok := asString(b)
	if aok || bok {
		return aok && bok && as.String() == bs.String()
	}
	if a.IsNumber() && b.IsNumber() {
		af, bf := a.AsFloat64(), b.AsFloat64()
		return af == bf
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if a.Kind() == value.KindObject {
		return a.AsRef() == b.AsRef()
	}
	return a == b
}

// looseEquals implements == with the standard ECMAScript coercion ladder.
func (in *Interp) looseEquals(a, b value.Value) (bool, *Exception) {
	if a.Kind() == b.Kind() || (a.IsNumber() && b.IsNumber()) {
		if _, aok := asString(a); aok {
			return in.strictEquals(a, b), nil
		}
		return in.strictEquals(a, b), nil
	}
	if a.IsNullOrUndefined() && b.IsNullOrUndefined() {
		return true, nil
	}
	if a.IsNullOrUndefined() || b.IsNullOrUndefined() {
		return false, nil
	}
	_, aStr := asString(a)
	_, bStr := asString(b)
	if (a.IsNumber() && bStr) || (aStr && b.IsNumber()) {
		af, exc := in.toNumber(a)
		if exc != nil {
			return false, exc
		}
		bf, exc := in.toNumber(b)
		if exc != nil {
			return false, exc
		}
		return af == bf, nil
	}
	if a.Kind() == value.KindBool {
		af, _ := in.toNumber(a)
		return in.looseEquals(value.Number(af), b)
	}
	if b.Kind() == value.KindBool {
		bf, _ := in.toNumber(b)
		return in.looseEquals(a, value.Number(bf))
	}
	if _, aIsObj := asObject(a); aIsObj && (b.IsNumber() || bStr) {
		prim, exc := in.toPrimitive(a, "default")
		if exc != nil {
			return false, exc
		}
		return in.looseEquals(prim, b)
	}
	if _, bIsObj := asObject(b); bIsObj && (a.IsNumber() || aStr) {
		prim, exc := in.toPrimitive(b, "default")
		if exc != nil {
			return false, exc
		}
		return in.looseEquals(a, prim)
	}
	return false, nil
}

// lessThan implements the relational operators' common core (the Abstract
// Relational Comparison), returning (result, isUndefinedComparison).
func (in *Interp) lessThan(a, b value.Value) (bool, bool, *Exception) {
	pa, exc := in.toPrimitive(a, "number")
	if exc != nil {
		return false, false, exc
	}
	pb, exc := in.toPrimitive(b, "number")
	if exc != nil {
		return false, false, exc
	}
	sa, aIsStr := asString(pa)
	sb, bIsStr := asString(pb)
	if aIsStr && bIsStr {
		return sa.String() < sb.String(), false, nil
	}
	na, exc := in.toNumber(pa)
	if exc != nil {
		return false, false, exc
	}
	nb, exc := in.toNumber(pb)
	if exc != nil {
		return false, false, exc
	}
	if math.IsNaN(na) || math.IsNaN(nb) {
		return false, true, nil
	}
	return na < nb, false, nil
}

// concat implements the + operator's string/number dual behavior: if
// either primitive operand is a string after ToPrimitive, concatenate;
// otherwise add numerically.
func (in *Interp) concat(a, b value.Value) (value.Value, *Exception) {
	pa, exc := in.toPrimitive(a, "default")
	if exc != nil {
		return value.Value{}, exc
	}
	pb, exc := in.toPrimitive(b, "default")
	if exc != nil {
		return value.Value{}, exc
	}
	_, aIsStr := asString(pa)
	_, bIsStr := asString(pb)
	if aIsStr || bIsStr {
		sa, exc := in.toStringValue(pa)
		if exc != nil {
			return value.Value{}, exc
		}
		sb, exc := in.toStringValue(pb)
		if exc != nil {
			return value.Value{}, exc
		}
		return value.FromObject(NewString(in, sa+sb)), nil
	}
	na, exc := in.toNumber(pa)
	if exc != nil {
		return value.Value{}, exc
	}
	nb, exc := in.toNumber(pb)
	if exc != nil {
		return value.Value{}, exc
	}
	return value.Number(na + nb), nil
}

// instanceOf implements the instanceof operator's default (non-Symbol.
// hasInstance-customizable) semantics: walk target's prototype chain
// looking for ctor.prototype.
func (in *Interp) instanceOf(target, ctor value.Value) (bool, *Exception) {
	ctorObj, ok := asObject(ctor)
	if !ok || !ctorObj.IsCallable() {
		return false, in.throwErr(&object.ThrowError{Value: in.NewError("TypeError", "right-hand side of instanceof is not callable")})
	}
	protoSlot, ok := ctorObj.Get(in, in.Intern("prototype"))
	if !ok {
		return false, nil
	}
	protoObj, ok := asObject(protoSlot.Value)
	if !ok {
		return false, nil
	}
	obj, ok := asObject(target)
	if !ok {
		return false, nil
	}
	cur := obj.Structure().Prototype()
	for cur != nil {
		if cur == protoObj {
			return true, nil
		}
		cur = cur.Structure().Prototype()
	}
	return false, nil
}
