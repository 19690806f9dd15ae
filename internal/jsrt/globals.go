package jsrt

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/starjs-engine/starjs/internal/interp"
	"github.com/starjs-engine/starjs/internal/object"
	"github.com/starjs-engine/starjs/internal/value"
)

// installGlobals wires the free-standing global natives: print,
// isFinite, isNaN, parseInt, parseFloat, gc, and toString. All are
// installed directly on the global object rather than any prototype.
func installGlobals(in *interp.Interp, rt *ReferenceTable, global *object.JsObject) {
	defineMethod(in, rt, global, "print", 1, globalPrint(in))
	defineMethod(in, rt, global, "isFinite", 1, globalIsFinite(in))
	defineMethod(in, rt, global, "isNaN", 1, globalIsNaN(in))
	defineMethod(in, rt, global, "parseInt", 2, globalParseInt(in))
	defineMethod(in, rt, global, "parseFloat", 1, globalParseFloat(in))
	defineMethod(in, rt, global, "gc", 0, globalGC(in))
	defineMethod(in, rt, global, "toString", 0, globalToString(in))
}

// globalPrint writes every argument's ToString conversion to stdout,
// space-separated, followed by a newline: the minimal I/O hook a script
// has for diagnostics.
func globalPrint(in *interp.Interp) object.NativeFunc {
	return func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			s, err := in.ToStringValue(a)
			if err != nil {
				return value.Value{}, err
			}
			parts[i] = s
		}
		fmt.Fprintln(os.Stdout, strings.Join(parts, " "))
		return value.Undefined, nil
	}
}

func globalIsFinite(in *interp.Interp) object.NativeFunc {
	return func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Bool(false), nil
		}
		n, err := in.ToNumber(args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	}
}

func globalIsNaN(in *interp.Interp) object.NativeFunc {
	return func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Bool(true), nil
		}
		n, err := in.ToNumber(args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(math.IsNaN(n)), nil
	}
}

// globalParseInt implements the ECMA-262 parseInt abstract algorithm for
// the common radix-10/radix-16 ("0x" prefixed) cases; an explicit radix
// argument overrides prefix sniffing.
func globalParseInt(in *interp.Interp) object.NativeFunc {
	return func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Number(math.NaN()), nil
		}
		s, err := in.ToStringValue(args[0])
		if err != nil {
			return value.Value{}, err
		}
		s = strings.TrimSpace(s)
		radix := 10
		if len(args) > 1 && !args[1].IsUndefined() {
			r, err := in.ToInt32(args[1])
			if err != nil {
				return value.Value{}, err
			}
			if r != 0 {
				radix = int(r)
			}
		}
		neg := false
		if strings.HasPrefix(s, "-") {
			neg = true
			s = s[1:]
		} else if strings.HasPrefix(s, "+") {
			s = s[1:]
		}
		if (radix == 16 || radix == 10) && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
			s = s[2:]
			radix = 16
		}
		end := 0
		for end < len(s) && isDigitForRadix(s[end], radix) {
			end++
		}
		if end == 0 {
			return value.Number(math.NaN()), nil
		}
		n, convErr := strconv.ParseInt(s[:end], radix, 64)
		if convErr != nil {
			return value.Number(math.NaN()), nil
		}
		if neg {
			n = -n
		}
		return value.Number(float64(n)), nil
	}
}

func isDigitForRadix(c byte, radix int) bool {
	var v int
	switch {
	case c >= '0' && c <= '9':
		v = int(c - '0')
	case c >= 'a' && c <= 'z':
		v = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		v = int(c-'A') + 10
	default:
		return false
	}
	return v < radix
}

// globalParseFloat implements parseFloat by scanning the longest valid
// float64 prefix and delegating to strconv.
func globalParseFloat(in *interp.Interp) object.NativeFunc {
	return func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Number(math.NaN()), nil
		}
		s, err := in.ToStringValue(args[0])
		if err != nil {
			return value.Value{}, err
		}
		s = strings.TrimSpace(s)
		end := floatPrefixLen(s)
		if end == 0 {
			return value.Number(math.NaN()), nil
		}
		f, convErr := strconv.ParseFloat(s[:end], 64)
		if convErr != nil {
			return value.Number(math.NaN()), nil
		}
		return value.Number(f), nil
	}
}

func floatPrefixLen(s string) int {
	if strings.HasPrefix(s, "Infinity") || strings.HasPrefix(s, "+Infinity") || strings.HasPrefix(s, "-Infinity") {
		return strings.Index(s, "Infinity") + len("Infinity")
	}
	i := 0
	n := len(s)
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	start := i
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i == start || (i == start+1 && s[start] == '.') {
		return 0
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < n && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expStart := j
		for j < n && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j > expStart {
			i = j
		}
	}
	return i
}

// globalGC forces an immediate collection cycle, exposed to scripts for
// deterministic testing of weak-reference clearing.
func globalGC(in *interp.Interp) object.NativeFunc {
	return func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		in.CollectGarbage()
		return value.Undefined, nil
	}
}

// globalToString is a free function alongside the constructor-owned
// Object/Array/String/Number/Boolean .prototype.toString methods; it
// simply forwards to ToStringValue.
func globalToString(in *interp.Interp) object.NativeFunc {
	return func(ctx object.Context, this value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.FromObject(interp.NewString(in, "undefined")), nil
		}
		s, err := in.ToStringValue(args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.FromObject(interp.NewString(in, s)), nil
	}
}
