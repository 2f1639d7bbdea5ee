package libvirt

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/digitalocean/go-libvirt"
)

// TypedParam is libvirt's wire record for one named tunable.
type TypedParam = libvirt.TypedParam

// ParamType is libvirt's virTypedParameterType.
type ParamType uint32

const (
	ParamInt     ParamType = 1
	ParamUInt    ParamType = 2
	ParamLLong   ParamType = 3
	ParamULLong  ParamType = 4
	ParamDouble  ParamType = 5
	ParamBoolean ParamType = 6
	ParamString  ParamType = 7
)

func (t ParamType) String() string {
	switch t {
	case ParamInt:
		return "int"
	case ParamUInt:
		return "uint"
	case ParamLLong:
		return "llong"
	case ParamULLong:
		return "ullong"
	case ParamDouble:
		return "double"
	case ParamBoolean:
		return "boolean"
	case ParamString:
		return "string"
	default:
		return "unknown(" + strconv.FormatUint(uint64(t), 10) + ")"
	}
}

// Params is the Go-native form of a typed parameter list. Values are
// int32, uint32, int64, uint64, float64, bool or string.
type Params map[string]any

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// paramsFromTyped converts wire records into Params.
func paramsFromTyped(fn string, tps []TypedParam) (Params, error) {
	out := make(Params, len(tps))
	for _, tp := range tps {
		v, err := paramValue(fn, tp)
		if err != nil {
			return nil, err
		}
		out[tp.Field] = v
	}
	return out, nil
}

func paramValue(fn string, tp TypedParam) (any, error) {
	t := ParamType(tp.Value.D)
	switch v := tp.Value.I.(type) {
	case int32:
		switch t {
		case ParamInt:
			return v, nil
		case ParamBoolean:
			return v != 0, nil
		}
	case uint32:
		if t == ParamUInt {
			return v, nil
		}
	case int64:
		if t == ParamLLong {
			return v, nil
		}
	case uint64:
		if t == ParamULLong {
			return v, nil
		}
	case float64:
		if t == ParamDouble {
			return v, nil
		}
	case bool:
		if t == ParamBoolean {
			return v, nil
		}
	case string:
		if t == ParamString {
			return v, nil
		}
	}
	return nil, argumentError(fn, "parameter %q has unsupported type %s (%T)", tp.Field, t, tp.Value.I)
}

// newTypedParam builds a wire record of type t. v must already be of the
// Go type matching t.
func newTypedParam(field string, t ParamType, v any) TypedParam {
	if b, ok := v.(bool); ok && t == ParamBoolean {
		v = boolToInt32(b)
	}
	return TypedParam{
		Field: field,
		Value: libvirt.TypedParamValue{D: uint32(t), I: v},
	}
}

// coerceParams converts in to wire records, taking each field's type from
// current. Keys missing from current are rejected; only the provided
// fields are returned.
func coerceParams(fn string, current []TypedParam, in Params) ([]TypedParam, error) {
	types := make(map[string]ParamType, len(current))
	for _, tp := range current {
		types[tp.Field] = ParamType(tp.Value.D)
	}

	out := make([]TypedParam, 0, len(in))
	for _, key := range in.Keys() {
		t, ok := types[key]
		if !ok {
			return nil, argumentError(fn, "unknown parameter %q", key)
		}
		v, err := coerceValue(t, in[key])
		if err != nil {
			return nil, argumentError(fn, "parameter %q: %v", key, err)
		}
		out = append(out, newTypedParam(key, t, v))
	}
	return out, nil
}

// coerceValue converts v losslessly to the Go type of t.
func coerceValue(t ParamType, v any) (any, error) {
	switch t {
	case ParamInt:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, rangeErr(v, t)
		}
		return int32(n), nil
	case ParamUInt:
		n, err := toUint64(v)
		if err != nil {
			return nil, err
		}
		if n > math.MaxUint32 {
			return nil, rangeErr(v, t)
		}
		return uint32(n), nil
	case ParamLLong:
		return toInt64(v)
	case ParamULLong:
		return toUint64(v)
	case ParamDouble:
		return toFloat64(v)
	case ParamBoolean:
		return toBool(v)
	case ParamString:
		s, ok := v.(string)
		if !ok {
			return nil, typeErr(v, t)
		}
		return s, nil
	default:
		return nil, typeErr(v, t)
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint, uint8, uint16, uint32, uint64:
		u, _ := toUint64(n)
		if u > math.MaxInt64 {
			return 0, rangeErr(v, ParamLLong)
		}
		return int64(u), nil
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, rangeErr(v, ParamLLong)
		}
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, typeErr(v, ParamLLong)
		}
		return i, nil
	default:
		return 0, typeErr(v, ParamLLong)
	}
}

func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case int, int8, int16, int32, int64:
		i, _ := toInt64(n)
		if i < 0 {
			return 0, rangeErr(v, ParamULLong)
		}
		return uint64(i), nil
	case float64:
		if n != math.Trunc(n) || n < 0 || n >= math.MaxUint64 {
			return 0, rangeErr(v, ParamULLong)
		}
		return uint64(n), nil
	case string:
		u, err := strconv.ParseUint(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, typeErr(v, ParamULLong)
		}
		return u, nil
	default:
		return 0, typeErr(v, ParamULLong)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, typeErr(v, ParamDouble)
		}
		return f, nil
	default:
		i, err := toInt64(v)
		if err != nil {
			return 0, typeErr(v, ParamDouble)
		}
		return float64(i), nil
	}
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, typeErr(v, ParamBoolean)
		}
		return parsed, nil
	default:
		i, err := toInt64(v)
		if err != nil || (i != 0 && i != 1) {
			return false, typeErr(v, ParamBoolean)
		}
		return i == 1, nil
	}
}

type coerceError struct {
	value any
	t     ParamType
	what  string
}

func (e *coerceError) Error() string {
	return "value " + strconv.Quote(toString(e.value)) + " " + e.what + " " + e.t.String()
}

func typeErr(v any, t ParamType) error {
	return &coerceError{value: v, t: t, what: "cannot be converted to"}
}

func rangeErr(v any, t ParamType) error {
	return &coerceError{value: v, t: t, what: "is out of range for"}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	default:
		if i, err := toInt64(v); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if u, err := toUint64(v); err == nil {
			return strconv.FormatUint(u, 10)
		}
		return "?"
	}
}

// ParseParam parses a "key=value" command-line assignment. The value is
// kept as a string; SetParams coerces it to the hypervisor's type.
func ParseParam(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", argumentError("", "expected key=value, got %q", s)
	}
	return key, value, nil
}
