// Package coerce converts string literals into the value types declared by a
// remote MBean for its attributes and operation parameters.
package coerce

import (
	"math"
	"strconv"
	"strings"

	"github.com/AndreyAkinshin/mbexec/internal/errors"
)

// Kind is one of the closed set of value kinds an attribute or parameter may declare.
type Kind int

const (
	KindInvalid Kind = iota
	KindByte
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBoolean
	KindString
)

// typeNames maps declared type names (primitive and boxed) to kinds.
// Matching is exact and case-sensitive.
var typeNames = map[string]Kind{
	"byte":              KindByte,
	"java.lang.Byte":    KindByte,
	"short":             KindShort,
	"java.lang.Short":   KindShort,
	"int":               KindInt,
	"java.lang.Integer": KindInt,
	"long":              KindLong,
	"java.lang.Long":    KindLong,
	"float":             KindFloat,
	"java.lang.Float":   KindFloat,
	"double":            KindDouble,
	"java.lang.Double":  KindDouble,
	"boolean":           KindBoolean,
	"java.lang.Boolean": KindBoolean,
	"string":            KindString,
	"java.lang.String":  KindString,
}

func (k Kind) String() string {
	switch k {
	case KindByte:
		return "byte"
	case KindShort:
		return "short"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	default:
		return "invalid"
	}
}

// Lookup returns the kind for a declared type name.
func Lookup(typeName string) (Kind, bool) {
	k, ok := typeNames[typeName]
	return k, ok
}

// Supported reports whether typeName can be coerced.
func Supported(typeName string) bool {
	_, ok := typeNames[typeName]
	return ok
}

// Coerce parses literal as a value of the declared type.
//
// Integer kinds parse base-10 and must fit the kind's width. Booleans never
// fail: "true" in any case is true and every other literal is false.
func Coerce(typeName, literal string) (any, error) {
	k, ok := Lookup(typeName)
	if !ok {
		return nil, errors.UnsupportedType(typeName)
	}
	v, err := k.parse(literal)
	if err != nil {
		return nil, errors.MalformedLiteral(typeName, literal, err)
	}
	return v, nil
}

func (k Kind) parse(literal string) (any, error) {
	switch k {
	case KindByte:
		n, err := strconv.ParseInt(literal, 10, 8)
		return int8(n), err
	case KindShort:
		n, err := strconv.ParseInt(literal, 10, 16)
		return int16(n), err
	case KindInt:
		n, err := strconv.ParseInt(literal, 10, 32)
		return int32(n), err
	case KindLong:
		n, err := strconv.ParseInt(literal, 10, 64)
		return n, err
	case KindFloat:
		f, err := parseFloat(literal, 32)
		return float32(f), err
	case KindDouble:
		return parseFloat(literal, 64)
	case KindBoolean:
		return strings.EqualFold(literal, "true"), nil
	case KindString:
		return literal, nil
	default:
		return nil, errors.Newf("no parser for kind %s", k)
	}
}

// parseFloat accepts the non-finite spellings NaN, Infinity and -Infinity.
// Other spellings of them (inf, nan, +Inf) are malformed.
func parseFloat(literal string, bits int) (float64, error) {
	switch literal {
	case "NaN":
		return math.NaN(), nil
	case "Infinity", "+Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	word := strings.ToLower(strings.TrimLeft(literal, "+-"))
	if strings.HasPrefix(word, "inf") || word == "nan" {
		return 0, errors.Newf("non-finite values are spelled NaN, Infinity or -Infinity")
	}
	return strconv.ParseFloat(literal, bits)
}

// Format renders a coerced value back into a literal that Coerce accepts.
func Format(v any) string {
	switch x := v.(type) {
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		if s, ok := nonFinite(float64(x)); ok {
			return s
		}
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		if s, ok := nonFinite(x); ok {
			return s
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	case nil:
		return "null"
	default:
		return "?"
	}
}

func nonFinite(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "NaN", true
	case math.IsInf(f, 1):
		return "Infinity", true
	case math.IsInf(f, -1):
		return "-Infinity", true
	}
	return "", false
}
