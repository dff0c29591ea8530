package manifest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the type of an option value.
type Kind int

const (
	Bool Kind = iota
	Enum
	String
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Enum:
		return "enum"
	case String:
		return "string"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an option value. Two values are equal when kind and text match.
type Value struct {
	kind Kind
	text string
}

// BoolValue returns a boolean option value.
func BoolValue(b bool) Value {
	return Value{kind: Bool, text: strconv.FormatBool(b)}
}

// EnumValue returns an enumerated option value such as "static".
func EnumValue(s string) Value {
	return Value{kind: Enum, text: s}
}

// StringValue returns a free-form option value.
func StringValue(s string) Value {
	return Value{kind: String, text: s}
}

var enumRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.+-]*$`)

// ParseValue interprets text written on a command line or in a manifest
// file. "true" and "false" (any case) are booleans, identifier-like tokens
// are enum values, and anything else is a string.
func ParseValue(text string) Value {
	switch strings.ToLower(text) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}
	if enumRegexp.MatchString(text) {
		return EnumValue(text)
	}
	return StringValue(text)
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean held by v; ok is false when v is not a Bool.
func (v Value) Bool() (b, ok bool) {
	if v.kind != Bool {
		return false, false
	}
	return v.text == "true", true
}

// String returns the textual form of v.
func (v Value) String() string { return v.text }

// Equal reports whether v and o hold the same kind and text.
func (v Value) Equal(o Value) bool { return v == o }

// ValueOf converts a decoded TOML, YAML or JSON scalar to a Value.
// Strings go through ParseValue; numbers become strings.
func ValueOf(raw any) (Value, error) {
	switch v := raw.(type) {
	case bool:
		return BoolValue(v), nil
	case string:
		return ParseValue(v), nil
	case int:
		return StringValue(strconv.Itoa(v)), nil
	case int64:
		return StringValue(strconv.FormatInt(v, 10)), nil
	case uint64:
		return StringValue(strconv.FormatUint(v, 10)), nil
	case float64:
		return StringValue(strconv.FormatFloat(v, 'g', -1, 64)), nil
	}
	return Value{}, fmt.Errorf("unsupported value type %T", raw)
}
