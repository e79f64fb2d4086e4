package ast

import (
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ValueKind identifies the variant held by a Value.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueNumber
	ValueDateTime
	ValueString
)

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueBool:
		return "boolean"
	case ValueNumber:
		return "number"
	case ValueDateTime:
		return "dateTime"
	case ValueString:
		return "string"
	}
	return "ValueKind(" + strconv.Itoa(int(k)) + ")"
}

// DateTimeLayout is the canonical rendering of date-time literals.
const DateTimeLayout = "2006-01-02T15:04:05Z"

var dateTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)

// Value is a typed comparison literal.
type Value struct {
	kind     ValueKind
	text     string
	boolean  bool
	number   decimal.Decimal
	dateTime time.Time
}

// NullValue returns the null literal.
func NullValue() Value {
	return Value{kind: ValueNull}
}

// BoolValue returns a boolean literal.
func BoolValue(b bool) Value {
	return Value{kind: ValueBool, boolean: b}
}

// NumberValue returns a numeric literal.
func NumberValue(d decimal.Decimal) Value {
	return Value{kind: ValueNumber, number: d}
}

// DateTimeValue returns a date-time literal normalized to UTC.
func DateTimeValue(t time.Time) Value {
	return Value{kind: ValueDateTime, dateTime: t.UTC()}
}

// StringValue returns a string literal.
func StringValue(s string) Value {
	return Value{kind: ValueString, text: s}
}

// QuotedValue types the unescaped content of a quoted literal: content that is
// exactly a UTC timestamp (YYYY-MM-DDThh:mm:ssZ) becomes a date-time, anything
// else stays a string.
func QuotedValue(s string) Value {
	if dateTimePattern.MatchString(s) {
		if t, err := time.Parse(DateTimeLayout, s); err == nil {
			return DateTimeValue(t)
		}
	}
	return StringValue(s)
}

// Kind returns the literal variant.
func (v Value) Kind() ValueKind { return v.kind }

// IsNull reports whether v is the null literal.
func (v Value) IsNull() bool { return v.kind == ValueNull }

// Bool returns the boolean content; false for other kinds.
func (v Value) Bool() bool { return v.boolean }

// Number returns the numeric content; zero for other kinds.
func (v Value) Number() decimal.Decimal { return v.number }

// Time returns the date-time content; the zero time for other kinds.
func (v Value) Time() time.Time { return v.dateTime }

// Text returns the string content; empty for other kinds.
func (v Value) Text() string { return v.text }

// Interface returns the literal as a plain Go value: nil, bool,
// decimal.Decimal, time.Time or string.
func (v Value) Interface() interface{} {
	switch v.kind {
	case ValueBool:
		return v.boolean
	case ValueNumber:
		return v.number
	case ValueDateTime:
		return v.dateTime
	case ValueString:
		return v.text
	}
	return nil
}

// String renders the literal without quotes.
func (v Value) String() string {
	switch v.kind {
	case ValueBool:
		return strconv.FormatBool(v.boolean)
	case ValueNumber:
		return v.number.String()
	case ValueDateTime:
		return v.dateTime.Format(DateTimeLayout)
	case ValueString:
		return v.text
	}
	return "null"
}
