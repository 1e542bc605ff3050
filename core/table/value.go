package table

import (
	"strconv"
	"time"
)

// Kind identifies how a column's raw text is interpreted.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// ParseKind maps a configuration name to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "text", "str", "string":
		return KindText, true
	case "int", "integer":
		return KindInt, true
	case "float", "number":
		return KindFloat, true
	case "date", "datetime":
		return KindDate, true
	}
	return KindText, false
}

// Value is a nullable cell. The zero Value is null.
type Value struct {
	kind  Kind
	valid bool
	s     string
	i     int64
	f     float64
	t     time.Time
}

// Null returns a missing value.
func Null() Value { return Value{} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, valid: true, s: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, valid: true, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, valid: true, f: f} }

// Date returns a date-time value.
func Date(t time.Time) Value { return Value{kind: KindDate, valid: true, t: t} }

func (v Value) IsNull() bool { return !v.valid }
func (v Value) Kind() Kind   { return v.kind }

// Str returns the text content, or false if v is null or not text.
func (v Value) Str() (string, bool) {
	if !v.valid || v.kind != KindText {
		return "", false
	}
	return v.s, true
}

// Time returns the date content, or false if v is null or not a date.
func (v Value) Time() (time.Time, bool) {
	if !v.valid || v.kind != KindDate {
		return time.Time{}, false
	}
	return v.t, true
}

// String renders the value the way it is written to CSV. Null renders as
// the empty string; dates use the full date-time layout.
func (v Value) String() string {
	if !v.valid {
		return ""
	}
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindDate:
		return v.t.Format(DateTimeLayout)
	default:
		return v.s
	}
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Format renders v like String, but drops the clock from dates when
// dateOnly is set.
func (v Value) Format(dateOnly bool) string {
	if ts, ok := v.Time(); ok && dateOnly {
		return ts.Format(DateLayout)
	}
	return v.String()
}

// CompareDates orders two values by date with nulls (and non-dates) last.
func CompareDates(a, b Value) int {
	at, aok := a.Time()
	bt, bok := b.Time()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}
	return at.Compare(bt)
}
