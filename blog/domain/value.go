package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInteger
	KindFloat
	KindTimestamp
	KindStringList
)

func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindTimestamp:
		return "timestamp"
	case KindStringList:
		return "string list"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is a typed attribute value. Exactly one payload is meaningful,
// selected by Kind.
type Value struct {
	Kind ValueKind

	str  string
	num  int64
	flt  float64
	ts   time.Time
	list []string
}

func StringValue(s string) Value       { return Value{Kind: KindString, str: s} }
func IntegerValue(n int64) Value       { return Value{Kind: KindInteger, num: n} }
func FloatValue(f float64) Value       { return Value{Kind: KindFloat, flt: f} }
func TimestampValue(t time.Time) Value { return Value{Kind: KindTimestamp, ts: t} }

func StringListValue(items []string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{Kind: KindStringList, list: cp}
}

// AsString returns the string payload and whether v holds a string.
func (v Value) AsString() (string, bool) { return v.str, v.Kind == KindString }

func (v Value) AsInteger() (int64, bool) { return v.num, v.Kind == KindInteger }

func (v Value) AsFloat() (float64, bool) { return v.flt, v.Kind == KindFloat }

func (v Value) AsTimestamp() (time.Time, bool) { return v.ts, v.Kind == KindTimestamp }

// AsStringList returns a copy of the list payload.
func (v Value) AsStringList() ([]string, bool) {
	if v.Kind != KindStringList {
		return nil, false
	}
	cp := make([]string, len(v.list))
	copy(cp, v.list)
	return cp, true
}

// Equal reports whether both values carry the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.str == o.str
	case KindInteger:
		return v.num == o.num
	case KindFloat:
		return v.flt == o.flt
	case KindTimestamp:
		return v.ts.Equal(o.ts)
	case KindStringList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != o.list[i] {
				return false
			}
		}
		return true
	}
	return false
}

// Text is the natural text form of the value. Strings are returned unquoted.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.str
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return FormatTimestamp(v.flt)
	case KindTimestamp:
		return v.ts.Format("2006-01-02 15:04:05 -0700")
	case KindStringList:
		quoted := make([]string, len(v.list))
		for i, s := range v.list {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	}
	return ""
}

// Interface unwraps the payload into a plain Go value, for JSON encoding and
// templates.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.str
	case KindInteger:
		return v.num
	case KindFloat:
		return v.flt
	case KindTimestamp:
		return v.ts
	case KindStringList:
		list, _ := v.AsStringList()
		return list
	}
	return nil
}

func (v Value) String() string { return v.Text() }
