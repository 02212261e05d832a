// Package postfile reads and writes the post file format: a block of
// "@key value" attribute lines followed by the post body.
package postfile

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/dfryer1193/flatblog/blog/domain"
)

const (
	attributeMarker = '@'

	emptyStringSentinel = "(empty-string)"
	dateSuffix          = "Date"
	arraySuffix         = "Array"
	arraySeparator      = ", "

	// legacyPubDateKey is the timestamp key used by older exported posts.
	legacyPubDateKey = "pubDate"
)

// ParseLine parses one attribute line. ok is false when the line is not an
// attribute line, which ends the attribute block. err is set when the line is
// an attribute but its value cannot be coerced.
func ParseLine(line string) (key string, value domain.Value, ok bool, err error) {
	if len(line) == 0 || line[0] != attributeMarker {
		return "", domain.Value{}, false, nil
	}
	space := strings.IndexByte(line, ' ')
	if space < 0 {
		return "", domain.Value{}, false, nil
	}

	key = line[1:space]
	raw := strings.TrimSpace(line[space+1:])

	value, err = coerce(key, raw)
	if err != nil {
		return "", domain.Value{}, true, &domain.AttributeError{Key: key, Value: raw, Err: err}
	}
	if key == legacyPubDateKey {
		key = domain.DateTimePostedKey
	}
	return key, value, true, nil
}

// coerce applies the value rules in order; a later rule overrides an earlier
// one.
func coerce(key, raw string) (domain.Value, error) {
	if key == domain.DateTimePostedKey || key == legacyPubDateKey {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.Value{}, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return domain.Value{}, errors.New("timestamp is not a finite number")
		}
		return domain.FloatValue(f), nil
	}

	value := domain.StringValue(unquote(raw))
	// Digit strings too long for int64 (ISBNs and the like) stay strings.
	if raw != "" && isDigits(raw) {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			value = domain.IntegerValue(n)
		}
	}

	if raw == emptyStringSentinel {
		value = domain.StringValue("")
	}

	if strings.HasSuffix(key, dateSuffix) {
		t, err := dateparse.ParseAny(raw)
		if err != nil {
			return domain.Value{}, err
		}
		value = domain.TimestampValue(t)
	}

	if strings.HasSuffix(key, arraySuffix) {
		value = domain.StringListValue(splitList(raw))
	}

	return value, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// unquote strips one pair of surrounding double quotes, the form strings are
// written in.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func splitList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, arraySeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func describeLine(n int, line string) string {
	return fmt.Sprintf("line %d %q", n, strings.TrimRight(line, "\r\n"))
}
