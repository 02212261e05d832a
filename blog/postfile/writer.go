package postfile

import (
	"strings"

	"github.com/dfryer1193/flatblog/blog/domain"
)

// TextWithAttributes writes one "@key value" line per attribute, in insertion
// order. Strings are wrapped in double quotes; other kinds use their natural
// text form. Timestamps, lists and empty strings are not written back in the
// form they were read from, so they do not survive a reparse unchanged.
func TextWithAttributes(attrs *domain.Attributes) string {
	var sb strings.Builder
	attrs.Each(func(key string, v domain.Value) {
		sb.WriteByte(attributeMarker)
		sb.WriteString(key)
		sb.WriteByte(' ')
		if s, ok := v.AsString(); ok {
			sb.WriteString(`"` + s + `"`)
		} else {
			sb.WriteString(v.Text())
		}
		sb.WriteByte('\n')
	})
	return sb.String()
}

// StartsWithAttribute reports whether the first line of body has the
// "@key value" form. Such a body cannot follow a new post's attribute block,
// since it would be read back as part of it.
func StartsWithAttribute(body string) bool {
	first, _, _ := strings.Cut(body, "\n")
	_, _, ok, _ := ParseLine(first)
	return ok
}

// AttributesForNewPost returns the minimal attribute block of a new post.
func AttributesForNewPost(dateTimePosted float64) *domain.Attributes {
	attrs := domain.NewAttributes()
	attrs.Set(domain.DateTimePostedKey, domain.FloatValue(dateTimePosted))
	return attrs
}

// FileTextForNewPost is the complete file content of a new post.
func FileTextForNewPost(body string, dateTimePosted float64) string {
	return TextWithAttributes(AttributesForNewPost(dateTimePosted)) + body
}
