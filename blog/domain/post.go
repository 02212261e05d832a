package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DateTimePostedKey is the one attribute every post must carry.
const DateTimePostedKey = "date_time_posted"

// Post represents a blog post read from a single file on disk.
// A post is a block of @key value attributes followed by a free-form body.
// Posts are immutable once built.
type Post struct {
	ID             string
	DateTimePosted float64
	Attributes     *Attributes
	Body           string
	SourcePath     string
}

// PostedAt converts DateTimePosted to a time in loc.
func (p *Post) PostedAt(loc *time.Location) time.Time {
	return TimeOf(p.DateTimePosted, loc)
}

// Title returns the "title" attribute when it is a string.
func (p *Post) Title() (string, bool) {
	v, ok := p.Attributes.Get("title")
	if !ok {
		return "", false
	}
	return v.AsString()
}

// PostIDFor maps a timestamp to its post id: the timestamp's text form with
// '.' replaced by '_', e.g. 1480104816.829768 -> "1480104816_829768".
func PostIDFor(dateTimePosted float64) string {
	return strings.ReplaceAll(FormatTimestamp(dateTimePosted), ".", "_")
}

// FormatTimestamp renders a fractional-second timestamp in its shortest
// decimal form, always with a fractional part ("1480104816.0").
func FormatTimestamp(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}

// TimeOf converts fractional seconds since the epoch to a time in loc.
// A nil loc means time.Local.
func TimeOf(seconds float64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))).In(loc)
}

// TimestampOf is the inverse of TimeOf at microsecond precision.
func TimestampOf(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}

// BlogYear lists the months of one year that have at least one post.
type BlogYear struct {
	Year   int
	Months map[time.Month]struct{}
}

func NewBlogYear(year int) *BlogYear {
	return &BlogYear{Year: year, Months: make(map[time.Month]struct{})}
}

func (y *BlogYear) AddMonth(m time.Month) {
	y.Months[m] = struct{}{}
}

func (y *BlogYear) HasMonth(m time.Month) bool {
	_, ok := y.Months[m]
	return ok
}
