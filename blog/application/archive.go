package application

import (
	"sort"
	"time"

	"github.com/dfryer1193/flatblog/blog/domain"
)

// ArchiveMonth is one month entry in the archive listing.
type ArchiveMonth struct {
	Month time.Month
	Name  string
}

// ArchiveYear is a year of the archive with its months, newest first.
type ArchiveYear struct {
	Year   int
	Months []ArchiveMonth
}

// SortArchive orders blog years newest first, and each year's months newest
// first.
func SortArchive(years []*domain.BlogYear) []ArchiveYear {
	out := make([]ArchiveYear, 0, len(years))
	for _, y := range years {
		months := make([]ArchiveMonth, 0, len(y.Months))
		for m := range y.Months {
			months = append(months, ArchiveMonth{Month: m, Name: m.String()})
		}
		sort.Slice(months, func(i, j int) bool { return months[i].Month > months[j].Month })
		out = append(out, ArchiveYear{Year: y.Year, Months: months})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out
}
