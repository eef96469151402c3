package archive

import (
	"sort"

	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
)

// MonthGroup holds one month's photos within a year.
type MonthGroup struct {
	Name   string         `json:"name"`
	Photos []model.Record `json:"photos"`
}

// YearGroup holds one calendar year's months. Months appear in the order they
// were first encountered in the input, not calendar order; with the usual
// newest-first input that yields most-recent-month-first.
type YearGroup struct {
	Year   string       `json:"year"`
	Months []MonthGroup `json:"months"`
}

// GroupByDate buckets photos by calendar year and English month name of their
// creation timestamp. Photos with a zero timestamp are silently excluded.
// Years are returned descending; within a year, months keep input encounter
// order.
func GroupByDate(photos []model.Record) []YearGroup {
	type yearBucket struct {
		months     []MonthGroup
		monthIndex map[string]int
	}

	buckets := make(map[string]*yearBucket)
	var years []string

	for _, photo := range photos {
		if photo.CreatedAt.IsZero() {
			continue
		}

		year := photo.CreatedAt.Format("2006")
		month := photo.CreatedAt.Month().String()

		bucket, ok := buckets[year]
		if !ok {
			bucket = &yearBucket{monthIndex: make(map[string]int)}
			buckets[year] = bucket
			years = append(years, year)
		}

		idx, ok := bucket.monthIndex[month]
		if !ok {
			idx = len(bucket.months)
			bucket.monthIndex[month] = idx
			bucket.months = append(bucket.months, MonthGroup{Name: month})
		}
		bucket.months[idx].Photos = append(bucket.months[idx].Photos, photo)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(years)))

	groups := make([]YearGroup, 0, len(years))
	for _, year := range years {
		groups = append(groups, YearGroup{Year: year, Months: buckets[year].months})
	}
	return groups
}
