package models

import (
	"fmt"
	"time"
)

type DateKind uint8

const (
	DateUnset DateKind = iota
	DateExact
	DateYear
	DateNote
)

// LifeDate is one of an exact date, a bare year or a free-text note.
// The zero value is unset.
type LifeDate struct {
	kind  DateKind
	exact time.Time
	year  int
	note  string
}

func ExactDate(t time.Time) LifeDate {
	y, m, d := t.Date()
	return LifeDate{kind: DateExact, exact: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func YearOnly(year int) LifeDate {
	return LifeDate{kind: DateYear, year: year}
}

func DateNoteOf(note string) LifeDate {
	if note == "" {
		return LifeDate{}
	}
	return LifeDate{kind: DateNote, note: note}
}

func (d LifeDate) Kind() DateKind { return d.kind }
func (d LifeDate) IsSet() bool    { return d.kind != DateUnset }

// Exact returns the date when the kind is DateExact.
func (d LifeDate) Exact() (time.Time, bool) {
	return d.exact, d.kind == DateExact
}

func (d LifeDate) Year() (int, bool) {
	return d.year, d.kind == DateYear
}

func (d LifeDate) Note() (string, bool) {
	return d.note, d.kind == DateNote
}

// Columns splits the variant into the three nullable storage columns.
func (d LifeDate) Columns() (exact *time.Time, year *int, note *string) {
	switch d.kind {
	case DateExact:
		t := d.exact
		exact = &t
	case DateYear:
		y := d.year
		year = &y
	case DateNote:
		n := d.note
		note = &n
	}
	return exact, year, note
}

// LifeDateFromColumns rebuilds the variant from storage columns. More than one
// populated column means the row violates the schema constraint.
func LifeDateFromColumns(exact *time.Time, year *int, note *string) (LifeDate, error) {
	set := 0
	var d LifeDate
	if exact != nil {
		set++
		d = ExactDate(*exact)
	}
	if year != nil {
		set++
		d = YearOnly(*year)
	}
	if note != nil {
		set++
		d = DateNoteOf(*note)
	}
	if set > 1 {
		return LifeDate{}, fmt.Errorf("life date has %d representations, want at most one", set)
	}
	return d, nil
}

const dateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or RFC3339.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
