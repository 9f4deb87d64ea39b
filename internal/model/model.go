// Package model defines shared data structures.
package model

import (
	"strings"
	"time"
)

// Column names as delivered in the vPIC CSV header (lower-cased).
const (
	ColumnManufacturerID   = "manufacturerid"
	ColumnManufacturerName = "manufacturername"
	ColumnName             = "name"
	ColumnLetterDate       = "letterdate"
	ColumnURL              = "url"
	ColumnType             = "type"
	ColumnModelYearFrom    = "modelyearfrom"
	ColumnModelYearTo      = "modelyearto"
)

// NoDate is shown when a manufacturer has no parseable letter date.
const NoDate = "No date"

// Letter is one manufacturer submission from the vPIC GetParts endpoint.
type Letter struct {
	ManufacturerID string
	Manufacturer   string
	Name           string // document name, shown to users as the "version"
	LetterDate     string // raw value from the API
	Date           time.Time
	URL            string
	Type           string
	ModelYearFrom  string
	ModelYearTo    string
}

// HasDate reports whether LetterDate parsed.
func (l Letter) HasDate() bool {
	return !l.Date.IsZero()
}

// Table is the result of fetching every page for one model year.
type Table struct {
	Columns map[string]struct{}
	Rows    []Letter
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) *Table {
	t := &Table{Columns: make(map[string]struct{}, len(columns))}
	t.AddColumns(columns...)
	return t
}

// AddColumns records header names; they are normalized to lower case.
func (t *Table) AddColumns(columns ...string) {
	if t.Columns == nil {
		t.Columns = make(map[string]struct{}, len(columns))
	}
	for _, c := range columns {
		t.Columns[NormalizeColumn(c)] = struct{}{}
	}
}

// HasColumn reports whether any fetched page carried the column.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.Columns[NormalizeColumn(name)]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table holds no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// NormalizeColumn trims and lower-cases a header name.
func NormalizeColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
}

// Manufacturer is one entry of the date-sorted manufacturer listing.
type Manufacturer struct {
	Name       string `json:"name"`
	LatestDate string `json:"latest_date"`
}

// Version is one selectable (manufacturer, document) pair.
type Version struct {
	Manufacturer string `json:"manufacturer"`
	Name         string `json:"name"`
	Date         string `json:"date"`
	Display      string `json:"display"`
}

var dateLayouts = []string{
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// ParseLetterDate parses the date formats vPIC is known to emit. Blank or
// unrecognised values return ok=false.
func ParseLetterDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
