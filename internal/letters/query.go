package letters

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bryan-buckman/recallfinder/internal/model"
)

// SortOrder selects how manufacturers are listed.
type SortOrder string

const (
	SortByDate SortOrder = "date"
	SortByName SortOrder = "name"
)

// ParseSortOrder maps a query value to a SortOrder. Only "date" selects date
// ordering; anything else sorts by name.
func ParseSortOrder(v string) SortOrder {
	if v == string(SortByDate) {
		return SortByDate
	}
	return SortByName
}

// ManufacturerListing holds one of the two manufacturer views. ByDate is set
// when SortedBy is SortByDate, ByName otherwise.
type ManufacturerListing struct {
	SortedBy SortOrder
	ByDate   []model.Manufacturer
	ByName   []string
}

// Len returns the number of manufacturers listed.
func (l *ManufacturerListing) Len() int {
	if l.SortedBy == SortByDate {
		return len(l.ByDate)
	}
	return len(l.ByName)
}

// ListManufacturers builds the manufacturer view for table. Date ordering
// needs a letterdate column and falls back to name ordering without one.
func ListManufacturers(table *model.Table, order SortOrder) *ManufacturerListing {
	if order == SortByDate && table.HasColumn(model.ColumnLetterDate) {
		return &ManufacturerListing{SortedBy: SortByDate, ByDate: manufacturersByDate(table)}
	}
	return &ManufacturerListing{SortedBy: SortByName, ByName: manufacturersByName(table)}
}

// manufacturersByName returns distinct non-blank names in byte order.
func manufacturersByName(table *model.Table) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, row := range table.Rows {
		if strings.TrimSpace(row.Manufacturer) == "" {
			continue
		}
		if _, ok := seen[row.Manufacturer]; ok {
			continue
		}
		seen[row.Manufacturer] = struct{}{}
		names = append(names, row.Manufacturer)
	}
	slices.Sort(names)
	return names
}

// manufacturersByDate orders manufacturers by their most recent letter,
// newest first. Manufacturers without a parseable date go last; ties keep
// name order.
func manufacturersByDate(table *model.Table) []model.Manufacturer {
	latest := make(map[string]time.Time)
	for _, row := range table.Rows {
		if strings.TrimSpace(row.Manufacturer) == "" {
			continue
		}
		cur, ok := latest[row.Manufacturer]
		if !ok || row.Date.After(cur) {
			latest[row.Manufacturer] = row.Date
		}
	}

	names := make([]string, 0, len(latest))
	for name := range latest {
		names = append(names, name)
	}
	slices.Sort(names)
	slices.SortStableFunc(names, func(a, b string) int {
		return compareDatesDesc(latest[a], latest[b])
	})

	out := make([]model.Manufacturer, 0, len(names))
	for _, name := range names {
		m := model.Manufacturer{Name: name, LatestDate: model.NoDate}
		if d := latest[name]; !d.IsZero() {
			m.LatestDate = d.Format("2006-01-02")
		}
		out = append(out, m)
	}
	return out
}

// ListVersions returns one entry per (manufacturer, document name) among the
// selected manufacturers, newest first, then by manufacturer and name.
func ListVersions(table *model.Table, manufacturers []string) []model.Version {
	selected := make(map[string]struct{}, len(manufacturers))
	for _, m := range manufacturers {
		selected[m] = struct{}{}
	}

	type key struct{ manufacturer, name string }
	seen := make(map[key]struct{})
	rows := make([]model.Letter, 0)
	for _, row := range table.Rows {
		if _, ok := selected[row.Manufacturer]; !ok {
			continue
		}
		k := key{row.Manufacturer, row.Name}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, row)
	}

	slices.SortStableFunc(rows, func(a, b model.Letter) int {
		if c := compareDatesDesc(a.Date, b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Manufacturer, b.Manufacturer); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	versions := make([]model.Version, 0, len(rows))
	for _, row := range rows {
		date := row.LetterDate
		if date == "" {
			date = model.NoDate
		}
		versions = append(versions, model.Version{
			Manufacturer: row.Manufacturer,
			Name:         row.Name,
			Date:         row.LetterDate,
			Display:      fmt.Sprintf("%s - %s (%s)", row.Manufacturer, row.Name, date),
		})
	}
	return versions
}

// FindLetter matches manufacturer and version exactly, falling back to a
// case-insensitive match only when the exact match finds nothing.
func FindLetter(table *model.Table, manufacturer, version string) (model.Letter, error) {
	letter, ok := findFirst(table.Rows, func(l model.Letter) bool {
		return l.Manufacturer == manufacturer && l.Name == version
	})
	if !ok {
		lm, lv := strings.ToLower(manufacturer), strings.ToLower(version)
		letter, ok = findFirst(table.Rows, func(l model.Letter) bool {
			return strings.ToLower(l.Manufacturer) == lm && strings.ToLower(l.Name) == lv
		})
	}
	if !ok {
		return model.Letter{}, &NotFoundError{Manufacturer: manufacturer, Version: version}
	}
	if !table.HasColumn(model.ColumnURL) || strings.TrimSpace(letter.URL) == "" {
		return model.Letter{}, ErrURLMissing
	}
	return letter, nil
}

func findFirst(rows []model.Letter, match func(model.Letter) bool) (model.Letter, bool) {
	for _, row := range rows {
		if match(row) {
			return row, true
		}
	}
	return model.Letter{}, false
}

// compareDatesDesc orders later dates first and zero dates last.
func compareDatesDesc(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	default:
		return b.Compare(a)
	}
}
