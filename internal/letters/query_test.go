package letters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-buckman/recallfinder/internal/model"
)

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, SortByDate, ParseSortOrder("date"))
	assert.Equal(t, SortByName, ParseSortOrder("name"))
	assert.Equal(t, SortByName, ParseSortOrder("Date"))
	assert.Equal(t, SortByName, ParseSortOrder(""))
}

func TestManufacturersByNameIsCaseSensitiveAndDistinct(t *testing.T) {
	table := fullTable(
		letter("ford", "a", "", ""),
		letter("Toyota", "a", "", ""),
		letter("BMW", "a", "", ""),
		letter("Toyota", "b", "", ""),
		letter("  ", "c", "", ""),
		letter("", "d", "", ""),
	)
	listing := ListManufacturers(table, SortByName)
	require.Equal(t, SortByName, listing.SortedBy)
	require.Equal(t, []string{"BMW", "Toyota", "ford"}, listing.ByName)
	require.Equal(t, 3, listing.Len())
}

func TestManufacturersByDateNewestFirstMissingLast(t *testing.T) {
	table := fullTable(
		letter("Acme", "a", "1/5/2020", ""),
		letter("Acme", "b", "3/1/2020", ""),
		letter("Zeta", "a", "bogus", ""),
		letter("Beta", "a", "2/1/2020", ""),
		letter("Alpha", "a", "", ""),
		letter("Gamma", "a", "2/1/2020", ""),
	)
	listing := ListManufacturers(table, SortByDate)
	require.Equal(t, SortByDate, listing.SortedBy)
	require.Equal(t, []model.Manufacturer{
		{Name: "Acme", LatestDate: "2020-03-01"},
		{Name: "Beta", LatestDate: "2020-02-01"},
		{Name: "Gamma", LatestDate: "2020-02-01"},
		{Name: "Alpha", LatestDate: model.NoDate},
		{Name: "Zeta", LatestDate: model.NoDate},
	}, listing.ByDate)
}

func TestManufacturersByDateTiesKeepNameOrder(t *testing.T) {
	table := fullTable(
		letter("Volvo", "a", "7/7/2021", ""),
		letter("Audi", "a", "7/7/2021", ""),
		letter("Mazda", "a", "7/7/2021", ""),
	)
	listing := ListManufacturers(table, SortByDate)
	names := make([]string, 0, len(listing.ByDate))
	for _, m := range listing.ByDate {
		names = append(names, m.Name)
	}
	require.Equal(t, []string{"Audi", "Mazda", "Volvo"}, names)
}

func TestManufacturersByDateIgnoresUnparseableWhenOtherDatesExist(t *testing.T) {
	table := fullTable(
		letter("Acme", "a", "garbage", ""),
		letter("Acme", "b", "4/4/2019", ""),
	)
	listing := ListManufacturers(table, SortByDate)
	require.Equal(t, "2019-04-04", listing.ByDate[0].LatestDate)
}

func TestManufacturersDateFallsBackToNameWithoutDateColumn(t *testing.T) {
	table := model.NewTable(model.ColumnManufacturerName)
	table.Rows = []model.Letter{{Manufacturer: "B"}, {Manufacturer: "A"}}

	listing := ListManufacturers(table, SortByDate)
	require.Equal(t, SortByName, listing.SortedBy)
	require.Equal(t, []string{"A", "B"}, listing.ByName)
}

func TestListVersionsFiltersDedupesAndSorts(t *testing.T) {
	table := fullTable(
		letter("Ford", "Q1 Report", "1/1/2021", "u1"),
		letter("Ford", "Q1 Report", "6/1/2021", "u2"),
		letter("Ford", "Q2 Report", "6/1/2021", "u3"),
		letter("Audi", "Z Report", "6/1/2021", "u4"),
		letter("Audi", "A Report", "6/1/2021", "u5"),
		letter("Audi", "Undated", "", "u6"),
		letter("Kia", "Other", "12/1/2021", "u7"),
	)

	versions := ListVersions(table, []string{"Ford", "Audi"})
	got := make([]string, 0, len(versions))
	for _, v := range versions {
		got = append(got, v.Manufacturer+"/"+v.Name+"/"+v.Date)
	}
	require.Equal(t, []string{
		"Audi/A Report/6/1/2021",
		"Audi/Z Report/6/1/2021",
		"Ford/Q2 Report/6/1/2021",
		"Ford/Q1 Report/1/1/2021",
		"Audi/Undated/",
	}, got)

	require.Equal(t, "Audi - A Report (6/1/2021)", versions[0].Display)
	require.Equal(t, "Audi - Undated (No date)", versions[4].Display)
}

func TestListVersionsNoMatch(t *testing.T) {
	table := fullTable(letter("Ford", "Q1", "1/1/2021", "u1"))
	require.Empty(t, ListVersions(table, []string{"ford"}))
}

func TestFindLetterPrefersExactMatch(t *testing.T) {
	table := fullTable(
		letter("FORD", "REPORT", "1/1/2021", "upper"),
		letter("Ford", "Report", "1/1/2021", "exact"),
	)
	got, err := FindLetter(table, "Ford", "Report")
	require.NoError(t, err)
	require.Equal(t, "exact", got.URL)
}

func TestFindLetterFallsBackToCaseInsensitive(t *testing.T) {
	table := fullTable(
		letter("Ford", "Other", "1/1/2021", "other"),
		letter("FORD", "REPORT", "1/1/2021", "upper"),
	)
	got, err := FindLetter(table, "ford", "report")
	require.NoError(t, err)
	require.Equal(t, "upper", got.URL)
}

func TestFindLetterNotFound(t *testing.T) {
	table := fullTable(letter("Ford", "Report", "1/1/2021", "u"))
	_, err := FindLetter(table, "Ford", "Missing")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, `Version "Missing" not found for manufacturer "Ford"`, err.Error())
}

func TestFindLetterWithoutURLColumn(t *testing.T) {
	table := model.NewTable(model.ColumnManufacturerName, model.ColumnName)
	table.Rows = []model.Letter{{Manufacturer: "Ford", Name: "Report"}}
	_, err := FindLetter(table, "Ford", "Report")
	require.ErrorIs(t, err, ErrURLMissing)
}
