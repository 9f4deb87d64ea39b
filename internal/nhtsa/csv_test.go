package nhtsa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLettersEmptyBody(t *testing.T) {
	columns, rows, err := parseLetters(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, columns)
	require.Empty(t, rows)
}

func TestParseLettersHeaderOnly(t *testing.T) {
	columns, rows, err := parseLetters(strings.NewReader(csvHeader))
	require.NoError(t, err)
	require.Contains(t, columns, "manufacturername")
	require.Empty(t, rows)
}

func TestParseLettersQuotedFieldsAndMixedCaseHeader(t *testing.T) {
	body := "ManufacturerName,Name,LetterDate,URL\n" +
		"\"Acme, Inc.\",\"Part 573 \"\"Q1\"\"\",garbage,https://x/1.pdf\n" +
		",,,\n" +
		"Beta,Doc,2021-05-06,\n"
	columns, rows, err := parseLetters(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, []string{"manufacturername", "name", "letterdate", "url"}, columns)
	require.Len(t, rows, 2)

	require.Equal(t, "Acme, Inc.", rows[0].Manufacturer)
	require.Equal(t, `Part 573 "Q1"`, rows[0].Name)
	require.False(t, rows[0].HasDate())
	require.Equal(t, "garbage", rows[0].LetterDate)

	require.Equal(t, "Beta", rows[1].Manufacturer)
	require.True(t, rows[1].HasDate())
	require.Equal(t, "", rows[1].URL)
}

func TestParseLettersShortRecord(t *testing.T) {
	body := "manufacturername,name,url\nAcme\n"
	_, rows, err := parseLetters(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Acme", rows[0].Manufacturer)
	require.Equal(t, "", rows[0].URL)
}
