package nhtsa

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/bryan-buckman/recallfinder/internal/model"
)

// parseLetters decodes one CSV page. An empty body yields no columns and no rows.
func parseLetters(r io.Reader) ([]string, []model.Letter, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	index := make(map[string]int, len(header))
	columns := make([]string, 0, len(header))
	for i, h := range header {
		name := model.NormalizeColumn(h)
		if name == "" {
			continue
		}
		if _, dup := index[name]; !dup {
			index[name] = i
		}
		columns = append(columns, name)
	}

	field := func(record []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []model.Letter
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if isBlank(record) {
			continue
		}

		letter := model.Letter{
			ManufacturerID: field(record, model.ColumnManufacturerID),
			Manufacturer:   field(record, model.ColumnManufacturerName),
			Name:           field(record, model.ColumnName),
			LetterDate:     field(record, model.ColumnLetterDate),
			URL:            field(record, model.ColumnURL),
			Type:           field(record, model.ColumnType),
			ModelYearFrom:  field(record, model.ColumnModelYearFrom),
			ModelYearTo:    field(record, model.ColumnModelYearTo),
		}
		if d, ok := model.ParseLetterDate(letter.LetterDate); ok {
			letter.Date = d
		}
		rows = append(rows, letter)
	}
	return columns, rows, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
