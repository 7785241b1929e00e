package ingest

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/placeresolve/internal/place"
)

// Google Maps takeout CSVs carry these columns. Matching is
// case-insensitive; unknown columns are ignored.
const (
	colTitle   = "title"
	colNote    = "note"
	colURL     = "url"
	colComment = "comment"
)

func readCSVFile(path string) ([]*place.Record, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	return ReadCSV(f)
}

// ReadCSV parses a takeout CSV. Rows become unresolved records: takeout CSVs
// never contain coordinates, only a URL (or just a title) per place.
func ReadCSV(r io.Reader) ([]*place.Record, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1 // takeout rows occasionally drop trailing columns

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("ingest: empty csv")
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv header")
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols[colTitle]; !ok {
		return nil, eris.Errorf("ingest: csv header missing %q column", colTitle)
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []*place.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read csv row %d", len(records)+2)
		}

		records = append(records, &place.Record{
			Index:   len(records),
			Name:    field(row, colTitle),
			Note:    field(row, colNote),
			Locator: field(row, colURL),
			Comment: field(row, colComment),
			Status:  place.StatusUnresolved,
		})
	}

	return records, nil
}
