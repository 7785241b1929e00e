package ingest

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/placeresolve/internal/place"
)

// readShapefile loads point features from a shapefile. Shapefile points
// always carry coordinates, so records pass through resolved unless they sit
// at null island with a name attribute to search for.
func readShapefile(path string) ([]*place.Record, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", path)
	}
	defer reader.Close() //nolint:errcheck

	nameIdx := fieldIndex(reader, "NAME")

	var records []*place.Record
	for reader.Next() {
		_, shape := reader.Shape()
		pt, ok := shape.(*shp.Point)
		if !ok {
			continue
		}

		rec := &place.Record{
			Index:  len(records),
			Status: place.StatusResolved,
		}
		if nameIdx >= 0 {
			rec.Name = strings.TrimSpace(reader.Attribute(nameIdx))
		}

		coords := place.Coordinates{Lat: pt.Y, Lon: pt.X}
		if coords.IsNullIsland() && rec.Name != "" {
			rec.Status = place.StatusUnresolved
		} else {
			rec.Coords = &coords
		}
		records = append(records, rec)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrap(err, "ingest: iterate shapefile")
	}

	return records, nil
}

// fieldIndex returns the index of a named attribute field, or -1.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}
