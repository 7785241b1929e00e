// Package ingest reads saved-places exports into place records. Three input
// shapes are supported: Google Maps takeout CSV, GeoJSON feature collections,
// and point shapefiles. The format is chosen by file extension, defaulting
// to GeoJSON.
package ingest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/placeresolve/internal/place"
)

// Read parses the input file into ordered place records. Record indexes are
// assigned from input position and identify records for the rest of the run.
func Read(path string) ([]*place.Record, error) {
	var (
		records []*place.Record
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSVFile(path)
	case ".shp":
		records, err = readShapefile(path)
	default:
		records, err = readGeoJSONFile(path)
	}
	if err != nil {
		return nil, err
	}

	var pending int
	for _, r := range records {
		if r.NeedsLookup() {
			pending++
		}
	}
	zap.L().Info("input parsed",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.Int("unresolved", pending),
	)
	return records, nil
}

func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	return f, nil
}
