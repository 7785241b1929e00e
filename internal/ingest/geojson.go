package ingest

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/placeresolve/internal/place"
)

// propName and propURL are the takeout GeoJSON properties the resolver
// understands. Everything else is carried through untouched.
const (
	propName = "name"
	propURL  = "google_maps_url"
)

func readGeoJSONFile(path string) ([]*place.Record, error) {
	f, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	return ReadGeoJSON(f)
}

// ReadGeoJSON parses a FeatureCollection. Point features parked at null
// island are takeout's way of saying "coordinates unknown"; those become
// unresolved records when they carry a maps URL or at least a name to search
// for. Everything else passes through as already resolved.
func ReadGeoJSON(r io.Reader) ([]*place.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read geojson")
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "ingest: parse geojson")
	}

	records := make([]*place.Record, 0, len(fc.Features))
	for i, feat := range fc.Features {
		rec := &place.Record{
			Index:  i,
			Props:  feat.Properties,
			Status: place.StatusResolved,
		}
		if s, ok := feat.Properties[propName].(string); ok {
			rec.Name = s
		}
		if s, ok := feat.Properties[propURL].(string); ok {
			rec.Locator = s
		}

		pt, isPoint := feat.Geometry.(*geom.Point)
		if !isPoint {
			rec.Geometry = feat.Geometry
			records = append(records, rec)
			continue
		}

		coords := place.Coordinates{Lat: pt.Y(), Lon: pt.X()}
		if coords.IsNullIsland() && (rec.Locator != "" || rec.Name != "") {
			rec.Status = place.StatusUnresolved
		} else {
			rec.Coords = &coords
		}
		records = append(records, rec)
	}

	return records, nil
}
