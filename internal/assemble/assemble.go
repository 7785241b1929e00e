// Package assemble merges lookup outcomes back into place records and
// serializes the full set as a GeoJSON feature collection.
package assemble

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/placeresolve/internal/place"
	"github.com/sells-group/placeresolve/internal/resolve"
)

// propFailure flags records that exhausted their lookups, so a later run can
// pick out just the unresolved subset.
const propFailure = "resolution_error"

// Merge writes each outcome into its originating record, exactly once,
// keyed by record index. Records without an outcome are left untouched.
// Input order is never disturbed.
func Merge(records []*place.Record, outcomes map[int]resolve.Outcome) {
	for _, rec := range records {
		o, ok := outcomes[rec.Index]
		if !ok {
			continue
		}
		if o.Err != nil {
			rec.Status = place.StatusFailed
			rec.FailReason = string(resolve.KindOf(o.Err))
			continue
		}
		coords := o.Coords
		rec.Coords = &coords
		rec.Status = place.StatusResolved
		rec.FromLookup = true
	}
}

// FeatureCollection builds the output collection: one feature per record, in
// input order, geometry present only where coordinates exist. Failed records
// are flagged, never dropped. With onlyChanged set, only records whose
// coordinates were newly resolved are emitted.
func FeatureCollection(records []*place.Record, onlyChanged bool) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(records))}
	for _, rec := range records {
		if onlyChanged && !rec.FromLookup {
			continue
		}
		fc.Features = append(fc.Features, toFeature(rec))
	}
	return fc
}

func toFeature(rec *place.Record) *geojson.Feature {
	props := make(map[string]any, len(rec.Props)+4)
	for k, v := range rec.Props {
		props[k] = v
	}
	if rec.Name != "" {
		props["name"] = rec.Name
	}
	if rec.Locator != "" {
		props["google_maps_url"] = rec.Locator
	}
	if rec.Note != "" {
		props["note"] = rec.Note
	}
	if rec.Comment != "" {
		props["comment"] = rec.Comment
	}
	if rec.Status == place.StatusFailed {
		props[propFailure] = rec.FailReason
	}

	var g geom.T
	switch {
	case rec.Geometry != nil:
		g = rec.Geometry
	case rec.Coords != nil:
		g = geom.NewPointFlat(geom.XY, []float64{rec.Coords.Lon, rec.Coords.Lat})
	}

	return &geojson.Feature{Geometry: g, Properties: props}
}

// Write serializes the collection as GeoJSON.
func Write(w io.Writer, fc *geojson.FeatureCollection) error {
	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "assemble: marshal feature collection")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "assemble: write output")
	}
	return nil
}

// WriteFile writes the collection to path, creating or truncating it.
func WriteFile(path string, fc *geojson.FeatureCollection) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "assemble: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := Write(f, fc); err != nil {
		return err
	}
	zap.L().Info("output written",
		zap.String("path", path),
		zap.Int("features", len(fc.Features)),
	)
	return f.Close()
}

// CheckWritable verifies the output path can be opened for writing, without
// truncating an existing file. Lookups burn minutes of wall clock; finding
// out the output path is bad after that is too late.
func CheckWritable(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "assemble: output %s not writable", path)
	}
	return f.Close()
}
