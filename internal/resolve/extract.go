package resolve

import (
	"regexp"
	"strconv"

	"github.com/sells-group/placeresolve/internal/place"
)

// coordPair matches a "lat,lng" pair such as "-25.0,160.0".
const coordPair = `(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`

var (
	// queryCoordsRe matches URLs that already carry coordinates in their
	// query, e.g. "?q=48.8584,2.2945". The map stays uncentered for these,
	// so the answer must come straight from the URL.
	queryCoordsRe = regexp.MustCompile("q=" + coordPair)

	// viewCoordsRe matches the view-center marker the map service writes
	// into its URL once geocoding completes, e.g. "@48.8584,2.2945,17z".
	viewCoordsRe = regexp.MustCompile("@" + coordPair)
)

// coordsIn extracts the first valid coordinate pair matched by re in text.
func coordsIn(re *regexp.Regexp, text string) (place.Coordinates, bool) {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		lat, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		c := place.Coordinates{Lat: lat, Lon: lon}
		if c.Valid() {
			return c, true
		}
	}
	return place.Coordinates{}, false
}

// QueryCoords extracts coordinates embedded in a lookup URL's query string.
// Such lookups need no browser session at all.
func QueryCoords(url string) (place.Coordinates, bool) {
	return coordsIn(queryCoordsRe, url)
}
