package resolve

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/placeresolve/internal/place"
	"github.com/sells-group/placeresolve/pkg/webdriver"
)

// Resolver finds coordinates for a single query, blocking for the duration
// of the remote page load. The query is either a map-service URL or a
// free-text place name.
type Resolver interface {
	Resolve(ctx context.Context, query string) (place.Coordinates, error)
}

// SessionConfig tunes the URL-polling behavior of a session resolver.
type SessionConfig struct {
	// WaitWindow bounds how long one lookup may wait for the service to
	// write coordinates into its URL. Default: 10s.
	WaitWindow time.Duration

	// PollInterval is how often the current URL is re-read. Default: 100ms.
	// The dominant cost is the remote page load itself; polling faster buys
	// nothing.
	PollInterval time.Duration

	// StableAfter is how long a redirected, coordinate-free URL must sit
	// unchanged before the lookup is declared NotFound rather than still
	// loading. Default: 3s.
	StableAfter time.Duration

	// SearchBaseURL is where free-text queries are sent. Defaults to the
	// Google Maps search endpoint.
	SearchBaseURL string
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.WaitWindow <= 0 {
		c.WaitWindow = 10 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 100 * time.Millisecond
	}
	if c.StableAfter <= 0 {
		c.StableAfter = 3 * time.Second
	}
	if c.SearchBaseURL == "" {
		c.SearchBaseURL = "https://www.google.com/maps/search/"
	}
	return c
}

type sessionResolver struct {
	sess *webdriver.Session
	cfg  SessionConfig
}

// NewSessionResolver wraps an established WebDriver session as a Resolver.
func NewSessionResolver(sess *webdriver.Session, cfg SessionConfig) Resolver {
	return &sessionResolver{sess: sess, cfg: cfg.withDefaults()}
}

// Resolve navigates the session to the query and watches the browser URL
// until the map service encodes the geocoded view center into it.
func (r *sessionResolver) Resolve(ctx context.Context, query string) (place.Coordinates, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return place.Coordinates{}, notFoundErr(eris.New("empty query"))
	}

	target := query
	if !isURL(query) {
		target = r.cfg.SearchBaseURL + url.PathEscape(query)
	}

	// URLs that carry coordinates in their query never recenter the map;
	// the answer is already in hand.
	if coords, ok := QueryCoords(target); ok {
		return coords, nil
	}

	if err := r.sess.Navigate(ctx, target); err != nil {
		return place.Coordinates{}, sessionErr(eris.Wrap(err, "resolve: navigate"))
	}

	deadline := time.Now().Add(r.cfg.WaitWindow)
	prev := target
	stableSince := time.Now()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return place.Coordinates{}, sessionErr(ctx.Err())
		case <-time.After(r.cfg.PollInterval):
		}

		cur, err := r.sess.CurrentURL(ctx)
		if err != nil {
			return place.Coordinates{}, sessionErr(eris.Wrap(err, "resolve: read current url"))
		}

		if cur != prev {
			prev = cur
			stableSince = time.Now()
		}

		if cur == target {
			continue
		}

		if coords, ok := coordsIn(viewCoordsRe, cur); ok {
			return coords, nil
		}

		// The service finished redirecting somewhere without coordinates: a
		// disambiguation list or an error page.
		if time.Since(stableSince) >= r.cfg.StableAfter {
			return place.Coordinates{}, notFoundErr(eris.Errorf("no coordinates in settled url %q", cur))
		}
	}

	return place.Coordinates{}, timeoutErr(eris.Errorf("url did not surface coordinates within %s", r.cfg.WaitWindow))
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
