package resilience

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/sells-group/placeresolve/pkg/webdriver"
)

// IsTransient returns true if the error (or any error in its chain) looks
// like a temporary connection problem worth retrying: network timeouts,
// connection resets, or WebDriver remote ends that answered but were not
// ready to serve.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// A remote end that responds with a server-side error may still come up;
	// "session not created" typically means the browser binary is mid-start.
	var pe *webdriver.ProtocolError
	if errors.As(err, &pe) {
		if pe.Status >= http.StatusInternalServerError {
			return true
		}
		return pe.Code == "session not created" || pe.Code == "timeout"
	}

	// Heuristics for errors wrapped by HTTP transports.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"i/o timeout",
		"tls handshake timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
