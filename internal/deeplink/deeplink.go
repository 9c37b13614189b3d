// Package deeplink validates the inbound trigger URIs that open the routine
// check-in flow.
package deeplink

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

// The only deep link this engine responds to. Extra path segments or query
// parameters are ignored; any other scheme or host is a no-op for callers.
const (
	Scheme = "medeasy"
	Host   = "openroutine"
)

// ErrInvalidTrigger indicates a URI that is not a routine trigger. Callers
// log it and drop the event; it never propagates further.
var ErrInvalidTrigger = errors.New("not a routine trigger link")

// Parse validates a trigger URI and returns its signature: the raw URI
// string, used downstream to detect duplicate activations.
func Parse(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTrigger, err)
	}
	if u.Scheme != Scheme || u.Host != Host {
		slog.Debug("deeplink.Parse: ignoring non-trigger URI", "scheme", u.Scheme, "host", u.Host)
		return "", fmt.Errorf("%w: %s://%s", ErrInvalidTrigger, u.Scheme, u.Host)
	}
	return rawURI, nil
}
