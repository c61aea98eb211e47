// File: transport/pool/roundtripper.go
package pool

import (
	"crypto/tls"
	"errors"
	"net/http"
)

// countingRoundTripper wraps a transport to track in-flight requests
// (for the adaptive scale loop) and TLS-specific failures (counted
// separately from ordinary request errors and reported through
// HostPool.Stats, since a run of TLS failures usually means a
// misconfigured host rather than transient overload).
type countingRoundTripper struct {
	next http.RoundTripper
	hp   *HostPool
}

func (c *countingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	c.hp.inFlight.Add(1)
	defer c.hp.inFlight.Add(-1)

	resp, err := c.next.RoundTrip(req)
	if err != nil && isTLSFailure(err) {
		c.hp.tlsFailures.Add(1)
	}
	return resp, err
}

func isTLSFailure(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var recordErr tls.RecordHeaderError
	return errors.As(err, &recordErr)
}
