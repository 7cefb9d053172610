// Package mediaurl decides when a vendor-signed media URL must be renewed.
// Signed URLs carry their expiry as a unix timestamp in the Expires query
// parameter.
package mediaurl

import (
	"net/url"
	"strconv"
	"time"
)

const (
	// ExpiryBuffer is how long before the embedded expiry a URL is already
	// treated as expired.
	ExpiryBuffer = 24 * time.Hour
	// RefreshInterval is the age after which a URL is renewed even if it has
	// not expired.
	RefreshInterval = 6 * 24 * time.Hour

	expiresParam = "Expires"
)

// ExpiresAt returns the embedded expiry. ok is false when the URL cannot be
// parsed or carries no usable Expires parameter.
func ExpiresAt(rawURL string) (t time.Time, ok bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return time.Time{}, false
	}
	v := u.Query().Get(expiresParam)
	if v == "" {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}

// IsExpired reports whether less than ExpiryBuffer remains before the URL's
// embedded expiry. A URL without an expiry is always expired.
func IsExpired(rawURL string, now time.Time) bool {
	expires, ok := ExpiresAt(rawURL)
	if !ok {
		return true
	}
	return expires.Sub(now) < ExpiryBuffer
}

// RefreshDue reports whether the URL should be renewed: it is expired, or
// RefreshInterval has elapsed since lastRefresh. A zero lastRefresh is due.
func RefreshDue(rawURL string, lastRefresh time.Time, now time.Time) bool {
	if IsExpired(rawURL, now) {
		return true
	}
	if lastRefresh.IsZero() {
		return true
	}
	return now.Sub(lastRefresh) >= RefreshInterval
}
