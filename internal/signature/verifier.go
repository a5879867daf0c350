// Package signature verifies inbound webhook signatures against per-tenant
// shared secrets with a bounded replay window.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Errors returned by Verify. A stale timestamp and a mismatched signature
// both surface as ErrUnauthorized so the response does not act as an oracle
// for which check failed.
var (
	ErrUnknownTenant = errors.New("no signing key registered for tenant")
	ErrUnauthorized  = errors.New("signature verification failed")
)

// ReplayWindow is the maximum allowed skew between a request's signed
// timestamp and verification time.
const ReplayWindow = 60 * time.Second

// KeyMap maps a tenant (community) identifier to its shared secret. It is
// loaded once at startup and never mutated, so unsynchronized concurrent
// reads are safe.
type KeyMap map[string][]byte

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.now = now
	}
}

// WithReplayWindow overrides the default replay window.
func WithReplayWindow(window time.Duration) VerifierOption {
	return func(v *Verifier) {
		v.window = window
	}
}

// Verifier validates webhook signatures of the form
// "t=<timestamp>,v1=<base64 HMAC-SHA256>". The signed payload is the literal
// string "<timestamp>.<raw body>", keyed by the tenant's secret.
type Verifier struct {
	keys   KeyMap
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// New creates a verifier. An empty key map puts the verifier in insecure
// mode: every request is accepted and a warning is logged once at
// construction. This is a deliberate fallback for environments without key
// provisioning.
func New(keys KeyMap, logger *slog.Logger, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		keys:   keys,
		window: ReplayWindow,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	if len(v.keys) == 0 {
		v.logger.Warn("no signing keys configured, webhook signature verification disabled")
	}
	return v
}

// Verify checks the signature header against the raw, unparsed body bytes.
// The raw bytes must be used because re-serializing the parsed event is not
// guaranteed to be byte-identical to the original transmission.
func (v *Verifier) Verify(rawBody []byte, header string, tenantID string) error {
	if len(v.keys) == 0 {
		v.logger.Warn("accepting unverified webhook in insecure mode",
			slog.String("tenant", tenantID),
		)
		return nil
	}

	key, ok := v.keys[tenantID]
	if !ok {
		return ErrUnknownTenant
	}

	ts, supplied, err := parseHeader(header)
	if err != nil {
		return ErrUnauthorized
	}

	signedAt, err := parseTimestamp(ts)
	if err != nil {
		return ErrUnauthorized
	}

	skew := v.now().Sub(signedAt)
	if skew < 0 {
		skew = -skew
	}
	if skew >= v.window {
		return ErrUnauthorized
	}

	expected := Compute(key, ts, rawBody)
	if !hmac.Equal([]byte(expected), []byte(supplied)) {
		return ErrUnauthorized
	}
	return nil
}

// Compute returns the base64 HMAC-SHA256 signature of "<timestamp>.<body>"
// under key. It is exported so senders and tests can produce signatures with
// the exact same construction the verifier checks.
func Compute(key []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// parseHeader splits "t=<timestamp>,v1=<signature>" into its parts. Both
// fields are required; unknown fields are ignored.
func parseHeader(header string) (timestamp, sig string, err error) {
	for _, part := range strings.Split(header, ",") {
		k, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			timestamp = val
		case "v1":
			sig = val
		}
	}
	if timestamp == "" || sig == "" {
		return "", "", errors.New("missing t or v1 field")
	}
	return timestamp, sig, nil
}

// parseTimestamp accepts either unix milliseconds or an RFC 3339 timestamp.
func parseTimestamp(ts string) (time.Time, error) {
	if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	return time.Parse(time.RFC3339, ts)
}
