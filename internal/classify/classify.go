// Package classify maps a raw transport or connect error to one of a small
// set of kinds so that callers can make retry and promotion decisions without
// re-deriving string-matching rules of their own.
package classify

import (
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"

	"mcporter/pkg/oauth"
)

// Kind is the classification of a failure.
type Kind string

const (
	KindAuth    Kind = "auth"
	KindOffline Kind = "offline"
	KindHTTP    Kind = "http"
	KindOther   Kind = "other"
)

// Result is the outcome of classifying an error.
type Result struct {
	Kind       Kind
	StatusCode int // 0 when no status code could be extracted
	RawMessage string

	// Challenge holds the WWW-Authenticate challenge extracted from the
	// error text, when Kind is KindAuth. When the text shows a 401 or
	// "Unauthorized" but carries no Bearer parameters, it is a bare Bearer
	// challenge with no issuer. Nil when the error text itself shows neither
	// (e.g. a StatusCoder error reporting 401 with an unrelated message).
	Challenge *oauth.AuthChallenge
}

// StatusCoder is implemented by errors that carry an HTTP status code
// directly, sparing classification from string matching.
type StatusCoder interface {
	StatusCode() int
}

var statusCodeRe = regexp.MustCompile(`\b([1-5]\d{2})\b`)

var offlineMarkers = []string{
	"ECONNREFUSED",
	"ENOTFOUND",
	"EAI_AGAIN",
	"fetch failed",
}

var authMarkers = []string{
	"non-200 status code (401)",
	"http 401",
	"unauthorized",
}

// Classify inspects err and returns its kind, an extracted status code when
// one is present, and the raw message that drove the decision. A nil error
// classifies as KindOther with an empty message; callers should not call
// Classify on a nil error in practice.
func Classify(err error) Result {
	if err == nil {
		return Result{Kind: KindOther}
	}

	raw := err.Error()
	lower := strings.ToLower(raw)

	var coder StatusCoder
	if errors.As(err, &coder) {
		if coder.StatusCode() == 401 {
			return Result{Kind: KindAuth, StatusCode: 401, RawMessage: raw, Challenge: oauth.ParseWWWAuthenticateFromError(err)}
		}
		if code := coder.StatusCode(); code >= 100 && code <= 599 {
			return Result{Kind: KindHTTP, StatusCode: code, RawMessage: raw}
		}
	}

	for _, marker := range authMarkers {
		if strings.Contains(lower, marker) {
			return Result{Kind: KindAuth, StatusCode: 401, RawMessage: raw, Challenge: oauth.ParseWWWAuthenticateFromError(err)}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Result{Kind: KindOffline, RawMessage: raw}
	}
	for _, marker := range offlineMarkers {
		if strings.Contains(raw, marker) {
			return Result{Kind: KindOffline, RawMessage: raw}
		}
	}

	if match := statusCodeRe.FindStringSubmatch(raw); match != nil {
		code, convErr := strconv.Atoi(match[1])
		if convErr == nil && code != 401 {
			return Result{Kind: KindHTTP, StatusCode: code, RawMessage: raw}
		}
	}

	return Result{Kind: KindOther, RawMessage: raw}
}

// IsAuth is a convenience predicate used at promotion and retry sites.
func IsAuth(err error) bool {
	return Classify(err).Kind == KindAuth
}
