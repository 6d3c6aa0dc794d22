package classify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAuth(t *testing.T) {
	cases := []string{
		"Non-200 status code (401)",
		"request failed: HTTP 401",
		"server returned Unauthorized",
	}
	for _, msg := range cases {
		r := Classify(errors.New(msg))
		assert.Equal(t, KindAuth, r.Kind, msg)
		assert.Equal(t, 401, r.StatusCode, msg)
	}
}

func TestClassifyOffline(t *testing.T) {
	cases := []string{
		"dial tcp: connect: ECONNREFUSED",
		"lookup example.com: ENOTFOUND",
		"lookup example.com: EAI_AGAIN",
		"fetch failed",
	}
	for _, msg := range cases {
		r := Classify(errors.New(msg))
		assert.Equal(t, KindOffline, r.Kind, msg)
	}
}

func TestClassifyHTTP(t *testing.T) {
	r := Classify(errors.New("request failed with status 503"))
	assert.Equal(t, KindHTTP, r.Kind)
	assert.Equal(t, 503, r.StatusCode)
}

func TestClassifyOther(t *testing.T) {
	r := Classify(errors.New("tool not found: frobnicate"))
	assert.Equal(t, KindOther, r.Kind)
	assert.Zero(t, r.StatusCode)
}

type statusCodeErr struct{ code int }

func (e statusCodeErr) Error() string  { return "boom" }
func (e statusCodeErr) StatusCode() int { return e.code }

func TestClassifyStatusCoder(t *testing.T) {
	assert.Equal(t, KindAuth, Classify(statusCodeErr{401}).Kind)
	assert.Equal(t, KindHTTP, Classify(statusCodeErr{500}).Kind)
}

func TestIsAuth(t *testing.T) {
	assert.True(t, IsAuth(errors.New("HTTP 401")))
	assert.False(t, IsAuth(errors.New("HTTP 500")))
}

func TestClassifyAuthExtractsChallenge(t *testing.T) {
	err := errors.New(`request failed: HTTP 401 Bearer realm="https://auth.example.com", scope="mcp.read"`)
	r := Classify(err)
	require.NotNil(t, r.Challenge)
	assert.Equal(t, "https://auth.example.com", r.Challenge.GetIssuer())
	assert.Equal(t, "mcp.read", r.Challenge.Scope)
}

func TestClassifyAuthWithNoBearerParamsYieldsBareChallenge(t *testing.T) {
	r := Classify(errors.New("server returned Unauthorized"))
	require.NotNil(t, r.Challenge)
	assert.Empty(t, r.Challenge.GetIssuer())
}

func TestClassifyOfflineHasNoChallenge(t *testing.T) {
	r := Classify(errors.New("dial tcp: connect: ECONNREFUSED"))
	assert.Nil(t, r.Challenge)
}
