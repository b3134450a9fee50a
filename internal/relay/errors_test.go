package relay

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{ErrInvalidRequest("x").(*Error), http.StatusBadRequest},
		{ErrConfiguration("x").(*Error), http.StatusInternalServerError},
		{errUpstreamStatus(http.StatusUnauthorized), http.StatusUnauthorized},
		{errUpstreamStatus(http.StatusBadGateway), http.StatusBadGateway},
		{errUpstreamStatus(302), http.StatusBadGateway},
		{errRateLimited(0), http.StatusServiceUnavailable},
		{errTimeout(nil), http.StatusGatewayTimeout},
		{errInvalidUpstream(nil), http.StatusInternalServerError},
		{errExhausted(3, nil), http.StatusServiceUnavailable},
		{errUnknown(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equalf(t, c.want, c.err.StatusCode(), "kind=%s", c.err.Kind)
	}
}

func TestKindOf_UnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", errTimeout(nil))
	assert.Equal(t, KindTimeout, KindOf(wrapped))
	assert.True(t, IsTimeout(wrapped))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.True(t, IsInvalidRequest(ErrInvalidRequest("empty")))
}

func TestError_MessageDoesNotIncludeCause(t *testing.T) {
	e := errUnknown(errors.New("secret internal detail"))
	assert.NotContains(t, e.Message, "secret")
	assert.Contains(t, e.Error(), "secret internal detail")
	assert.ErrorIs(t, e, e.Err)
}
