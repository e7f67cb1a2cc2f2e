package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "status 429", err: NewTransientError(errors.New("slow down"), 429), want: true},
		{name: "status 529", err: NewTransientError(errors.New("busy"), 529), want: true},
		{name: "wrapped 429", err: fmt.Errorf("call failed: %w", NewTransientError(errors.New("x"), 429)), want: true},
		{name: "resource exhausted marker", err: errors.New("RESOURCE_EXHAUSTED: try later"), want: true},
		{name: "quota marker", err: errors.New("You exceeded your current quota"), want: true},
		{name: "429 in message", err: errors.New("POST /v1/messages: 429 Too Many Requests"), want: true},
		{name: "rate_limit_error type", err: errors.New(`{"type":"rate_limit_error"}`), want: true},
		{name: "server error", err: NewTransientError(errors.New("internal"), 500), want: false},
		{name: "plain error", err: errors.New("invalid input"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimited(tt.err))
		})
	}
}

func TestIsTransient_ExplicitTransientError(t *testing.T) {
	err := NewTransientError(errors.New("server overloaded"), 503)
	assert.True(t, IsTransient(err))
	assert.Equal(t, "server overloaded", err.Error())
}

func TestIsTransient_RegularError(t *testing.T) {
	assert.False(t, IsTransient(errors.New("invalid input: missing field")))
	assert.False(t, IsTransient(nil))
}

func TestIsTransient_Network(t *testing.T) {
	assert.True(t, IsTransient(fmt.Errorf("write tcp: %w", syscall.ECONNRESET)))
	assert.True(t, IsTransient(&net.DNSError{IsTimeout: true, Err: "timeout"}))
	assert.True(t, IsTransient(errors.New("read: connection reset by peer")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504, 529} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 400, 401, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}
