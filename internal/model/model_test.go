package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeader(t *testing.T) {
	h := NewHeader("Content-Type", "text/plain", "X-A", "1")
	h.Set("content-type", "application/json")
	h.Set("X-B", "2")
	assert.Equal(t, []string{"Content-Type: application/json", "X-A: 1", "X-B: 2"}, h.Lines())
	assert.Equal(t, "1", h.Get("x-a"))

	h.Del("X-A")
	assert.False(t, h.Has("x-a"))
	assert.Len(t, h, 2)
}

func TestResponseGet(t *testing.T) {
	r := &Response{Header: map[string]string{"Content-Type": "text/html"}}
	assert.Equal(t, "text/html", r.Get("content-type"))
	assert.Equal(t, "", r.Get("X-Missing"))
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, "Not Found", StatusMessage(404))
	assert.Equal(t, "Too Many Requests", StatusMessage(429))
	assert.Equal(t, UnknownStatus, StatusMessage(599))
	assert.NoError(t, CheckStatus("http://h/", 204))
	assert.EqualError(t, CheckStatus("http://h/", 503), "the request to http://h/ returned status code 503: Service Unavailable")
}
