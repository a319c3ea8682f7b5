package clients

import (
	"net/http"
	"time"
)

type HTTP struct{ c *http.Client }

func NewHTTP() *HTTP { return &HTTP{c: &http.Client{Timeout: 60 * time.Second}} }

// NewHTTPWithTimeout is NewHTTP with a caller-chosen request timeout.
func NewHTTPWithTimeout(d time.Duration) *HTTP {
	if d <= 0 {
		return NewHTTP()
	}
	return &HTTP{c: &http.Client{Timeout: d}}
}
