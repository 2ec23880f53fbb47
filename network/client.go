// Package network provides the tuned HTTP client shared by every backend request.
package network

import (
	"net/http"
	"time"
)

// Client is the HTTP client shared across the application.
// Per-request deadlines are applied by callers through their context.
var Client = &http.Client{
	Transport: newTransport(),
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 20
	t.MaxIdleConnsPerHost = 10
	t.IdleConnTimeout = 90 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = time.Second
	return t
}
