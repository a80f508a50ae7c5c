// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
)

// ProxyRequest is an inbound request to /proxy/{headers}/{url}, not yet decoded.
type ProxyRequest struct {
	Ctx            context.Context
	Method         string
	HeadersSegment string
	URLSegment     string
	RawQuery       string
	Header         http.Header // native headers attached by the caller's runtime
	Body           io.ReadCloser
	ContentLength  int64 // -1 when unknown
}

// ProxyResponse represents the upstream response to be streamed back.
type ProxyResponse struct {
	StatusCode    int
	Header        http.Header
	Body          io.ReadCloser
	ContentLength int64 // -1 when unknown
}
