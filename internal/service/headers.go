package service

import (
	"net/http"

	"golang.org/x/net/http/httpguts"

	"webview-proxy-go/internal/codec"
)

// excludedNativeHeaders describe the local proxy's origin, not the target.
// They are never copied from the inbound request.
var excludedNativeHeaders = map[string]bool{
	"Host":    true,
	"Referer": true,
	"Origin":  true,
}

// MergeHeaders builds the outbound header set. Declared headers form the base;
// native headers fill in only names that are neither declared nor excluded.
// Declared headers with an invalid name or value are dropped, and a repeated
// declared name keeps its last value.
func MergeHeaders(declared []codec.Header, native http.Header) http.Header {
	dst := make(http.Header, len(declared)+len(native))
	for _, h := range declared {
		if !httpguts.ValidHeaderFieldName(h.Name) || !httpguts.ValidHeaderFieldValue(h.Value) {
			continue
		}
		dst.Set(h.Name, h.Value)
	}

	for key, vals := range native {
		name := http.CanonicalHeaderKey(key)
		if excludedNativeHeaders[name] {
			continue
		}
		if _, ok := dst[name]; ok {
			continue
		}
		dst[name] = append([]string(nil), vals...)
	}
	return dst
}

// applyDefaultHeaders sets each default that is still absent after merging.
func applyDefaultHeaders(dst http.Header, defaults http.Header) {
	for key, vals := range defaults {
		if _, ok := dst[key]; ok {
			continue
		}
		dst[key] = append([]string(nil), vals...)
	}
}

// filterResponseHeaders drops Connection and any header whose name or value is
// not valid on the wire. Each bad header is dropped on its own.
func filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		if http.CanonicalHeaderKey(key) == "Connection" || !httpguts.ValidHeaderFieldName(key) {
			continue
		}
		kept := make([]string, 0, len(vals))
		for _, v := range vals {
			if httpguts.ValidHeaderFieldValue(v) {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			dst[key] = kept
		}
	}
	return dst
}
