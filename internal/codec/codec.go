// Package codec encodes a target URL and a list of declared headers into the
// two path segments of a proxy URL, and decodes them back.
//
// A token has the form {headers}/{url}. Both segments are percent-encoded with
// every byte outside the unreserved set escaped, so neither can contain '/'.
// Header names and values are joined as "name:value,name:value" without
// escaping; names or values containing ',' or ':' cannot be represented.
package codec

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// EmptyHeaders stands in for an empty header segment so the path never
// contains an empty component.
const EmptyHeaders = "_"

var (
	// ErrInvalidURLEncoding is returned when the URL segment is not valid
	// percent-encoding of a UTF-8 string.
	ErrInvalidURLEncoding = errors.New("invalid URL encoding")
	// ErrInvalidTargetURL is returned when the decoded URL is not an absolute
	// http(s) URL.
	ErrInvalidTargetURL = errors.New("invalid target URL")
)

// Header is a single declared header.
type Header struct {
	Name  string
	Value string
}

// Token is the decoded form of the two proxy path segments.
type Token struct {
	URL     string
	Target  *url.URL
	Headers []Header
}

// Escape percent-encodes s, leaving only ALPHA / DIGIT / "-" / "." / "_" / "~"
// untouched.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// EncodeURL returns the URL segment for target.
func EncodeURL(target string) string {
	return Escape(target)
}

// EncodeHeaders returns the header segment for headers.
func EncodeHeaders(headers []Header) string {
	pairs := make([]string, 0, len(headers))
	for _, h := range headers {
		pairs = append(pairs, h.Name+":"+h.Value)
	}
	seg := Escape(strings.Join(pairs, ","))
	if seg == "" {
		return EmptyHeaders
	}
	return seg
}

// Encode returns the {headers}/{url} token for target and headers.
func Encode(target string, headers []Header) string {
	return EncodeHeaders(headers) + "/" + EncodeURL(target)
}

// Decode reverses Encode. A header segment that fails to decode yields no
// headers rather than an error.
func Decode(headersSegment, urlSegment string) (Token, error) {
	raw, err := url.PathUnescape(urlSegment)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %w", ErrInvalidURLEncoding, err)
	}
	if !utf8.ValidString(raw) {
		return Token{}, fmt.Errorf("%w: not valid UTF-8", ErrInvalidURLEncoding)
	}

	target, err := ParseTarget(raw)
	if err != nil {
		return Token{}, err
	}

	return Token{
		URL:     raw,
		Target:  target,
		Headers: DecodeHeaders(headersSegment),
	}, nil
}

// DecodeHeaders decodes a header segment. Undecodable input yields nil.
func DecodeHeaders(segment string) []Header {
	raw, err := url.PathUnescape(segment)
	if err != nil || raw == "" {
		return nil
	}
	return ParseHeaders(strings.Split(raw, ","))
}

// ParseHeaders splits each "name:value" pair on its first ':'. Pairs without
// a ':' are skipped.
func ParseHeaders(pairs []string) []Header {
	var headers []Header
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		headers = append(headers, Header{Name: name, Value: value})
	}
	return headers
}

// ParseTarget parses raw as an absolute http or https URL.
func ParseTarget(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTargetURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidTargetURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidTargetURL)
	}
	return u, nil
}
