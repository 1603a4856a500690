package errors

import (
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

// ValidateLimit parses the deep-crawl limit given on the command line.
// The limit must be a positive decimal integer without sign or leading zeros.
func ValidateLimit(s string) (int, error) {
	if s == "" {
		return 0, New(ErrCodeUsage, "limit cannot be empty")
	}
	if s[0] == '0' {
		return 0, New(ErrCodeUsage, "limit must be a positive integer: %q", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, New(ErrCodeUsage, "limit must be a positive integer: %q", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, Wrap(ErrCodeUsage, err, "limit out of range: %q", s)
	}
	return n, nil
}

// ValidateAbsoluteURL checks that raw is an absolute http(s) URL with a host.
func ValidateAbsoluteURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, New(ErrCodeContract, "url cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, Wrap(ErrCodeContract, err, "malformed url %q", raw)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, New(ErrCodeContract, "url is not absolute: %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, New(ErrCodeContract, "unsupported url scheme %q", u.Scheme)
	}
	return u, nil
}

// ValidateCacheKey rejects empty keys and keys containing control characters.
func ValidateCacheKey(key string) error {
	if key == "" {
		return Invariantf("cache key cannot be empty")
	}
	if strings.IndexFunc(key, unicode.IsControl) >= 0 {
		return Invariantf("cache key contains control characters: %q", key)
	}
	return nil
}
