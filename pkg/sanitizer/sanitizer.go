package sanitizer

import (
	"net/url"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

// SanitizeURL normalizes a meeting link. Path and query values keep their
// case since conferencing tokens are case sensitive.
func SanitizeURL(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}

	lowered := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lowered, "https://"):
		s = s[len("https://"):]
	case strings.HasPrefix(lowered, "http://"):
		s = s[len("http://"):]
	}
	s = "https://" + s

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}

	u.Host = strings.ToLower(u.Host)
	if after, ok := strings.CutPrefix(u.Host, "www."); ok {
		u.Host = after
	}
	u.Path = strings.TrimSuffix(strings.TrimSpace(u.Path), "/")

	q := u.Query()
	qClean := url.Values{}
	for k, v := range q {
		key := strings.TrimSpace(k)
		if strings.HasPrefix(strings.ToLower(key), "utm_") {
			continue
		}
		for _, val := range v {
			if value := strings.TrimSpace(val); value != "" {
				qClean.Add(key, value)
			}
		}
	}
	u.RawQuery = qClean.Encode()

	return u.String()
}
