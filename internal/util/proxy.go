// Package util holds small transport helpers shared by outbound clients.
package util

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Proxy selects the outbound proxy for a client. Empty URLs defer to the
// HTTP_PROXY, HTTPS_PROXY and NO_PROXY environment variables.
type Proxy struct {
	HTTP    string
	HTTPS   string
	NoProxy []string // Hosts or domain suffixes reached directly
}

// Func returns a proxy function for http.Transport. Invalid proxy URLs
// are reported here rather than on the first request.
func (p Proxy) Func() (func(*http.Request) (*url.URL, error), error) {
	if p.HTTP == "" && p.HTTPS == "" {
		return http.ProxyFromEnvironment, nil
	}

	httpURL, err := parseProxy(p.HTTP)
	if err != nil {
		return nil, err
	}
	httpsURL, err := parseProxy(p.HTTPS)
	if err != nil {
		return nil, err
	}
	bypass := normalizeHosts(p.NoProxy)

	return func(req *http.Request) (*url.URL, error) {
		if bypassed(req.URL.Hostname(), bypass) {
			return nil, nil
		}
		if req.URL.Scheme == "https" && httpsURL != nil {
			return httpsURL, nil
		}
		if httpURL != nil {
			return httpURL, nil
		}
		return http.ProxyFromEnvironment(req)
	}, nil
}

func parseProxy(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy url %q", raw)
	}
	return u, nil
}

func normalizeHosts(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if host, _, err := net.SplitHostPort(h); err == nil {
			h = host
		}
		if h = strings.TrimPrefix(h, "*"); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// bypassed matches exact hosts and ".suffix" entries
func bypassed(host string, bypass []string) bool {
	host = strings.ToLower(host)
	for _, b := range bypass {
		if host == b || host == strings.TrimPrefix(b, ".") {
			return true
		}
		if strings.HasPrefix(b, ".") && strings.HasSuffix(host, b) {
			return true
		}
		if !strings.HasPrefix(b, ".") && strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}
