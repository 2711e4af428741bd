package mirror

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultHost is the mirror used when none is configured.
const DefaultHost = "sci-hub.wf"

// ParseHost accepts either a bare host ("mirror.example") or an origin URL
// ("http://127.0.0.1:8080") and returns the mirror origin.
func ParseHost(host string) (*url.URL, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, fmt.Errorf("mirror host is empty")
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	origin, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("mirror host %q: %w", host, err)
	}
	if origin.Host == "" {
		return nil, fmt.Errorf("mirror host %q has no host component", host)
	}
	return &url.URL{Scheme: origin.Scheme, Host: origin.Host, Path: "/"}, nil
}

// MirrorURL rewrites source's path onto the mirror origin, so
// https://doi.org/10.1000/xyz becomes https://<mirror>/10.1000/xyz.
func MirrorURL(origin, source *url.URL) *url.URL {
	mirrored := *origin
	mirrored.Path = source.Path
	mirrored.RawPath = source.RawPath
	if !strings.HasPrefix(mirrored.Path, "/") {
		mirrored.Path = "/" + mirrored.Path
		mirrored.RawPath = ""
	}
	mirrored.RawQuery = ""
	mirrored.Fragment = ""
	return &mirrored
}

// IsDOILink reports whether link points at a DOI resolver. Only DOI links
// can be looked up on the mirror.
func IsDOILink(link *url.URL) bool {
	if link == nil {
		return false
	}
	host := strings.ToLower(link.Hostname())
	return host == "doi.org" || strings.HasSuffix(host, ".doi.org")
}
