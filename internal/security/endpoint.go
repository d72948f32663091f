package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

var blockedHosts = []string{"localhost", "metadata.google.internal", "metadata.google"}

// ValidateUpstreamURL checks that the facilitator URL points at a public
// host. Private, loopback, link-local and unspecified addresses are
// rejected, both as literals and after DNS resolution.
func ValidateUpstreamURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("security: invalid upstream URL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("security: upstream URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("security: upstream URL has no host")
	}

	host := u.Hostname()
	for _, b := range blockedHosts {
		if strings.EqualFold(host, b) {
			return fmt.Errorf("security: upstream host %q is not allowed", host)
		}
	}

	if ip := net.ParseIP(host); ip != nil {
		return checkIP(ip)
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		return fmt.Errorf("security: cannot resolve upstream host %q: %w", host, err)
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil {
			if err := checkIP(ip); err != nil {
				return fmt.Errorf("security: upstream host %q resolves to a blocked address: %w", host, err)
			}
		}
	}
	return nil
}

func checkIP(ip net.IP) error {
	switch {
	case ip.IsLoopback():
		return fmt.Errorf("loopback address %s is not allowed", ip)
	case ip.IsPrivate():
		return fmt.Errorf("private address %s is not allowed", ip)
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return fmt.Errorf("link-local address %s is not allowed", ip)
	case ip.IsUnspecified():
		return fmt.Errorf("unspecified address %s is not allowed", ip)
	}
	return nil
}
