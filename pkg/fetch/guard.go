package fetch

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

var fetchBlockedCIDRs = []*net.IPNet{
	mustParseCIDR("127.0.0.0/8"),
	mustParseCIDR("10.0.0.0/8"),
	mustParseCIDR("172.16.0.0/12"),
	mustParseCIDR("192.168.0.0/16"),
	mustParseCIDR("169.254.0.0/16"),
	mustParseCIDR("::1/128"),
	mustParseCIDR("fc00::/7"),
	mustParseCIDR("fe80::/10"),
}

func mustParseCIDR(value string) *net.IPNet {
	_, parsed, err := net.ParseCIDR(value)
	if err != nil {
		panic(fmt.Sprintf("invalid CIDR %q: %v", value, err))
	}
	return parsed
}

// checkURL validates the scheme and, unless allowPrivate is set, rejects
// loopback and private literal addresses.
func checkURL(parsed *url.URL, allowPrivate bool) string {
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "url must use http or https"
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "url has no host"
	}
	if allowPrivate {
		return ""
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return "url not allowed"
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			ip = ip4
		}
		for _, cidr := range fetchBlockedCIDRs {
			if cidr.Contains(ip) {
				return "url not allowed"
			}
		}
	}
	return ""
}
