package sandbox

import (
	"fmt"
	"net/url"
)

// blockedHostPatterns keep webfetch away from anything that isn't public
// internet: loopback, private ranges, link-local, IPv6 loopback/ULA, and
// cloud metadata services. Matching is against the bare hostname.
var blockedHostPatterns = compilePatterns([]string{
	`(?i)^localhost\.?$`,
	`^127\.\d{1,3}\.\d{1,3}\.\d{1,3}$`,
	`^0\.0\.0\.0$`,
	`^10\.\d{1,3}\.\d{1,3}\.\d{1,3}$`,
	`^192\.168\.\d{1,3}\.\d{1,3}$`,
	`^172\.(1[6-9]|2\d|3[01])\.\d{1,3}\.\d{1,3}$`,
	`^169\.254\.\d{1,3}\.\d{1,3}$`,
	`(?i)^::1$`,
	`(?i)^0:0:0:0:0:0:0:1$`,
	`(?i)^f[cd][0-9a-f]{2}:`,
	`(?i)^fe80:`,
	`(?i)^metadata\.google\.internal\.?$`,
	`(?i)^metadata\.?$`,
})

// CheckURL validates a webfetch target. A non-nil error is a *BlockedError
// unless the URL fails to parse at all. The parsed URL is returned so the
// caller fetches exactly what was validated.
func (p *Policy) CheckURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &BlockedError{Reason: fmt.Sprintf("invalid URL: %v", err)}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &BlockedError{Reason: "only http and https URLs are allowed"}
	}

	host := u.Hostname()
	if host == "" {
		return nil, &BlockedError{Reason: "URL has no host"}
	}

	for _, re := range p.blockedHosts {
		if re.MatchString(host) {
			return nil, &BlockedError{Reason: fmt.Sprintf("host %s is not fetchable", host)}
		}
	}

	if p.SafeMode {
		if port := u.Port(); port != "" && port != "80" && port != "443" {
			return nil, &BlockedError{Reason: fmt.Sprintf("port %s is not allowed in safe mode", port)}
		}
	}

	return u, nil
}
