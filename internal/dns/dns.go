package dns

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"
)

// Public resolvers raced when the system resolver cannot answer, which is
// common on Android shells without a resolv.conf.
var publicDNS = []string{
	"1.1.1.1",
	"1.0.0.1",
	"8.8.8.8",
	"8.8.4.4",
	"9.9.9.9",
	"149.112.112.112",
	"208.67.222.222",
	"[2606:4700:4700::1111]",
	"[2001:4860:4860::8888]",
}

const (
	localTimeout  = time.Second
	publicTimeout = 2 * time.Second
)

// Lookup resolves host to an IP address, preferring IPv4. The system
// resolver is tried first, then the public resolvers race for an answer.
func Lookup(ctx context.Context, host string) (string, error) {
	lctx, cancel := context.WithTimeout(ctx, localTimeout)
	ip, err := lookupWith(lctx, &net.Resolver{}, host)
	cancel()
	if err == nil {
		return ip, nil
	}
	slog.Debug("System DNS lookup failed, racing public resolvers", "host", host, "error", err)
	return raceLookup(ctx, host)
}

func raceLookup(ctx context.Context, host string) (string, error) {
	type result struct {
		ip  string
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, publicTimeout)
	defer cancel()

	results := make(chan result, len(publicDNS))
	for _, server := range publicDNS {
		go func(server string) {
			ip, err := lookupWith(ctx, viaServer(server), host)
			results <- result{ip, err}
		}(server)
	}

	failures := 0
	for range publicDNS {
		select {
		case r := <-results:
			if r.err == nil {
				return r.ip, nil
			}
			failures++
		case <-ctx.Done():
			return "", fmt.Errorf("resolve %s: public DNS race timed out", host)
		}
	}
	return "", fmt.Errorf("resolve %s: all %d public resolvers failed", host, failures)
}

// viaServer returns a resolver that sends every query to server on port 53.
func viaServer(server string) *net.Resolver {
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, net.JoinHostPort(strings.Trim(server, "[]"), "53"))
		},
	}
}

func lookupWith(ctx context.Context, r *net.Resolver, host string) (string, error) {
	ips, err := r.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", errors.New("no addresses returned")
	}
	for _, ip := range ips {
		if net.ParseIP(ip).To4() != nil {
			return ip, nil
		}
	}
	return ips[0], nil
}

// ResolveSTUN rewrites the host of each stun: URL to an IP address so ICE
// gathering does not depend on the system resolver. URLs that are already
// literal, use another scheme, or fail to resolve are returned unchanged.
func ResolveSTUN(ctx context.Context, urls []string) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = u

		host, port, ok := splitSTUN(u)
		if !ok || net.ParseIP(host) != nil {
			continue
		}
		ip, err := Lookup(ctx, host)
		if err != nil {
			slog.Warn("Cannot resolve STUN server, leaving it to the ICE agent", "url", u, "error", err)
			continue
		}
		if port == "" {
			out[i] = "stun:" + bracket(ip)
		} else {
			out[i] = "stun:" + net.JoinHostPort(ip, port)
		}
		slog.Debug("Resolved STUN server", "url", u, "ip", ip)
	}
	return out
}

// splitSTUN extracts host and optional port from stun:host[:port].
func splitSTUN(u string) (host, port string, ok bool) {
	rest, found := strings.CutPrefix(u, "stun:")
	if !found || rest == "" || strings.ContainsAny(rest, "?/") {
		return "", "", false
	}
	if h, p, err := net.SplitHostPort(rest); err == nil {
		return h, p, h != ""
	}
	return strings.Trim(rest, "[]"), "", true
}

func bracket(ip string) string {
	if strings.Contains(ip, ":") {
		return "[" + ip + "]"
	}
	return ip
}
