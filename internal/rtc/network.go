package rtc

import (
	"net"
	"strings"
)

var _, cgnatBlock, _ = net.ParseCIDR("100.64.0.0/10")

// ShouldForceRelay reports whether an active interface looks like a VPN
// tunnel or sits in the CGNAT range, where direct paths rarely work.
func ShouldForceRelay() bool {
	interfaces, err := net.Interfaces()
	if err != nil {
		return false
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if isTunnelName(iface.Name) {
			return true
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if inCGNAT(addrIP(addr)) {
				return true
			}
		}
	}

	return false
}

// isTunnelName matches OpenVPN, virtual adapters, WireGuard, PPP and WARP.
func isTunnelName(name string) bool {
	name = strings.ToLower(name)
	for _, marker := range []string{"tun", "tap", "wg", "ppp", "warp"} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// inCGNAT covers 100.64.0.0/10, used by carriers, Tailscale and WARP.
func inCGNAT(ip net.IP) bool {
	return ip != nil && cgnatBlock.Contains(ip)
}

func addrIP(addr net.Addr) net.IP {
	switch v := addr.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	}
	return nil
}
