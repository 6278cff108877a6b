package call

import (
	"net"
	"strings"

	pion "github.com/pion/webrtc/v4"
)

// ICEConfig lists the servers used to reach the other participant.
type ICEConfig struct {
	STUN     []string
	TURN     []string
	TURNUser string
	TURNPass string
	// ForceRelay sends all traffic through TURN. It is also switched on
	// automatically behind VPNs and carrier-grade NAT when TURN is set.
	ForceRelay bool
}

func (c ICEConfig) configuration() pion.Configuration {
	var servers []pion.ICEServer
	if len(c.STUN) > 0 {
		servers = append(servers, pion.ICEServer{URLs: c.STUN})
	}
	if len(c.TURN) > 0 {
		servers = append(servers, pion.ICEServer{
			URLs:       c.TURN,
			Username:   c.TURNUser,
			Credential: c.TURNPass,
		})
	}

	policy := pion.ICETransportPolicyAll
	if len(c.TURN) > 0 && (c.ForceRelay || BehindRestrictiveNetwork()) {
		policy = pion.ICETransportPolicyRelay
	}
	return pion.Configuration{ICEServers: servers, ICETransportPolicy: policy}
}

// CGNAT range used by Cloudflare WARP, Tailscale and carriers.
var cgnatBlock = &net.IPNet{IP: net.IPv4(100, 64, 0, 0), Mask: net.CIDRMask(10, 32)}

// BehindRestrictiveNetwork reports whether an active interface looks like a
// VPN tunnel or sits inside the CGNAT range, where direct paths rarely work.
func BehindRestrictiveNetwork() bool {
	interfaces, err := net.Interfaces()
	if err != nil {
		return false
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		var ips []net.IP
		if addrs, err := iface.Addrs(); err == nil {
			for _, addr := range addrs {
				switch v := addr.(type) {
				case *net.IPNet:
					ips = append(ips, v.IP)
				case *net.IPAddr:
					ips = append(ips, v.IP)
				}
			}
		}
		if restrictiveInterface(iface.Name, ips) {
			return true
		}
	}
	return false
}

func restrictiveInterface(name string, ips []net.IP) bool {
	name = strings.ToLower(name)
	for _, marker := range []string{"tun", "tap", "wg", "ppp", "warp"} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	for _, ip := range ips {
		if cgnatBlock.Contains(ip) {
			return true
		}
	}
	return false
}
