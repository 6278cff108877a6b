package call

import (
	"net"
	"testing"

	pion "github.com/pion/webrtc/v4"
)

func TestICEConfiguration(t *testing.T) {
	cfg := ICEConfig{}.configuration()
	if len(cfg.ICEServers) != 0 || cfg.ICETransportPolicy != pion.ICETransportPolicyAll {
		t.Errorf("empty config = %+v", cfg)
	}

	cfg = ICEConfig{
		STUN:       []string{DefaultSTUN},
		TURN:       []string{"turn:turn.example:3478?transport=udp"},
		TURNUser:   "interview",
		TURNPass:   "secret",
		ForceRelay: true,
	}.configuration()
	if len(cfg.ICEServers) != 2 {
		t.Fatalf("servers = %+v", cfg.ICEServers)
	}
	if turn := cfg.ICEServers[1]; turn.Username != "interview" || turn.Credential != "secret" {
		t.Errorf("turn server = %+v", turn)
	}
	if cfg.ICETransportPolicy != pion.ICETransportPolicyRelay {
		t.Errorf("policy = %s, want relay", cfg.ICETransportPolicy)
	}

	// Relay is never forced without a TURN server to relay through.
	cfg = ICEConfig{STUN: []string{DefaultSTUN}, ForceRelay: true}.configuration()
	if cfg.ICETransportPolicy != pion.ICETransportPolicyAll {
		t.Errorf("policy without turn = %s", cfg.ICETransportPolicy)
	}
}

func TestRestrictiveInterface(t *testing.T) {
	tests := []struct {
		name string
		ips  []net.IP
		want bool
	}{
		{"eth0", []net.IP{net.ParseIP("192.168.1.20")}, false},
		{"wg0", nil, true},
		{"utun3", nil, true},
		{"CloudflareWARP", nil, true},
		{"en0", []net.IP{net.ParseIP("100.100.12.3")}, true},
		{"en0", []net.IP{net.ParseIP("100.128.0.1")}, false},
	}
	for _, tt := range tests {
		if got := restrictiveInterface(tt.name, tt.ips); got != tt.want {
			t.Errorf("restrictiveInterface(%q, %v) = %v, want %v", tt.name, tt.ips, got, tt.want)
		}
	}
}
